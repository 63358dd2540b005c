package onchain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/internal/wallet"
	"financechain/models"
)

// Wallet is the part of the provider shim the submitter drives. *wallet.Shim satisfies it.
type Wallet interface {
	Connect(ctx context.Context) (*wallet.Session, error)
	ContractFor(ctx context.Context, address common.Address, contractABI abi.ABI) (*wallet.Contract, error)
	Backend(ctx context.Context) (wallet.Backend, error)
	ParseToNativeUnits(amount string) (*big.Int, error)
}

// StateFunc observes the lifecycle of one submission.
type StateFunc func(models.TxState)

// Submitter authorizes, sends and settles on-chain operations.
//
// Settlement waits for the receipt without a deadline of its own: a provider that never
// answers blocks the caller until ctx is done.
type Submitter struct {
	wallet       Wallet
	validate     *validator.Validate
	log          *logrus.Entry
	pollInterval time.Duration
}

func NewSubmitter(w Wallet) *Submitter {
	return &Submitter{
		wallet:       w,
		validate:     validator.New(),
		log:          logrus.WithField("component", "submitter"),
		pollInterval: time.Second,
	}
}

// WithPollInterval sets how often the receipt is looked up while waiting for settlement.
func (s *Submitter) WithPollInterval(d time.Duration) *Submitter {
	if d > 0 {
		s.pollInterval = d
	}
	return s
}

// Submit sends req and waits for one confirmation.
func (s *Submitter) Submit(ctx context.Context, req models.SubmissionRequest) (*models.SubmissionResult, error) {
	return s.SubmitObserved(ctx, req, nil)
}

// SubmitObserved is Submit reporting state transitions to observe.
// A reverted transaction is reported as StateFailed and still returns its normalized result.
func (s *Submitter) SubmitObserved(ctx context.Context, req models.SubmissionRequest, observe StateFunc) (*models.SubmissionResult, error) {
	notify := func(state models.TxState) {
		if observe != nil {
			observe(state)
		}
	}

	send, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	notify(models.StateAuthorizing)
	hash, backend, err := send(ctx)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrUserRejected) {
			notify(models.StateComposing)
		} else {
			notify(models.StateFailed)
		}
		return nil, err
	}
	log := s.log.WithField("tx_hash", hash.Hex())
	log.Info("transaction submitted")
	notify(models.StateSubmitted)

	result, err := s.settle(ctx, backend, hash)
	if err != nil {
		notify(models.StateFailed)
		return nil, translate(err)
	}
	if result.Succeeded() {
		log.WithField("block", derefString(result.BlockNumber)).Info("transaction confirmed")
		notify(models.StateConfirmed)
	} else {
		log.Warn("transaction reverted")
		notify(models.StateFailed)
	}
	return result, nil
}

// sendFunc submits an authorized operation and returns its hash plus the backend to settle on.
type sendFunc func(ctx context.Context) (common.Hash, wallet.Backend, error)

// prepare validates req without touching the wallet.
func (s *Submitter) prepare(req models.SubmissionRequest) (sendFunc, error) {
	switch r := req.(type) {
	case models.ContractCall:
		return s.prepareContractCall(r)
	case *models.ContractCall:
		if r == nil {
			return nil, ErrInvalidRequest
		}
		return s.prepareContractCall(*r)
	case models.ValueTransfer:
		return s.prepareTransfer(r)
	case *models.ValueTransfer:
		if r == nil {
			return nil, ErrInvalidRequest
		}
		return s.prepareTransfer(*r)
	case models.HashAnchor:
		return s.prepareAnchor(r)
	case *models.HashAnchor:
		if r == nil {
			return nil, ErrInvalidRequest
		}
		return s.prepareAnchor(*r)
	}
	return nil, errors.Wrapf(ErrInvalidRequest, "unsupported request %T", req)
}

func (s *Submitter) prepareContractCall(r models.ContractCall) (sendFunc, error) {
	scaled, err := ScaleAmount(r.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(r); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	address := common.HexToAddress(r.ContractAddress)
	return func(ctx context.Context) (common.Hash, wallet.Backend, error) {
		return s.transact(ctx, address, FinanceABI, "addTransaction", scaled, r.IsIncome, r.Category, r.Note)
	}, nil
}

func (s *Submitter) prepareAnchor(r models.HashAnchor) (sendFunc, error) {
	if err := s.validate.Struct(r); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	address := common.HexToAddress(r.ContractAddress)
	digest := crypto.Keccak256Hash([]byte(r.Message))
	return func(ctx context.Context) (common.Hash, wallet.Backend, error) {
		return s.transact(ctx, address, AnchorABI, "saveTxHash", [32]byte(digest))
	}, nil
}

func (s *Submitter) prepareTransfer(r models.ValueTransfer) (sendFunc, error) {
	if err := s.validate.Struct(r); err != nil {
		return nil, errors.Wrap(ErrInvalidRequest, err.Error())
	}
	wei, err := s.wallet.ParseToNativeUnits(r.Amount)
	if err != nil {
		return nil, err
	}
	if wei.Sign() <= 0 {
		return nil, errors.Wrapf(ErrInvalidAmount, "%s", r.Amount)
	}
	to := common.HexToAddress(r.Recipient)
	return func(ctx context.Context) (common.Hash, wallet.Backend, error) {
		session, err := s.wallet.Connect(ctx)
		if err != nil {
			return common.Hash{}, nil, err
		}
		if session.Address == nil {
			return common.Hash{}, nil, wallet.ErrNoAccount
		}
		backend, err := s.wallet.Backend(ctx)
		if err != nil {
			return common.Hash{}, nil, err
		}
		hash, err := session.Provider.Send(ctx, *session.Address, wallet.Call{To: to, Value: wei})
		return hash, backend, err
	}, nil
}

func (s *Submitter) transact(ctx context.Context, address common.Address, contractABI abi.ABI, method string, args ...interface{}) (common.Hash, wallet.Backend, error) {
	if _, err := s.wallet.Connect(ctx); err != nil {
		return common.Hash{}, nil, err
	}
	contract, err := s.wallet.ContractFor(ctx, address, contractABI)
	if err != nil {
		return common.Hash{}, nil, err
	}
	backend, err := s.wallet.Backend(ctx)
	if err != nil {
		return common.Hash{}, nil, err
	}
	hash, err := contract.Transact(ctx, method, args...)
	return hash, backend, err
}

// settle blocks until the receipt of hash is available and normalizes transaction and receipt.
func (s *Submitter) settle(ctx context.Context, backend wallet.Backend, hash common.Hash) (*models.SubmissionResult, error) {
	receipt, err := s.waitMined(ctx, backend, hash)
	if err != nil {
		return nil, err
	}

	var tx *types.Transaction
	if t, _, err := backend.TransactionByHash(ctx, hash); err == nil {
		tx = t
	} else {
		s.log.WithError(err).WithField("tx_hash", hash.Hex()).Debug("transaction lookup failed")
	}

	confirmations := uint64(1)
	if head, err := backend.BlockNumber(ctx); err == nil && receipt.BlockNumber != nil && receipt.BlockNumber.IsUint64() {
		if mined := receipt.BlockNumber.Uint64(); head >= mined {
			confirmations = head - mined + 1
		}
	}

	result := Normalize(tx, Settlement{Receipt: receipt, Confirmations: confirmations})
	if result.TxHash == "" {
		result.TxHash = hash.Hex()
	}
	return &result, nil
}

func (s *Submitter) waitMined(ctx context.Context, backend wallet.Backend, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	log := s.log.WithField("tx_hash", hash.Hex())
	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			log.WithError(err).Debug("receipt lookup failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
