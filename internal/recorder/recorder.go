package recorder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"financechain/internal/onchain"
	"financechain/models"
)

type Mode int

const (
	// OffChain records the entry in the ledger store only.
	OffChain Mode = iota
	// Contract records through the finance contract first.
	Contract
	// Transfer sends native currency to the recipient first.
	Transfer
)

func (m Mode) String() string {
	switch m {
	case Contract:
		return "contract"
	case Transfer:
		return "transfer"
	}
	return "off-chain"
}

// DefaultCategory is the contract category used for every recorded entry.
const DefaultCategory = "general"

type Entry struct {
	Sender      string
	Recipient   string
	Amount      string
	Description string
	Mode        Mode
	// Income is the contract's income flag; it is ignored off-chain and for transfers.
	Income bool
	// Sign attaches a wallet signature of the entry.
	Sign bool
	// OnState observes the on-chain submission.
	OnState onchain.StateFunc
}

type Outcome struct {
	Input    models.TransactionInput
	OnChain  *models.SubmissionResult
	Response *models.TransactionResponse
}

type Submitter interface {
	SubmitObserved(ctx context.Context, req models.SubmissionRequest, observe onchain.StateFunc) (*models.SubmissionResult, error)
}

type Store interface {
	Record(ctx context.Context, in models.TransactionInput) (*models.TransactionResponse, error)
}

// Signer is the wallet as seen by the recorder. *wallet.Shim satisfies it.
type Signer interface {
	Address(ctx context.Context) *common.Address
	SignText(ctx context.Context, msg string) ([]byte, common.Address, error)
}

type Recorder struct {
	store     Store
	submitter Submitter
	signer    Signer
	contract  string
	log       *logrus.Entry
	now       func() time.Time
}

type Option func(*Recorder)

func WithSubmitter(s Submitter) Option { return func(r *Recorder) { r.submitter = s } }

func WithSigner(s Signer) Option { return func(r *Recorder) { r.signer = s } }

func WithContract(address string) Option { return func(r *Recorder) { r.contract = address } }

func WithClock(now func() time.Time) Option { return func(r *Recorder) { r.now = now } }

func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store: store,
		log:   logrus.WithField("component", "recorder"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores e, on-chain first when its mode asks for it.
// A failed on-chain phase sends nothing to the store.
func (r *Recorder) Record(ctx context.Context, e Entry) (*Outcome, error) {
	sender := strings.TrimSpace(e.Sender)
	recipient := strings.TrimSpace(e.Recipient)
	desc := strings.TrimSpace(e.Description)

	if e.Mode != OffChain && r.signer != nil {
		if addr := r.signer.Address(ctx); addr != nil {
			sender = addr.Hex()
		}
	}

	amount, err := normalizeAmount(e.Amount)
	if err != nil {
		return nil, err
	}
	if sender == "" {
		return nil, ErrMissingSender
	}
	if recipient == "" {
		return nil, ErrMissingRecipient
	}

	out := &Outcome{Input: models.TransactionInput{
		Sender:    sender,
		Recipient: recipient,
		Amount:    models.Amount(amount),
		Desc:      desc,
	}}
	log := r.log.WithFields(logrus.Fields{"mode": e.Mode.String(), "sender": sender, "recipient": recipient})

	if e.Mode != OffChain {
		req, err := r.request(e.Mode, recipient, amount, desc, e.Income)
		if err != nil {
			return nil, err
		}
		res, err := r.submitter.SubmitObserved(ctx, req, e.OnState)
		if err != nil {
			log.WithError(err).Warn("on-chain phase failed")
			return nil, &PhaseError{Phase: PhaseOnChain, Err: err}
		}
		out.OnChain = res
		out.Input.TxHash = res.TxHash
		out.Input.TxMeta = res
	}

	if e.Sign {
		r.sign(ctx, &out.Input, log)
	}

	resp, err := r.store.Record(ctx, out.Input)
	if err != nil {
		log.WithError(err).Error("off-chain phase failed")
		return out, &PhaseError{Phase: PhaseOffChain, OnChain: out.OnChain, Err: err}
	}
	out.Response = resp
	log.WithField("transaction_id", resp.TransactionID).Info("entry recorded")
	return out, nil
}

func (r *Recorder) request(mode Mode, recipient, amount, desc string, income bool) (models.SubmissionRequest, error) {
	if r.submitter == nil {
		return nil, ErrNoSubmitter
	}
	switch mode {
	case Contract:
		if r.contract == "" {
			return nil, ErrNoContract
		}
		note := "to:" + recipient
		if desc != "" {
			note = desc + " | " + note
		}
		return models.ContractCall{
			ContractAddress: r.contract,
			Amount:          amount,
			IsIncome:        income,
			Category:        DefaultCategory,
			Note:            note,
		}, nil
	case Transfer:
		return models.ValueTransfer{Recipient: recipient, Amount: amount}, nil
	}
	return nil, errors.Errorf("unknown mode %d", mode)
}

// sign attaches a signature of sender|recipient|amount|desc|unixMillis. Failures leave the entry unsigned.
func (r *Recorder) sign(ctx context.Context, in *models.TransactionInput, log *logrus.Entry) {
	if r.signer == nil {
		log.Warn("signature requested without a wallet")
		return
	}
	msg := fmt.Sprintf("%s|%s|%s|%s|%d", in.Sender, in.Recipient, in.Amount, in.Desc, r.now().UnixMilli())
	sig, addr, err := r.signer.SignText(ctx, msg)
	if err != nil {
		log.WithError(err).Warn("wallet signature failed, recording unsigned")
		return
	}
	in.Signature = hexutil.Encode(sig)
	in.Message = msg
	in.Address = addr.Hex()
}

// normalizeAmount accepts a comma as decimal separator and requires a positive number.
func normalizeAmount(raw string) (string, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return "", errors.Wrapf(onchain.ErrInvalidAmount, "%q", raw)
	}
	return d.String(), nil
}
