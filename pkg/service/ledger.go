package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/internal/wallet"
	"financechain/models"
	"financechain/pkg/repository"
)

const snapshotKey = "ledger:snapshot"

type LedgerService struct {
	repo repository.Ledger
	deps Deps
	log  *logrus.Entry
	// generation moves on every write; a snapshot read across a write is not cached.
	generation atomic.Uint64
}

func NewLedgerService(repo repository.Ledger, deps Deps) *LedgerService {
	return &LedgerService{
		repo: repo,
		deps: deps.withDefaults(),
		log:  logrus.WithField("component", "ledger"),
	}
}

// Snapshot serves the cached ledger only while its chain length still matches the store,
// so blocks mined by another instance sharing the cache are never hidden.
func (s *LedgerService) Snapshot(ctx context.Context) (models.LedgerSnapshot, error) {
	if snap, ok := s.cachedSnapshot(ctx); ok {
		return snap, nil
	}

	generation := s.generation.Load()
	pending, err := s.repo.PendingTransactions(ctx)
	if err != nil {
		return models.LedgerSnapshot{}, errors.Wrap(err, "load pending transactions")
	}
	blocks, err := s.repo.Blocks(ctx)
	if err != nil {
		return models.LedgerSnapshot{}, errors.Wrap(err, "load blocks")
	}
	snap := models.LedgerSnapshot{Current: pending, Chain: blocks}

	if s.generation.Load() != generation {
		return snap, nil
	}
	if raw, err := json.Marshal(snap); err == nil {
		s.deps.Cache.Set(ctx, snapshotKey, raw)
	}
	return snap, nil
}

func (s *LedgerService) cachedSnapshot(ctx context.Context) (models.LedgerSnapshot, bool) {
	raw, ok := s.deps.Cache.Get(ctx, snapshotKey)
	if !ok {
		return models.LedgerSnapshot{}, false
	}
	var snap models.LedgerSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.deps.Cache.Delete(ctx, snapshotKey)
		return models.LedgerSnapshot{}, false
	}
	count, err := s.repo.BlockCount(ctx)
	if err != nil || count != len(snap.Chain) {
		s.deps.Cache.Delete(ctx, snapshotKey)
		return models.LedgerSnapshot{}, false
	}
	return snap, true
}

func (s *LedgerService) AddTransaction(ctx context.Context, in models.TransactionInput) (models.LedgerTransaction, models.Block, error) {
	if !in.Complete() {
		return models.LedgerTransaction{}, models.Block{}, ErrMissingFields
	}

	tx := models.LedgerTransaction{
		Sender:      in.Sender,
		Recipient:   in.Recipient,
		Amount:      in.Amount,
		Description: in.Desc,
		Timestamp:   unixSeconds(s.deps.Now()),
		Hash:        in.TxHash,
		OnChain:     in.TxMeta,
		Status:      statusOf(in.TxMeta),
	}

	if in.WalletSignature.Present() {
		if err := verifySignature(in.WalletSignature); err != nil {
			s.deps.Metrics.RecordSignatureRejected()
			s.log.WithError(err).WithField("address", in.Address).Warn("wallet signature refused")
			return models.LedgerTransaction{}, models.Block{}, err
		}
		tx.WalletAddress = in.Address
		tx.Signature = in.Signature
		tx.SignedMessage = in.Message
	}

	return s.mine(ctx, tx, "transaction")
}

// mine seals tx alone in the next block and announces it.
func (s *LedgerService) mine(ctx context.Context, tx models.LedgerTransaction, origin string) (models.LedgerTransaction, models.Block, error) {
	saved, block, err := s.repo.MineTransaction(ctx, tx, blockLabel(tx))
	if err != nil {
		return models.LedgerTransaction{}, models.Block{}, errors.Wrap(err, "mine transaction")
	}
	s.announce(ctx, saved, block, origin)
	return saved, block, nil
}

// announce runs after a block is stored: it drops the cached snapshot, counts and publishes the block.
func (s *LedgerService) announce(ctx context.Context, saved models.LedgerTransaction, block models.Block, origin string) {
	s.invalidate(ctx)
	s.deps.Metrics.RecordBlockMined(origin)

	s.log.WithFields(logrus.Fields{
		"transaction_id": saved.ID,
		"block_id":       block.ID,
		"index":          block.Index,
	}).Infof("mined block %q", block.Label)

	err := s.deps.Publisher.PublishBlock(ctx, block)
	s.deps.Metrics.RecordEventPublished(err)
	if err != nil {
		s.log.WithError(err).Warn("block event not published")
	}
}

func (s *LedgerService) invalidate(ctx context.Context) {
	s.generation.Add(1)
	s.deps.Cache.Delete(ctx, snapshotKey)
}

func blockLabel(tx models.LedgerTransaction) repository.LabelFunc {
	return func(index int) string {
		return fmt.Sprintf("%s → %s (Block #%d)", tx.Sender, tx.Recipient, index)
	}
}

// signatureError is ErrSignatureInvalid carrying the reason recovery failed.
type signatureError struct {
	cause error
}

func (e *signatureError) Error() string {
	return ErrSignatureInvalid.Error() + ": " + e.cause.Error()
}

func (e *signatureError) Is(target error) bool { return target == ErrSignatureInvalid }

func (e *signatureError) Cause() error { return e.cause }

func (e *signatureError) Unwrap() error { return e.cause }

// verifySignature checks that sig.Message was signed by sig.Address.
func verifySignature(sig models.WalletSignature) error {
	signer, err := wallet.RecoverTextSigner(sig.Message, sig.Signature)
	if err != nil {
		return &signatureError{cause: err}
	}
	if !strings.EqualFold(signer.Hex(), sig.Address) {
		return ErrSignatureMismatch
	}
	return nil
}

func statusOf(meta *models.SubmissionResult) models.TxStatus {
	if meta == nil || meta.Status == nil {
		return models.TxStatusSent
	}
	if *meta.Status == 1 {
		return models.TxStatusConfirmed
	}
	return models.TxStatusFailed
}
