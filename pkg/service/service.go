package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"financechain/models"
	"financechain/pkg/cache"
	"financechain/pkg/events"
	"financechain/pkg/metrics"
	"financechain/pkg/notify"
	"financechain/pkg/repository"
)

var (
	ErrMissingFields     = errors.New("missing fields")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrSignatureInvalid  = errors.New("signature verify failed")
	ErrAlreadyConfirmed  = repository.ErrAlreadyConfirmed
	ErrNotFound          = repository.ErrNotFound
)

const defaultSnapshotTTL = 5 * time.Second

type Ledger interface {
	// Snapshot returns the unmined transactions and every block in index order.
	Snapshot(ctx context.Context) (models.LedgerSnapshot, error)
	// AddTransaction verifies the optional wallet signature and mines the transaction into its own block.
	AddTransaction(ctx context.Context, in models.TransactionInput) (models.LedgerTransaction, models.Block, error)
	// Seed fills an empty ledger with a genesis block. It reports how many transactions were seeded.
	Seed(ctx context.Context, opts SeedOptions) (int, error)
}

type Payments interface {
	List(ctx context.Context) ([]models.Payment, error)
	Get(ctx context.Context, id string) (models.Payment, error)
	// Create stores the payment and confirms it at once with a mined block.
	Create(ctx context.Context, in models.PaymentInput) (PaymentReceipt, error)
	Confirm(ctx context.Context, id string) (PaymentReceipt, error)
}

// PaymentReceipt links a confirmed payment to the ledger transaction and block recording it.
type PaymentReceipt struct {
	Payment       models.Payment
	TransactionID string
	BlockID       string
}

type Service struct {
	Ledger
	Payments
}

// Deps are the collaborators of the services. Nil members get a working default.
type Deps struct {
	Cache     cache.Cache
	Publisher events.Publisher
	Notifier  notify.Notifier
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Cache == nil {
		d.Cache = cache.NewMemory(defaultSnapshotTTL)
	}
	if d.Publisher == nil {
		d.Publisher = events.Noop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Noop{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.NewMetrics(nil)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults()
	ledger := NewLedgerService(repos.Ledger, deps)
	return &Service{
		Ledger:   ledger,
		Payments: NewPaymentService(repos.Payments, ledger, deps),
	}
}

// unixSeconds is the ledger's timestamp format: fractional seconds since the epoch.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
