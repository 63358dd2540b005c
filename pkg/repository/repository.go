package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"financechain/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadySeeded = errors.New("ledger already has blocks")
	// ErrAlreadyConfirmed is returned when settling a payment that is no longer pending.
	ErrAlreadyConfirmed = errors.New("already confirmed")
)

// LabelFunc names a block from its index.
type LabelFunc func(index int) string

type Ledger interface {
	// MineTransaction stores tx and seals it alone in the next block.
	MineTransaction(ctx context.Context, tx models.LedgerTransaction, label LabelFunc) (models.LedgerTransaction, models.Block, error)
	// SeedGenesis stores txs as block 0. It fails with ErrAlreadySeeded when any block exists.
	SeedGenesis(ctx context.Context, txs []models.LedgerTransaction) (models.Block, error)
	PendingTransactions(ctx context.Context) ([]models.LedgerTransaction, error)
	Blocks(ctx context.Context) ([]models.Block, error)
	BlockCount(ctx context.Context) (int, error)
}

type Payments interface {
	CreatePayment(ctx context.Context, p models.Payment) (models.Payment, error)
	Payments(ctx context.Context) ([]models.Payment, error)
	Payment(ctx context.Context, id string) (models.Payment, error)
	// SettlePayment mines tx into the next block and marks the pending payment confirmed, atomically.
	// A payment that is not pending fails with ErrAlreadyConfirmed and nothing is mined.
	SettlePayment(ctx context.Context, id string, tx models.LedgerTransaction, label LabelFunc, at float64) (models.Payment, models.LedgerTransaction, models.Block, error)
}

type Repository struct {
	Ledger
	Payments
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Ledger:   NewLedgerPostgres(db),
		Payments: NewPaymentPostgres(db),
	}
}

func NewMemoryRepository() *Repository {
	m := newMemoryStore()
	return &Repository{
		Ledger:   m,
		Payments: m,
	}
}
