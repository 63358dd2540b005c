package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"financechain/models"
)

type PaymentPostgres struct {
	db *sqlx.DB
}

func NewPaymentPostgres(db *sqlx.DB) *PaymentPostgres {
	return &PaymentPostgres{db: db}
}

const paymentColumns = `id, payer, payee, amount, currency, status, transaction_id, block_id, created_at, confirmed_at`

func (r *PaymentPostgres) CreatePayment(ctx context.Context, p models.Payment) (models.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :payer, :payee, :amount, :currency, :status, :transaction_id, :block_id, :created_at, :confirmed_at)`, p)
	if err != nil {
		return models.Payment{}, errors.Wrap(err, "insert payment")
	}
	return p, nil
}

func (r *PaymentPostgres) Payments(ctx context.Context) ([]models.Payment, error) {
	out := []models.Payment{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at`)
	return out, err
}

func (r *PaymentPostgres) Payment(ctx context.Context, id string) (models.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Payment{}, ErrNotFound
	}
	var p models.Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, ErrNotFound
	}
	return p, err
}

func (r *PaymentPostgres) SettlePayment(ctx context.Context, id string, tx models.LedgerTransaction, label LabelFunc, at float64) (models.Payment, models.LedgerTransaction, models.Block, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Payment{}, models.LedgerTransaction{}, models.Block{}, ErrNotFound
	}
	var (
		p     models.Payment
		saved models.LedgerTransaction
		block models.Block
	)
	err := inTx(ctx, r.db, func(dbtx *sqlx.Tx) error {
		var status string
		err := dbtx.GetContext(ctx, &status, `SELECT status FROM payments WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "lock payment")
		}
		if status != models.PaymentPending {
			return ErrAlreadyConfirmed
		}

		if saved, block, err = mineInTx(ctx, dbtx, tx, label); err != nil {
			return err
		}
		err = dbtx.GetContext(ctx, &p, `UPDATE payments
			SET status = $2, transaction_id = $3, block_id = $4, confirmed_at = $5
			WHERE id = $1
			RETURNING `+paymentColumns,
			id, models.PaymentConfirmed, saved.ID, block.ID, at)
		return errors.Wrap(err, "confirm payment")
	})
	if err != nil {
		return models.Payment{}, models.LedgerTransaction{}, models.Block{}, err
	}
	return p, saved, block, nil
}
