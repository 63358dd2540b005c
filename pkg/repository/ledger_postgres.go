package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"financechain/models"
)

// ledgerLockKey serializes block index allocation across server instances.
const ledgerLockKey = 0x4c454447

type LedgerPostgres struct {
	db *sqlx.DB
}

func NewLedgerPostgres(db *sqlx.DB) *LedgerPostgres {
	return &LedgerPostgres{db: db}
}

type txRow struct {
	ID            string         `db:"id"`
	Sender        string         `db:"sender"`
	Recipient     string         `db:"recipient"`
	Amount        string         `db:"amount"`
	Description   string         `db:"description"`
	Timestamp     float64        `db:"timestamp"`
	Hash          string         `db:"hash"`
	OnChain       sql.NullString `db:"onchain"`
	Status        string         `db:"status"`
	WalletAddress string         `db:"wallet_address"`
	Signature     string         `db:"signature"`
	SignedMessage string         `db:"signed_message"`
	Mined         bool           `db:"mined"`
	BlockID       sql.NullString `db:"block_id"`
	Position      int            `db:"position"`
}

type blockRow struct {
	ID        string  `db:"id"`
	Index     int     `db:"idx"`
	Timestamp float64 `db:"timestamp"`
	Label     string  `db:"label"`
}

const txColumns = `id, sender, recipient, amount, description, timestamp, hash, onchain, status,
	wallet_address, signature, signed_message, mined, block_id, position`

func newTxRow(tx models.LedgerTransaction) (txRow, error) {
	row := txRow{
		ID:            tx.ID,
		Sender:        tx.Sender,
		Recipient:     tx.Recipient,
		Amount:        tx.Amount.String(),
		Description:   tx.Description,
		Timestamp:     tx.Timestamp,
		Hash:          tx.Hash,
		Status:        string(tx.Status),
		WalletAddress: tx.WalletAddress,
		Signature:     tx.Signature,
		SignedMessage: tx.SignedMessage,
		Mined:         tx.Mined,
		BlockID:       sql.NullString{String: tx.BlockID, Valid: tx.BlockID != ""},
	}
	if tx.OnChain != nil {
		raw, err := json.Marshal(tx.OnChain)
		if err != nil {
			return txRow{}, errors.Wrap(err, "encode onchain")
		}
		row.OnChain = sql.NullString{String: string(raw), Valid: true}
	}
	return row, nil
}

func (r txRow) model() (models.LedgerTransaction, error) {
	tx := models.LedgerTransaction{
		ID:            r.ID,
		Sender:        r.Sender,
		Recipient:     r.Recipient,
		Amount:        models.Amount(r.Amount),
		Description:   r.Description,
		Timestamp:     r.Timestamp,
		Hash:          r.Hash,
		Status:        models.TxStatus(r.Status),
		WalletAddress: r.WalletAddress,
		Signature:     r.Signature,
		SignedMessage: r.SignedMessage,
		Mined:         r.Mined,
		BlockID:       r.BlockID.String,
	}
	if r.OnChain.Valid {
		tx.OnChain = new(models.SubmissionResult)
		if err := json.Unmarshal([]byte(r.OnChain.String), tx.OnChain); err != nil {
			return tx, errors.Wrapf(err, "decode onchain of %s", r.ID)
		}
	}
	return tx, nil
}

func (p *LedgerPostgres) MineTransaction(ctx context.Context, tx models.LedgerTransaction, label LabelFunc) (models.LedgerTransaction, models.Block, error) {
	var (
		block models.Block
		saved models.LedgerTransaction
	)
	err := inTx(ctx, p.db, func(dbtx *sqlx.Tx) error {
		var err error
		saved, block, err = mineInTx(ctx, dbtx, tx, label)
		return err
	})
	return saved, block, err
}

// mineInTx seals tx alone in the next block inside dbtx.
func mineInTx(ctx context.Context, dbtx *sqlx.Tx, tx models.LedgerTransaction, label LabelFunc) (models.LedgerTransaction, models.Block, error) {
	index, err := lockedBlockCount(ctx, dbtx)
	if err != nil {
		return models.LedgerTransaction{}, models.Block{}, err
	}
	block := models.Block{ID: uuid.NewString(), Index: index, Timestamp: tx.Timestamp}
	if label != nil {
		block.Label = label(index)
	}
	if err := insertBlock(ctx, dbtx, block); err != nil {
		return models.LedgerTransaction{}, models.Block{}, err
	}

	tx.ID = uuid.NewString()
	tx.Mined = true
	tx.BlockID = block.ID
	if err := insertTransaction(ctx, dbtx, tx, 0); err != nil {
		return models.LedgerTransaction{}, models.Block{}, err
	}
	block.Transactions = []models.LedgerTransaction{tx}
	return tx, block, nil
}

func (p *LedgerPostgres) SeedGenesis(ctx context.Context, txs []models.LedgerTransaction) (models.Block, error) {
	var block models.Block
	err := inTx(ctx, p.db, func(dbtx *sqlx.Tx) error {
		count, err := lockedBlockCount(ctx, dbtx)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadySeeded
		}
		block = models.Block{ID: uuid.NewString(), Index: 0}
		if len(txs) > 0 {
			block.Timestamp = txs[0].Timestamp
		}
		if err := insertBlock(ctx, dbtx, block); err != nil {
			return err
		}
		for i, tx := range txs {
			tx.ID = uuid.NewString()
			tx.Mined = true
			tx.BlockID = block.ID
			if err := insertTransaction(ctx, dbtx, tx, i); err != nil {
				return err
			}
			block.Transactions = append(block.Transactions, tx)
		}
		return nil
	})
	return block, err
}

func (p *LedgerPostgres) PendingTransactions(ctx context.Context) ([]models.LedgerTransaction, error) {
	var rows []txRow
	query := `SELECT ` + txColumns + ` FROM transactions WHERE NOT mined ORDER BY timestamp DESC`
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make([]models.LedgerTransaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (p *LedgerPostgres) Blocks(ctx context.Context) ([]models.Block, error) {
	var blocks []blockRow
	if err := p.db.SelectContext(ctx, &blocks, `SELECT id, idx, timestamp, label FROM blocks ORDER BY idx`); err != nil {
		return nil, err
	}
	var rows []txRow
	query := `SELECT ` + txColumns + ` FROM transactions WHERE mined ORDER BY position`
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	byBlock := make(map[string][]models.LedgerTransaction, len(blocks))
	for _, row := range rows {
		tx, err := row.model()
		if err != nil {
			return nil, err
		}
		byBlock[tx.BlockID] = append(byBlock[tx.BlockID], tx)
	}

	out := make([]models.Block, 0, len(blocks))
	for _, b := range blocks {
		txs := byBlock[b.ID]
		if txs == nil {
			txs = []models.LedgerTransaction{}
		}
		out = append(out, models.Block{ID: b.ID, Index: b.Index, Timestamp: b.Timestamp, Label: b.Label, Transactions: txs})
	}
	return out, nil
}

func (p *LedgerPostgres) BlockCount(ctx context.Context) (int, error) {
	var n int
	err := p.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM blocks`)
	return n, err
}

func lockedBlockCount(ctx context.Context, dbtx *sqlx.Tx) (int, error) {
	if _, err := dbtx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return 0, errors.Wrap(err, "lock ledger")
	}
	var n int
	if err := dbtx.GetContext(ctx, &n, `SELECT COUNT(*) FROM blocks`); err != nil {
		return 0, err
	}
	return n, nil
}

func inTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	dbtx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(dbtx); err != nil {
		_ = dbtx.Rollback()
		return err
	}
	return dbtx.Commit()
}

func insertBlock(ctx context.Context, dbtx *sqlx.Tx, b models.Block) error {
	_, err := dbtx.ExecContext(ctx,
		`INSERT INTO blocks (id, idx, timestamp, label) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Index, b.Timestamp, b.Label)
	return errors.Wrap(err, "insert block")
}

func insertTransaction(ctx context.Context, dbtx *sqlx.Tx, tx models.LedgerTransaction, position int) error {
	row, err := newTxRow(tx)
	if err != nil {
		return err
	}
	row.Position = position
	_, err = dbtx.NamedExecContext(ctx, `INSERT INTO transactions (`+txColumns+`)
		VALUES (:id, :sender, :recipient, :amount, :description, :timestamp, :hash, :onchain, :status,
			:wallet_address, :signature, :signed_message, :mined, :block_id, :position)`, row)
	return errors.Wrap(err, "insert transaction")
}
