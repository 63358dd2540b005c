package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"financechain/models"
)

// memoryStore keeps the ledger and payments in process memory.
// It backs the server when no database is configured and the handler tests.
type memoryStore struct {
	mu       sync.RWMutex
	blocks   []models.Block
	payments map[string]models.Payment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{payments: make(map[string]models.Payment)}
}

func (m *memoryStore) MineTransaction(_ context.Context, tx models.LedgerTransaction, label LabelFunc) (models.LedgerTransaction, models.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, block := m.mineLocked(tx, label)
	return tx, block, nil
}

// mineLocked appends a block holding tx. m.mu must be held for writing.
func (m *memoryStore) mineLocked(tx models.LedgerTransaction, label LabelFunc) (models.LedgerTransaction, models.Block) {
	index := len(m.blocks)
	block := models.Block{ID: uuid.NewString(), Index: index, Timestamp: tx.Timestamp}
	if label != nil {
		block.Label = label(index)
	}
	tx.ID = uuid.NewString()
	tx.Mined = true
	tx.BlockID = block.ID
	block.Transactions = []models.LedgerTransaction{tx}
	m.blocks = append(m.blocks, block)
	return tx, copyBlock(block)
}

func (m *memoryStore) SeedGenesis(_ context.Context, txs []models.LedgerTransaction) (models.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.blocks) > 0 {
		return models.Block{}, ErrAlreadySeeded
	}
	block := models.Block{ID: uuid.NewString(), Index: 0, Transactions: []models.LedgerTransaction{}}
	if len(txs) > 0 {
		block.Timestamp = txs[0].Timestamp
	}
	for _, tx := range txs {
		tx.ID = uuid.NewString()
		tx.Mined = true
		tx.BlockID = block.ID
		block.Transactions = append(block.Transactions, tx)
	}
	m.blocks = append(m.blocks, block)
	return copyBlock(block), nil
}

// PendingTransactions is always empty: every transaction is sealed in its own block as it is stored.
func (m *memoryStore) PendingTransactions(context.Context) ([]models.LedgerTransaction, error) {
	return []models.LedgerTransaction{}, nil
}

func (m *memoryStore) Blocks(context.Context) ([]models.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Block, 0, len(m.blocks))
	for _, b := range m.blocks {
		out = append(out, copyBlock(b))
	}
	return out, nil
}

func (m *memoryStore) BlockCount(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks), nil
}

func (m *memoryStore) CreatePayment(_ context.Context, p models.Payment) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	m.payments[p.ID] = p
	return p, nil
}

func (m *memoryStore) Payments(context.Context) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) Payment(_ context.Context, id string) (models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.payments[id]
	if !ok {
		return models.Payment{}, ErrNotFound
	}
	return p, nil
}

func (m *memoryStore) SettlePayment(_ context.Context, id string, tx models.LedgerTransaction, label LabelFunc, at float64) (models.Payment, models.LedgerTransaction, models.Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return models.Payment{}, models.LedgerTransaction{}, models.Block{}, ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return models.Payment{}, models.LedgerTransaction{}, models.Block{}, ErrAlreadyConfirmed
	}

	saved, block := m.mineLocked(tx, label)
	p.Status = models.PaymentConfirmed
	p.TransactionID = &saved.ID
	p.BlockID = &block.ID
	p.ConfirmedAt = &at
	m.payments[id] = p
	return p, saved, block, nil
}

func copyBlock(b models.Block) models.Block {
	b.Transactions = append([]models.LedgerTransaction{}, b.Transactions...)
	return b
}
