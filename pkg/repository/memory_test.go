package repository

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financechain/models"
)

func TestMemoryMineTransaction(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := t.Context()

	label := func(i int) string { return fmt.Sprintf("block #%d", i) }
	for i := 0; i < 3; i++ {
		tx, block, err := repo.MineTransaction(ctx, models.LedgerTransaction{
			Sender: "alice", Recipient: "bob", Amount: "1", Timestamp: float64(i),
		}, label)
		require.NoError(t, err)
		assert.Equal(t, i, block.Index)
		assert.Equal(t, fmt.Sprintf("block #%d", i), block.Label)
		assert.True(t, tx.Mined)
		assert.Equal(t, block.ID, tx.BlockID)
		assert.NotEmpty(t, tx.ID)
		require.Len(t, block.Transactions, 1)
	}

	n, err := repo.BlockCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	blocks, err := repo.Blocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		assert.Equal(t, i, b.Index)
	}

	pending, err := repo.PendingTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemorySeedGenesis(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := t.Context()

	block, err := repo.SeedGenesis(ctx, []models.LedgerTransaction{
		{Sender: "alice", Recipient: "bob", Amount: "10", Timestamp: 5},
		{Sender: "carol", Recipient: "dave", Amount: "7", Timestamp: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, block.Index)
	assert.Equal(t, float64(5), block.Timestamp)
	require.Len(t, block.Transactions, 2)
	assert.Equal(t, "carol", block.Transactions[1].Sender)

	_, err = repo.SeedGenesis(ctx, nil)
	assert.ErrorIs(t, err, ErrAlreadySeeded)
}

func TestMemoryBlocksAreCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := t.Context()

	_, _, err := repo.MineTransaction(ctx, models.LedgerTransaction{Sender: "a", Recipient: "b", Amount: "1"}, nil)
	require.NoError(t, err)

	blocks, err := repo.Blocks(ctx)
	require.NoError(t, err)
	blocks[0].Transactions[0].Sender = "mallory"

	again, err := repo.Blocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Transactions[0].Sender)
}

func TestMemoryPayments(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := t.Context()

	_, err := repo.Payment(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, _, err = repo.SettlePayment(ctx, "missing", models.LedgerTransaction{}, nil, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := repo.CreatePayment(ctx, models.Payment{Payer: "alice", Payee: "bob", Amount: "3", Status: models.PaymentPending, CreatedAt: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, err = repo.CreatePayment(ctx, models.Payment{Payer: "carol", Payee: "dave", Amount: "4", Status: models.PaymentPending, CreatedAt: 1})
	require.NoError(t, err)

	all, err := repo.Payments.Payments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "carol", all[0].Payer)

	confirmed, tx, block, err := repo.SettlePayment(ctx, first.ID,
		models.LedgerTransaction{Sender: "alice", Recipient: "bob", Amount: "3", Timestamp: 9}, nil, 9)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.TransactionID)
	assert.Equal(t, tx.ID, *confirmed.TransactionID)
	require.NotNil(t, confirmed.BlockID)
	assert.Equal(t, block.ID, *confirmed.BlockID)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, float64(9), *confirmed.ConfirmedAt)
	assert.Equal(t, 0, block.Index)

	got, err := repo.Payment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmed, got)

	_, _, _, err = repo.SettlePayment(ctx, first.ID, models.LedgerTransaction{Sender: "alice", Recipient: "bob", Amount: "3"}, nil, 10)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	n, err := repo.BlockCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemorySettlePaymentOnce(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := t.Context()

	p, err := repo.CreatePayment(ctx, models.Payment{Payer: "alice", Payee: "bob", Amount: "3", Status: models.PaymentPending})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		settled atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _, err := repo.SettlePayment(ctx, p.ID, models.LedgerTransaction{Sender: "alice", Recipient: "bob", Amount: "3"}, nil, 1)
			if err == nil {
				settled.Add(1)
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyConfirmed)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), settled.Load())
	n, err := repo.BlockCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
