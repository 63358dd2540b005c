package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financechain/internal/ledger"
	"financechain/internal/recorder"
	"financechain/models"
)

func TestParseMode(t *testing.T) {
	tests := map[string]recorder.Mode{
		"":          recorder.OffChain,
		"off-chain": recorder.OffChain,
		"contract":  recorder.Contract,
		"transfer":  recorder.Transfer,
	}
	for in, want := range tests {
		got, err := parseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseMode("bridge")
	assert.Error(t, err)
}

func TestRenderView(t *testing.T) {
	const me = "0x1111111111111111111111111111111111111111"
	chainID := "11155111"
	snapshot := models.LedgerSnapshot{
		Current: []models.LedgerTransaction{},
		Chain: []models.Block{
			{Index: 0, Label: "genesis", Timestamp: 1700000000, Transactions: []models.LedgerTransaction{
				{Sender: "alice", Recipient: me, Amount: "10"},
			}},
			{Index: 1, Label: "me → shop (Block #1)", Timestamp: 1700000100, Transactions: []models.LedgerTransaction{
				{
					Sender: me, Recipient: "0x2222222222222222222222222222222222222222", Amount: "2.5",
					Hash:    "0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789",
					Status:  models.TxStatusConfirmed,
					OnChain: &models.SubmissionResult{ChainID: &chainID},
				},
			}},
		},
	}
	view := ledger.NewReconciler(nil).View(snapshot, me)

	var buf bytes.Buffer
	renderView(&buf, view)
	out := buf.String()

	assert.Contains(t, out, "Transactions:")
	assert.Contains(t, out, "genesis")
	assert.Contains(t, out, "me → shop (Block #1)")
	assert.Contains(t, out, "0x111111...111111")
	assert.Contains(t, out, "https://sepolia.etherscan.io/tx/0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789")
	assert.Contains(t, out, "confirmed")
	assert.Contains(t, out, "sent")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("me → shop")), bytes.Index(buf.Bytes(), []byte("genesis")))
}

func TestRenderEmptyView(t *testing.T) {
	var buf bytes.Buffer
	renderView(&buf, ledger.NewReconciler(nil).View(models.LedgerSnapshot{}, ""))
	assert.Contains(t, buf.String(), "(empty chain)")
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, []models.ChainEntry{
		{Amount: "12.5", Income: true, Category: "general", Note: "salary | to:0xabc", Timestamp: 1700000000},
		{Amount: "3", Category: "general", Note: "coffee"},
	})
	out := buf.String()

	assert.Contains(t, out, "income")
	assert.Contains(t, out, "expense")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "salary | to:0xabc")
	assert.Contains(t, out, "2023-11-14 22:13:20")

	buf.Reset()
	renderHistory(&buf, nil)
	assert.Contains(t, buf.String(), "No on-chain records.")
}
