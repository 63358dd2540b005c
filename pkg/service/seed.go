package service

import (
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"financechain/models"
	"financechain/pkg/repository"
)

// SeedOptions chooses the genesis data. Sample wins over File.
type SeedOptions struct {
	File   string
	Sample bool
}

type seedEntry struct {
	Sender    string        `json:"sender"`
	Recipient string        `json:"recipient"`
	Amount    models.Amount `json:"amount"`

	// Legacy personal finance records.
	Owner    string `json:"owner"`
	Category string `json:"category"`
	IsIncome bool   `json:"isIncome"`
}

var sampleSeed = []seedEntry{
	{Sender: "alice", Recipient: "bob", Amount: "10"},
	{Sender: "carol", Recipient: "dave", Amount: "7"},
}

func (s *LedgerService) Seed(ctx context.Context, opts SeedOptions) (int, error) {
	count, err := s.repo.BlockCount(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "count blocks")
	}
	if count > 0 {
		s.log.Infof("ledger already has %d blocks, skipping seed", count)
		return 0, nil
	}

	var entries []seedEntry
	switch {
	case opts.Sample:
		entries = sampleSeed
	case opts.File != "":
		data, err := os.ReadFile(opts.File)
		if os.IsNotExist(err) {
			s.log.Infof("no seed file at %s, starting with an empty chain", opts.File)
			return 0, nil
		}
		if err != nil {
			return 0, errors.Wrap(err, "read seed file")
		}
		if entries, err = parseSeed(data); err != nil {
			return 0, errors.Wrapf(err, "parse seed file %s", opts.File)
		}
	}

	now := unixSeconds(s.deps.Now())
	txs := make([]models.LedgerTransaction, 0, len(entries))
	for _, e := range entries {
		tx, ok := e.transaction()
		if !ok {
			continue
		}
		tx.Timestamp = now
		txs = append(txs, tx)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	if _, err := s.repo.SeedGenesis(ctx, txs); err != nil {
		if errors.Is(err, repository.ErrAlreadySeeded) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "seed genesis block")
	}
	s.invalidate(ctx)
	s.log.Infof("seeded genesis block with %d transactions", len(txs))
	return len(txs), nil
}

// parseSeed accepts a bare array or an object with a transactions array.
func parseSeed(data []byte) ([]seedEntry, error) {
	var entries []seedEntry
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		err := json.Unmarshal(data, &entries)
		return entries, err
	}
	var doc struct {
		Transactions []seedEntry `json:"transactions"`
	}
	err := json.Unmarshal(data, &doc)
	return doc.Transactions, err
}

func (e seedEntry) transaction() (models.LedgerTransaction, bool) {
	switch {
	case e.Sender != "" && e.Recipient != "":
		return models.LedgerTransaction{Sender: e.Sender, Recipient: e.Recipient, Amount: e.Amount}, true
	case e.Owner != "":
		category := e.Category
		if category == "" {
			category = "unknown"
		}
		if e.IsIncome {
			return models.LedgerTransaction{Sender: category, Recipient: e.Owner, Amount: e.Amount}, true
		}
		return models.LedgerTransaction{Sender: e.Owner, Recipient: category, Amount: e.Amount}, true
	}
	return models.LedgerTransaction{}, false
}
