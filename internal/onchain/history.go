package onchain

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"financechain/internal/ledger"
	"financechain/models"
)

// History lists the connected account's records stored in the finance contract.
// Amounts come back in the logical unit.
func (s *Submitter) History(ctx context.Context, contractAddress common.Address) ([]models.ChainEntry, error) {
	contract, err := s.wallet.ContractFor(ctx, contractAddress, FinanceABI)
	if err != nil {
		return nil, err
	}
	out, err := contract.Call(ctx, "getMyTransactions")
	if err != nil {
		return nil, translate(err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	records, ok := abi.ConvertType(out[0], new([]financeRecord)).(*[]financeRecord)
	if !ok {
		return nil, errors.Errorf("unexpected getMyTransactions output %T", out[0])
	}

	entries := make([]models.ChainEntry, 0, len(*records))
	for _, r := range *records {
		e := models.ChainEntry{
			Income:   r.Income,
			Category: r.Category,
			Note:     r.Note,
		}
		if r.Amount != nil {
			e.Amount = ledger.DisplayAmount(r.Amount.String())
		}
		if r.Timestamp != nil && r.Timestamp.IsInt64() {
			e.Timestamp = r.Timestamp.Int64()
		}
		entries = append(entries, e)
	}
	return entries, nil
}
