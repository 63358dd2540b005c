package onchain

import (
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// LogicalUnitScale is the number of on-chain integer units per logical ledger unit.
const LogicalUnitScale = 1000

var scale = decimal.NewFromInt(LogicalUnitScale)

// ScaleAmount converts a human decimal amount to the contract's integer unit,
// multiplying by 1000 and rounding half away from zero.
// Amounts below 0.0005 are positive but scale to zero; they are accepted.
func ScaleAmount(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q", amount)
	}
	if !d.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidAmount, "%s", amount)
	}
	return d.Mul(scale).Round(0).BigInt(), nil
}
