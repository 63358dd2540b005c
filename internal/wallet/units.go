package wallet

import (
	"context"
	"math/big"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimals of one ether in wei.
const NativeDecimals = 18

var weiPerEther = new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(NativeDecimals), nil))

// ParseToNativeUnits converts a human ether amount to wei.
// The decimal parser handles plain and exponent notation, the rational parser handles fractions like "1/4".
func ParseToNativeUnits(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	return firstOf(context.Background(), ErrAmountParse,
		func(context.Context) (*big.Int, error) { return parseDecimal(amount) },
		func(context.Context) (*big.Int, error) { return parseRational(amount) },
	)
}

func parseDecimal(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	wei := d.Shift(NativeDecimals)
	if !wei.IsInteger() {
		return nil, errors.Errorf("%s has more than %d decimals", amount, NativeDecimals)
	}
	return wei.BigInt(), nil
}

func parseRational(amount string) (*big.Int, error) {
	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, errors.Errorf("%q is not a number", amount)
	}
	wei := new(big.Rat).Mul(r, weiPerEther)
	if !wei.IsInt() {
		return nil, errors.Errorf("%s has more than %d decimals", amount, NativeDecimals)
	}
	return new(big.Int).Set(wei.Num()), nil
}

// FormatNativeUnits renders wei as ether without trailing zeros.
func FormatNativeUnits(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -NativeDecimals).String()
}
