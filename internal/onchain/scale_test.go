package onchain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financechain/internal/ledger"
)

func TestScaleAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.345", "12345"},
		{"1", "1000"},
		{"0.0015", "2"},
		{"0.0004", "0"},
		{"2.0005", "2001"},
		{" 7 ", "7000"},
	}
	for _, tt := range tests {
		got, err := ScaleAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestScaleAmountRejects(t *testing.T) {
	for _, in := range []string{"-5", "0", "0.000", "", "abc", "1,5"} {
		_, err := ScaleAmount(in)
		assert.True(t, errors.Is(err, ErrInvalidAmount), in)
	}
}

func TestScaleRoundTrip(t *testing.T) {
	tolerance := decimal.RequireFromString("0.001")
	for _, in := range []string{"12.345", "0.001", "99.9999", "1000000", "3.14159", "0.5"} {
		scaled, err := ScaleAmount(in)
		require.NoError(t, err)
		back := decimal.RequireFromString(ledger.DisplayAmount(scaled.String()))
		diff := back.Sub(decimal.RequireFromString(in)).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "%s -> %s -> %s", in, scaled, back)
	}
	assert.Equal(t, "12.345", ledger.DisplayAmount("12345"))
}
