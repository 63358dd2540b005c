package wallet

import "github.com/pkg/errors"

var (
	// ErrNoProvider means no signing agent was configured. The user has to install or enable a wallet.
	ErrNoProvider = errors.New("no wallet provider found")
	// ErrIncompatibleProvider means the agent or the chain library has a shape the shim does not know.
	ErrIncompatibleProvider = errors.New("no compatible wallet provider found")
	// ErrAmountParse means no parser could turn the amount into native units.
	ErrAmountParse = errors.New("cannot parse amount to native units")
	// ErrLibraryUnavailable means every chain endpoint failed to load.
	ErrLibraryUnavailable = errors.New("chain library unavailable")
)

// ErrNoAccount means the provider is present but exposes no usable account.
var ErrNoAccount = errors.New("wallet exposes no account")
