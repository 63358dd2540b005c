package recorder

import (
	"fmt"

	"github.com/pkg/errors"

	"financechain/internal/onchain"
	"financechain/models"
)

var (
	ErrMissingSender    = errors.New("sender is required")
	ErrMissingRecipient = errors.New("recipient is required")
	// ErrNoContract means a contract entry was requested but no finance contract is configured.
	ErrNoContract = errors.New("finance contract address not configured")
	// ErrNoSubmitter means an on-chain entry was requested without a wallet.
	ErrNoSubmitter = errors.New("on-chain recording not available")
)

type Phase string

const (
	PhaseOnChain  Phase = "on-chain"
	PhaseOffChain Phase = "off-chain"
)

// PhaseError tells which phase of a recording failed.
// When the off-chain phase fails after a successful on-chain phase, OnChain holds the settled transaction.
type PhaseError struct {
	Phase   Phase
	OnChain *models.SubmissionResult
	Err     error
}

func (e *PhaseError) Error() string {
	if e.Phase == PhaseOffChain && e.OnChain != nil {
		return fmt.Sprintf("on-chain transaction %s succeeded but saving it failed: %v", e.OnChain.TxHash, e.Err)
	}
	return fmt.Sprintf("%s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// Retryable reports whether submitting the whole entry again is safe.
// It is false once a transaction reached the chain, and for explicit user rejections.
func (e *PhaseError) Retryable() bool {
	switch e.Phase {
	case PhaseOnChain:
		return !errors.Is(e.Err, onchain.ErrUserRejected)
	case PhaseOffChain:
		return e.OnChain == nil
	}
	return false
}
