package onchain

import (
	"strings"

	"github.com/pkg/errors"

	"financechain/internal/wallet"
)

var (
	// ErrInvalidAmount means the amount is not a positive number. Nothing was sent.
	ErrInvalidAmount = errors.New("amount must be a positive number")
	// ErrUserRejected means the user declined the request in the wallet. It is not a failure.
	ErrUserRejected = errors.New("request rejected by user")
	// ErrInvalidRequest means the submission request itself is malformed.
	ErrInvalidRequest = errors.New("invalid submission request")
)

// rejectionCode is the EIP-1193 "user rejected request" error code.
const rejectionCode = 4001

var rejectionPhrases = []string{"user denied", "user rejected", "action_rejected", "request denied"}

// SubmissionError is any network, node or contract failure during a submission.
// Resubmitting is allowed.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return "submission failed: " + e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// IsRejection reports whether err is a wallet's "user rejected" answer.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	var coded interface{ ErrorCode() int }
	if errors.As(err, &coded) && coded.ErrorCode() == rejectionCode {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range rejectionPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// translate maps provider and network failures onto the submission error taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wallet.ErrNoProvider),
		errors.Is(err, wallet.ErrIncompatibleProvider),
		errors.Is(err, wallet.ErrAmountParse),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrUserRejected):
		return err
	case IsRejection(err):
		return errors.Wrap(ErrUserRejected, err.Error())
	default:
		return &SubmissionError{Message: err.Error(), Err: err}
	}
}
