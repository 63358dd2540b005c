package wallet

import (
	"context"

	"github.com/pkg/errors"
)

// strategy is one way of resolving a value. A strategy that does not apply returns an error.
type strategy[T any] func(ctx context.Context) (T, error)

// firstOf runs strategies in order and returns the first success.
// When all of them fail the returned error wraps failure, so errors.Is(err, failure) holds.
func firstOf[T any](ctx context.Context, failure error, strategies ...strategy[T]) (T, error) {
	var (
		zero T
		last error
	)
	for _, try := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		v, err := try(ctx)
		if err == nil {
			return v, nil
		}
		last = err
	}
	if last == nil {
		return zero, failure
	}
	return zero, errors.Wrapf(failure, "%d strategies failed, last: %v", len(strategies), last)
}

// errSkip marks a strategy that does not apply to the current agent or provider.
var errSkip = errors.New("strategy not applicable")
