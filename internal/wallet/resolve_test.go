package wallet

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestFailure = errors.New("test failure")

func TestFirstOfReturnsFirstSuccess(t *testing.T) {
	var tried []int
	v, err := firstOf(context.Background(), errTestFailure,
		func(context.Context) (int, error) { tried = append(tried, 1); return 0, errSkip },
		func(context.Context) (int, error) { tried = append(tried, 2); return 42, nil },
		func(context.Context) (int, error) { tried = append(tried, 3); return 7, nil },
	)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []int{1, 2}, tried)
}

func TestFirstOfWrapsFailure(t *testing.T) {
	_, err := firstOf(context.Background(), errTestFailure,
		func(context.Context) (string, error) { return "", errors.New("boom") },
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errTestFailure))
	assert.Contains(t, err.Error(), "boom")

	_, err = firstOf[string](context.Background(), errTestFailure)
	assert.Equal(t, errTestFailure, err)
}

func TestFirstOfStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := firstOf(ctx, errTestFailure, func(context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
