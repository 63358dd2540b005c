package ledger

import (
	"context"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/models"
)

const transactionsPath = "/api/transactions"

// StoreError is a request the ledger store answered with ok=false or an error status.
type StoreError struct {
	Status  int
	Message string
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("ledger store: %s (status %d)", e.Message, e.Status)
	}
	return "ledger store: " + e.Message
}

// Client talks to the off-chain ledger store.
type Client struct {
	http     *resty.Client
	log      *logrus.Entry
	attempts uint
	delay    time.Duration
}

type ClientOption func(*Client)

// WithRetry sets how many times a snapshot fetch is attempted and the initial backoff.
func WithRetry(attempts uint, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithTimeout bounds every single request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(d)
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(15 * time.Second),
		log:      logrus.WithField("component", "ledger-client"),
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot fetches the whole ledger. The request has no side effects, so failures are retried.
func (c *Client) Snapshot(ctx context.Context) (models.LedgerSnapshot, error) {
	var snapshot models.LedgerSnapshot
	err := retry.Do(
		func() error {
			var out models.LedgerSnapshot
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&out).
				Get(transactionsPath)
			if err != nil {
				return err
			}
			if resp.IsError() {
				return &StoreError{Status: resp.StatusCode(), Message: resp.Status()}
			}
			snapshot = out
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.log.WithError(err).Warnf("snapshot attempt %d failed", n+1)
		}),
	)
	if err != nil {
		return models.LedgerSnapshot{}, errors.Wrap(err, "fetch ledger snapshot")
	}
	return snapshot, nil
}

// Record posts one transaction. It is sent exactly once.
func (c *Client) Record(ctx context.Context, in models.TransactionInput) (*models.TransactionResponse, error) {
	var out models.TransactionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(in).
		SetResult(&out).
		SetError(&out).
		Post(transactionsPath)
	if err != nil {
		return nil, errors.Wrap(err, "post transaction")
	}
	if resp.IsError() || !out.OK {
		msg := out.Error
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &StoreError{Status: resp.StatusCode(), Message: msg}
	}
	return &out, nil
}
