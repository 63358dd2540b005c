package wallet

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Backend is the part of a chain client the shim and the submitter use.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

var _ Backend = (*ethclient.Client)(nil)

// Loader opens a Backend for one endpoint.
type Loader func(ctx context.Context, url string) (Backend, error)

// DialEthereum is the default Loader.
func DialEthereum(ctx context.Context, url string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	// Dialing http endpoints never touches the network, so make sure the node answers.
	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Library is the process-wide chain client handle.
//
// The first Backend call loads it from the primary source, falling back to the
// remaining sources in order. Concurrent first callers share one in-flight load.
// The loaded handle is kept until Reset, which closes it; the next call loads again.
type Library struct {
	load    Loader
	sources []string
	log     *logrus.Entry

	group   singleflight.Group
	mu      sync.Mutex
	backend Backend
}

func NewLibrary(load Loader, primary string, fallbacks ...string) *Library {
	if load == nil {
		load = DialEthereum
	}
	sources := make([]string, 0, len(fallbacks)+1)
	for _, s := range append([]string{primary}, fallbacks...) {
		if s != "" {
			sources = append(sources, s)
		}
	}
	return &Library{
		load:    load,
		sources: sources,
		log:     logrus.WithField("component", "library"),
	}
}

// Backend returns the loaded chain client, loading it on first use.
// Concurrent callers share one load. It runs detached from any single caller's
// context; each caller stops waiting when its own ctx is done.
func (l *Library) Backend(ctx context.Context) (Backend, error) {
	if b := l.cached(); b != nil {
		return b, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan("backend", func() (interface{}, error) {
		if b := l.cached(); b != nil {
			return b, nil
		}
		b, err := l.open(loadCtx)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.backend = b
		l.mu.Unlock()
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Backend), nil
	}
}

// Reset closes the loaded handle, if any.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.backend != nil {
		l.backend.Close()
		l.backend = nil
	}
}

func (l *Library) cached() Backend {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backend
}

func (l *Library) open(ctx context.Context) (Backend, error) {
	strategies := make([]strategy[Backend], 0, len(l.sources))
	for _, src := range l.sources {
		src := src
		strategies = append(strategies, func(ctx context.Context) (Backend, error) {
			b, err := l.load(ctx, src)
			if err != nil {
				l.log.WithError(err).Warnf("chain source %s failed", src)
				return nil, errors.Wrapf(err, "load %s", src)
			}
			l.log.Infof("chain library loaded from %s", src)
			return b, nil
		})
	}
	return firstOf(ctx, ErrLibraryUnavailable, strategies...)
}
