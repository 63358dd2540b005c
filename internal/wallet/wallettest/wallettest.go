// Package wallettest provides in-memory chain and agent doubles for tests.
package wallettest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is an in-memory chain. Every sent transaction is mined into its own block.
type Backend struct {
	mu sync.Mutex

	Chain *big.Int
	Head  uint64
	// Revert mines sent transactions with a failed status.
	Revert bool
	// ReceiptDelay is the number of receipt lookups that miss before a receipt appears.
	ReceiptDelay int
	SendErr      error
	CallResult   []byte
	CallErr      error

	Sent     []*types.Transaction
	Calls    []ethereum.CallMsg
	Closed   int
	receipts map[common.Hash]*types.Receipt
	misses   map[common.Hash]int
}

func NewBackend(chainID int64) *Backend {
	return &Backend{
		Chain:    big.NewInt(chainID),
		Head:     100,
		receipts: make(map[common.Hash]*types.Receipt),
		misses:   make(map[common.Hash]int),
	}
}

func (b *Backend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.Chain), nil
}

func (b *Backend) BlockNumber(context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Head, nil
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.Sent)), nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	if len(msg.Data) > 0 {
		return 90_000, nil
	}
	return 21_000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}
	b.Sent = append(b.Sent, tx)
	b.Head++
	status := types.ReceiptStatusSuccessful
	if b.Revert {
		status = types.ReceiptStatusFailed
	}
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: new(big.Int).SetUint64(b.Head),
	}
	return nil
}

// Mine adds a block without transactions.
func (b *Backend) Mine(n uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Head += n
}

func (b *Backend) TransactionByHash(_ context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, tx := range b.Sent {
		if tx.Hash() == hash {
			return tx, false, nil
		}
	}
	return nil, false, ethereum.NotFound
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	if b.misses[hash] < b.ReceiptDelay {
		b.misses[hash]++
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, msg)
	return b.CallResult, b.CallErr
}

func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed++
}

// Handler answers one JSON-RPC method.
type Handler func(args ...interface{}) (interface{}, error)

// Requester is a scripted EIP-1193 style agent.
type Requester struct {
	mu       sync.Mutex
	Handlers map[string]Handler
	Calls    []string
}

func NewRequester(handlers map[string]Handler) *Requester {
	return &Requester{Handlers: handlers}
}

func (r *Requester) CallContext(_ context.Context, result interface{}, method string, args ...interface{}) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, method)
	h, ok := r.Handlers[method]
	r.mu.Unlock()
	if !ok {
		return &RPCError{Code: -32601, Message: fmt.Sprintf("the method %s does not exist/is not available", method)}
	}
	v, err := h(args...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// Called reports how many times method was requested.
func (r *Requester) Called(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.Calls {
		if m == method {
			n++
		}
	}
	return n
}

// RPCError is a JSON-RPC error with a numeric code, like the ones wallets return.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string  { return e.Message }
func (e *RPCError) ErrorCode() int { return e.Code }

// Rejected is the error a wallet returns when the user declines a request.
func Rejected() error {
	return &RPCError{Code: 4001, Message: "MetaMask Tx Signature: User denied transaction signature."}
}
