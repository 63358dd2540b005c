package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Call is an outgoing transaction before nonce, gas and signature are filled in.
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Provider is the stable surface every agent shape is wrapped into.
type Provider interface {
	Kind() string
	Accounts(ctx context.Context) ([]common.Address, error)
	SignText(ctx context.Context, account common.Address, text []byte) ([]byte, error)
	Send(ctx context.Context, from common.Address, call Call) (common.Hash, error)
}

// Authorizer is implemented by providers with their own account authorization step.
type Authorizer interface {
	Authorize(ctx context.Context) error
}

// Requester is the generic JSON-RPC request method of an EIP-1193 style agent. *rpc.Client satisfies it.
type Requester interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

type addressAccessor interface {
	Address(ctx context.Context) (common.Address, error)
}

type backendOwner interface {
	Backend() Backend
}

// shape turns one kind of agent into a Provider.
type shape struct {
	name  string
	match func(agent interface{}) bool
	build func(agent interface{}, lib *Library) Provider
}

// shapes is the compatibility table, most specific first.
// Supporting a new kind of agent means adding a row here.
var shapes = []shape{
	{
		name: "private-key",
		match: func(agent interface{}) bool {
			_, ok := agent.(*ecdsa.PrivateKey)
			return ok
		},
		build: func(agent interface{}, lib *Library) Provider {
			return newKeyProvider(agent.(*ecdsa.PrivateKey), lib)
		},
	},
	{
		name: "accounts-wallet",
		match: func(agent interface{}) bool {
			_, ok := agent.(accounts.Wallet)
			return ok
		},
		build: func(agent interface{}, lib *Library) Provider {
			return newAccountsProvider(agent.(accounts.Wallet), lib)
		},
	},
	{
		name: "json-rpc",
		match: func(agent interface{}) bool {
			_, ok := agent.(Requester)
			return ok
		},
		build: func(agent interface{}, _ *Library) Provider {
			return newRPCProvider(agent.(Requester))
		},
	},
}

func matchShape(agent interface{}, lib *Library) (Provider, error) {
	for _, s := range shapes {
		if s.match(agent) {
			return s.build(agent, lib), nil
		}
	}
	return nil, errors.Wrapf(ErrIncompatibleProvider, "agent of type %T", agent)
}

// buildTx fills nonce, gas price and gas limit for a locally signed transaction.
func buildTx(ctx context.Context, backend Backend, from common.Address, call Call) (*types.Transaction, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "pending nonce")
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "gas price")
	}
	to := call.To
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: call.Data})
	if err != nil {
		return nil, errors.Wrap(err, "estimate gas")
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     call.Data,
	}), nil
}
