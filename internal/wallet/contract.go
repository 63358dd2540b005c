package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Contract is a contract handle bound to the connected account.
type Contract struct {
	Address common.Address
	ABI     abi.ABI

	from     common.Address
	provider Provider
	caller   Backend
}

// From is the account state-changing calls are sent from.
func (c *Contract) From() common.Address { return c.from }

// Transact packs a method call and sends it from the connected account with zero value.
func (c *Contract) Transact(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	if c.from == (common.Address{}) {
		return common.Hash{}, ErrNoAccount
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "pack %s", method)
	}
	return c.provider.Send(ctx, c.from, Call{To: c.Address, Data: data})
}

// Call runs a read-only method against the latest block and unpacks its outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}
	to := c.Address
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{From: c.from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", method)
	}
	values, err := c.ABI.Unpack(method, out)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	return values, nil
}
