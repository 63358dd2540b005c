package wallet

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// keyProvider signs locally with a raw private key and submits through the Library.
type keyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	lib     *Library
}

func newKeyProvider(key *ecdsa.PrivateKey, lib *Library) *keyProvider {
	return &keyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		lib:     lib,
	}
}

func (p *keyProvider) Kind() string { return "private-key" }

func (p *keyProvider) Address(context.Context) (common.Address, error) {
	return p.address, nil
}

func (p *keyProvider) Accounts(context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *keyProvider) SignText(_ context.Context, account common.Address, text []byte) ([]byte, error) {
	if account != p.address {
		return nil, errors.Wrapf(ErrNoAccount, "key does not control %s", account.Hex())
	}
	sig, err := crypto.Sign(accounts.TextHash(text), p.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign text")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func (p *keyProvider) Send(ctx context.Context, from common.Address, call Call) (common.Hash, error) {
	if from != p.address {
		return common.Hash{}, errors.Wrapf(ErrNoAccount, "key does not control %s", from.Hex())
	}
	if p.lib == nil {
		return common.Hash{}, errors.Wrap(ErrLibraryUnavailable, "no chain library configured")
	}
	backend, err := p.lib.Backend(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "chain id")
	}
	tx, err := buildTx(ctx, backend, from, call)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), p.key)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "sign transaction")
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}
