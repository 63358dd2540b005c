package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// accountsProvider wraps a go-ethereum accounts.Wallet: keystore, clef or a hardware wallet.
type accountsProvider struct {
	wallet accounts.Wallet
	lib    *Library
}

func newAccountsProvider(w accounts.Wallet, lib *Library) *accountsProvider {
	return &accountsProvider{wallet: w, lib: lib}
}

func (p *accountsProvider) Kind() string { return "accounts-wallet" }

// Authorize opens the wallet. Keystore wallets open without a prompt; USB and external signers may ask the user.
func (p *accountsProvider) Authorize(context.Context) error {
	if err := p.wallet.Open(""); err != nil && !errors.Is(err, accounts.ErrWalletAlreadyOpen) {
		return err
	}
	return nil
}

func (p *accountsProvider) Accounts(context.Context) ([]common.Address, error) {
	accs := p.wallet.Accounts()
	out := make([]common.Address, 0, len(accs))
	for _, a := range accs {
		out = append(out, a.Address)
	}
	return out, nil
}

func (p *accountsProvider) SignText(_ context.Context, account common.Address, text []byte) ([]byte, error) {
	sig, err := p.wallet.SignText(accounts.Account{Address: account}, text)
	if err != nil {
		return nil, err
	}
	if len(sig) == crypto.SignatureLength && sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}
	return sig, nil
}

func (p *accountsProvider) Send(ctx context.Context, from common.Address, call Call) (common.Hash, error) {
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
	signed, err := p.wallet.SignTx(accounts.Account{Address: from}, tx, chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}
	return signed.Hash(), nil
}
