package main

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"financechain/internal/ledger"
	"financechain/internal/onchain"
	"financechain/internal/wallet"
)

// Secrets come from the environment only.
const (
	envWalletKey        = "LEDGERCTL_WALLET_KEY"
	envKeystorePassword = "LEDGERCTL_KEYSTORE_PASSWORD"
)

func newLibrary() *wallet.Library {
	return wallet.NewLibrary(nil, viper.GetString("chain.rpc_url"), viper.GetStringSlice("chain.fallback_urls")...)
}

// newAgent opens the configured signing agent. A nil agent with a nil error means none is configured.
func newAgent(ctx context.Context) (interface{}, error) {
	agent := viper.GetString("wallet.agent")
	if agent == "" && os.Getenv(envWalletKey) != "" {
		agent = "key"
	}

	switch agent {
	case "":
		return nil, nil
	case "key":
		key, _, err := wallet.KeyFromHex(os.Getenv(envWalletKey))
		if err != nil {
			return nil, errors.Wrapf(err, "%s", envWalletKey)
		}
		return key, nil
	case "keystore":
		dir := viper.GetString("wallet.keystore_dir")
		if dir == "" {
			return nil, errors.New("wallet.keystore_dir is not set")
		}
		ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
		wallets := ks.Wallets()
		if len(wallets) == 0 {
			return nil, errors.Errorf("no accounts in keystore %s", dir)
		}
		w := wallets[0]
		for _, acc := range w.Accounts() {
			if err := ks.Unlock(acc, os.Getenv(envKeystorePassword)); err != nil {
				return nil, errors.Wrapf(err, "unlock %s", acc.Address.Hex())
			}
		}
		return w, nil
	case "rpc":
		url := viper.GetString("wallet.agent_url")
		if url == "" {
			url = viper.GetString("chain.rpc_url")
		}
		client, err := rpc.DialContext(ctx, url)
		if err != nil {
			return nil, errors.Wrapf(err, "dial wallet agent %s", url)
		}
		return client, nil
	}
	return nil, errors.Errorf("unknown wallet agent %q", agent)
}

func newShim(ctx context.Context) (*wallet.Shim, error) {
	agent, err := newAgent(ctx)
	if err != nil {
		return nil, err
	}
	return wallet.NewShim(agent, newLibrary()), nil
}

func newSubmitter(shim *wallet.Shim) *onchain.Submitter {
	return onchain.NewSubmitter(shim).WithPollInterval(viper.GetDuration("chain.poll_interval"))
}

func newStoreClient() *ledger.Client {
	return ledger.NewClient(viper.GetString("store.url"),
		ledger.WithRetry(viper.GetUint("store.retries"), viper.GetDuration("store.retry_delay")),
		ledger.WithTimeout(viper.GetDuration("store.timeout")),
	)
}

func contractAddress(name string) (common.Address, error) {
	raw := viper.GetString("contracts." + name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.Errorf("contracts.%s is not a valid address: %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}
