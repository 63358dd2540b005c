package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financechain/internal/wallet/wallettest"
)

type ethAPI struct {
	accounts  []common.Address
	coinbase  common.Address
	requested atomic.Int32
}

func (a *ethAPI) RequestAccounts() []common.Address {
	a.requested.Add(1)
	return a.accounts
}

func (a *ethAPI) Accounts() []common.Address { return a.accounts }

func (a *ethAPI) Coinbase() common.Address { return a.coinbase }

type personalAPI struct {
	key *ecdsa.PrivateKey
}

func (p *personalAPI) Sign(data hexutil.Bytes, addr common.Address) (hexutil.Bytes, error) {
	if addr != crypto.PubkeyToAddress(p.key.PublicKey) {
		return nil, errors.New("unknown account")
	}
	sig, err := crypto.Sign(accounts.TextHash(data), p.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

func newInProcAgent(t *testing.T, key *ecdsa.PrivateKey) (*rpc.Client, *ethAPI) {
	t.Helper()
	api := &ethAPI{accounts: []common.Address{crypto.PubkeyToAddress(key.PublicKey)}}
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", api))
	require.NoError(t, server.RegisterName("personal", &personalAPI{key: key}))
	client := rpc.DialInProc(server)
	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})
	return client, api
}

func TestShimWithoutAgent(t *testing.T) {
	var nilKey *ecdsa.PrivateKey
	for _, agent := range []interface{}{nil, nilKey} {
		s := NewShim(agent, nil)
		assert.False(t, s.Present())

		_, err := s.Connect(context.Background())
		assert.True(t, errors.Is(err, ErrNoProvider))
		assert.Nil(t, s.Address(context.Background()))

		_, err = s.ContractFor(context.Background(), common.Address{}, abi.ABI{})
		assert.True(t, errors.Is(err, ErrNoProvider))
	}
}

func TestShimRejectsUnknownAgent(t *testing.T) {
	s := NewShim("not a wallet", nil)
	assert.True(t, s.Present())

	_, err := s.Connect(context.Background())
	assert.True(t, errors.Is(err, ErrIncompatibleProvider))
	assert.Nil(t, s.Address(context.Background()))
}

func TestShimMemoizesShape(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	s := NewShim(key, nil)

	p1, err := s.Provider()
	require.NoError(t, err)
	p2, err := s.Provider()
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, "private-key", p1.Kind())
}

func TestShimPrivateKeyAgent(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	want := crypto.PubkeyToAddress(key.PublicKey)
	s := NewShim(key, nil)

	session, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session.Address)
	assert.Equal(t, want, *session.Address)
	assert.Equal(t, "private-key", session.Kind)

	sig, signer, err := s.SignText(context.Background(), "alice|bob|10|rent|1700000000000")
	require.NoError(t, err)
	assert.Equal(t, want, signer)

	recovered, err := RecoverTextSigner("alice|bob|10|rent|1700000000000", hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, want, recovered)

	// no library and no provider-owned backend
	_, err = s.Backend(context.Background())
	assert.True(t, errors.Is(err, ErrIncompatibleProvider))
}

func TestShimContractForUsesLibrary(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	backend := wallettest.NewBackend(11155111)
	lib := NewLibrary(func(context.Context, string) (Backend, error) { return backend, nil }, "mem://")
	s := NewShim(key, lib)

	parsed, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"ping","inputs":[{"name":"n","type":"uint256"}],"outputs":[]}]`))
	require.NoError(t, err)
	contractAddr := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	c, err := s.ContractFor(context.Background(), contractAddr, parsed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), c.From())

	hash, err := c.Transact(context.Background(), "ping", big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, backend.Sent, 1)
	assert.Equal(t, hash, backend.Sent[0].Hash())
	assert.Equal(t, contractAddr, *backend.Sent[0].To())
	assert.Equal(t, 0, backend.Sent[0].Value().Sign())
}

func TestShimJSONRPCAgent(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	client, api := newInProcAgent(t, key)
	s := NewShim(client, nil)

	session, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "json-rpc", session.Kind)
	assert.Equal(t, int32(1), api.requested.Load())
	require.NotNil(t, session.Address)
	assert.Equal(t, api.accounts[0], *session.Address)

	// reading the address again must not prompt
	assert.Equal(t, api.accounts[0], *s.Address(context.Background()))
	assert.Equal(t, int32(1), api.requested.Load())

	sig, _, err := s.SignText(context.Background(), "hello")
	require.NoError(t, err)
	recovered, err := RecoverTextSigner("hello", hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, api.accounts[0], recovered)

	b, err := s.Backend(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestShimKeystoreAgent(t *testing.T) {
	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	acc, err := ks.NewAccount("secret")
	require.NoError(t, err)
	require.NoError(t, ks.Unlock(acc, "secret"))
	wallets := ks.Wallets()
	require.Len(t, wallets, 1)

	backend := wallettest.NewBackend(11155111)
	lib := NewLibrary(func(context.Context, string) (Backend, error) { return backend, nil }, "mem://")
	s := NewShim(wallets[0], lib)

	session, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "accounts-wallet", session.Kind)
	require.NotNil(t, session.Address)
	assert.Equal(t, acc.Address, *session.Address)

	sig, signer, err := s.SignText(context.Background(), "alice|bob|10|rent|1700000000000")
	require.NoError(t, err)
	assert.Equal(t, acc.Address, signer)
	assert.GreaterOrEqual(t, sig[crypto.RecoveryIDOffset], byte(27))
	recovered, err := RecoverTextSigner("alice|bob|10|rent|1700000000000", hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, acc.Address, recovered)

	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	hash, err := session.Provider.Send(context.Background(), acc.Address, Call{To: to, Value: big.NewInt(1000)})
	require.NoError(t, err)
	require.Len(t, backend.Sent, 1)
	sent := backend.Sent[0]
	assert.Equal(t, hash, sent.Hash())
	assert.Equal(t, to, *sent.To())
	assert.Equal(t, int64(1000), sent.Value().Int64())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(11155111)), sent)
	require.NoError(t, err)
	assert.Equal(t, acc.Address, from)
}

func TestShimAddressFallsBackToCoinbase(t *testing.T) {
	coinbase := common.HexToAddress("0x00000000000000000000000000000000000000cb")
	agent := wallettest.NewRequester(map[string]wallettest.Handler{
		"eth_requestAccounts": func(...interface{}) (interface{}, error) { return []string{}, nil },
		"eth_accounts":        func(...interface{}) (interface{}, error) { return []string{}, nil },
		"eth_coinbase":        func(...interface{}) (interface{}, error) { return coinbase.Hex(), nil },
	})
	s := NewShim(agent, nil)

	session, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session.Address)
	assert.Equal(t, coinbase, *session.Address)
}

func TestShimConnectsWithoutAddress(t *testing.T) {
	agent := wallettest.NewRequester(map[string]wallettest.Handler{
		"eth_requestAccounts": func(...interface{}) (interface{}, error) { return []string{}, nil },
	})
	s := NewShim(agent, nil)

	session, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session.Address)
	assert.Nil(t, s.Address(context.Background()))
}

func TestShimConnectRejected(t *testing.T) {
	agent := wallettest.NewRequester(map[string]wallettest.Handler{
		"eth_requestAccounts": func(...interface{}) (interface{}, error) { return nil, wallettest.Rejected() },
	})
	s := NewShim(agent, nil)

	_, err := s.Connect(context.Background())
	require.Error(t, err)
	var coded interface{ ErrorCode() int }
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, 4001, coded.ErrorCode())
}

func TestRecoverTextSignerRejectsMalformed(t *testing.T) {
	_, err := RecoverTextSigner("msg", "0x1234")
	assert.Error(t, err)
	_, err = RecoverTextSigner("msg", "not hex")
	assert.Error(t, err)
}

func TestKeyRoundTrip(t *testing.T) {
	k, err := GenerateKey()
	require.NoError(t, err)
	_, addr, err := KeyFromHex("0x" + k.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, k.Address, addr.Hex())
}
