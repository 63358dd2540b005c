package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Key holds a hex private key and its EIP-55 address.
type Key struct {
	PrivateKey string
	Address    string
}

// GenerateKey creates a fresh secp256k1 account.
func GenerateKey() (*Key, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Key{
		PrivateKey: hex.EncodeToString(crypto.FromECDSA(privateKey)),
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey).Hex(),
	}, nil
}

// KeyFromHex decodes a private key with or without the 0x prefix.
func KeyFromHex(privKeyHex string) (*ecdsa.PrivateKey, common.Address, error) {
	privKeyHex = strings.TrimPrefix(strings.TrimSpace(privKeyHex), "0x")
	privKey, err := crypto.HexToECDSA(privKeyHex)
	if err != nil {
		return nil, common.Address{}, errors.Wrap(err, "failed to decode private key")
	}
	return privKey, crypto.PubkeyToAddress(privKey.PublicKey), nil
}

// RecoverTextSigner returns the address that produced an EIP-191 personal signature of message.
// Both 0/1 and 27/28 recovery ids are accepted.
func RecoverTextSigner(message string, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "invalid signature encoding")
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("invalid signature length %d", len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recover signer")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
