package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"financechain/models"
)

type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
	Other    Direction = "other"
)

// SepoliaChainID is the only network with an explorer link by default.
const SepoliaChainID = "11155111"

// DefaultExplorers maps decimal chain ids to explorer base URLs.
var DefaultExplorers = map[string]string{
	SepoliaChainID: "https://sepolia.etherscan.io",
}

type Classification struct {
	Direction     Direction
	DisplayAmount string
}

// Classify decides the direction of tx as seen from currentAddress.
// Addresses compare case-insensitively; an empty currentAddress classifies everything as Other.
func Classify(tx models.LedgerTransaction, currentAddress string) Classification {
	c := Classification{Direction: Other, DisplayAmount: tx.Amount.String()}
	if currentAddress == "" {
		return c
	}
	switch {
	case strings.EqualFold(tx.Sender, currentAddress):
		c.Direction = Outgoing
		c.DisplayAmount = "-" + c.DisplayAmount
	case strings.EqualFold(tx.Recipient, currentAddress):
		c.Direction = Incoming
		c.DisplayAmount = "+" + c.DisplayAmount
	}
	return c
}

// ResolveExplorerLink builds the explorer URL of hash on the Sepolia test network.
// chainID may be a string, an integer, a float or a big integer; other networks yield false.
func ResolveExplorerLink(hash string, chainID interface{}) (string, bool) {
	return resolveExplorerLink(DefaultExplorers, hash, chainID)
}

func resolveExplorerLink(explorers map[string]string, hash string, chainID interface{}) (string, bool) {
	if hash == "" {
		return "", false
	}
	id, ok := chainIDString(chainID)
	if !ok {
		return "", false
	}
	base, ok := explorers[id]
	if !ok {
		return "", false
	}
	return strings.TrimRight(base, "/") + "/tx/" + hash, true
}

// chainIDString canonicalizes a chain id to its decimal form.
func chainIDString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		id = strings.TrimSpace(id)
		if id == "" {
			return "", false
		}
		if strings.HasPrefix(id, "0x") || strings.HasPrefix(id, "0X") {
			n, ok := new(big.Int).SetString(id[2:], 16)
			if !ok {
				return "", false
			}
			return n.String(), true
		}
		n, ok := new(big.Int).SetString(id, 10)
		if !ok {
			return "", false
		}
		return n.String(), true
	case *string:
		if id == nil {
			return "", false
		}
		return chainIDString(*id)
	case *big.Int:
		if id == nil {
			return "", false
		}
		return id.String(), true
	case json.Number:
		return chainIDString(id.String())
	case float64:
		if id != float64(int64(id)) {
			return "", false
		}
		return fmt.Sprint(int64(id)), true
	case int, int64, int32, uint, uint64, uint32:
		return fmt.Sprint(id), true
	}
	return "", false
}

// TotalTransactionCount counts pending and mined transactions.
func TotalTransactionCount(snapshot models.LedgerSnapshot) int {
	n := len(snapshot.Current)
	for _, b := range snapshot.Chain {
		n += len(b.Transactions)
	}
	return n
}

var thousand = decimal.NewFromInt(1000)

// DisplayAmount converts a raw on-chain amount, stored as thousandths, back to the logical unit.
// A raw value that is not a number is returned unchanged.
func DisplayAmount(raw string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return d.Div(thousand).String()
}
