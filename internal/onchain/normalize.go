package onchain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"financechain/models"
)

// Settlement is a mined receipt together with the number of blocks that confirm it.
type Settlement struct {
	Receipt       *types.Receipt
	Confirmations uint64
}

// fieldAliases lists the key spellings accepted for each field of a map source.
var fieldAliases = map[string][]string{
	"hash":          {"hash", "txHash", "tx_hash", "transactionHash"},
	"from":          {"from"},
	"to":            {"to"},
	"nonce":         {"nonce"},
	"chainId":       {"chainId", "chain_id"},
	"gasPrice":      {"gasPrice", "gas_price"},
	"value":         {"value"},
	"blockNumber":   {"blockNumber", "block_number"},
	"gasUsed":       {"gasUsed", "gas_used"},
	"status":        {"status"},
	"confirmations": {"confirmations"},
}

// Normalize merges a transaction and its receipt into a SubmissionResult.
// Either argument may be nil or of any recognized shape; receipt fields win over transaction fields.
// Missing data yields absent fields, never an error. Normalize is idempotent.
func Normalize(tx, receipt interface{}) models.SubmissionResult {
	var out models.SubmissionResult
	for _, src := range []interface{}{tx, receipt} {
		merge(&out, fieldsOf(src))
	}
	return out
}

type fields map[string]interface{}

func fieldsOf(src interface{}) fields {
	switch s := src.(type) {
	case nil:
		return nil
	case *types.Transaction:
		if s == nil {
			return nil
		}
		f := fields{
			"hash":     s.Hash(),
			"nonce":    s.Nonce(),
			"gasPrice": s.GasPrice(),
			"value":    s.Value(),
			"to":       s.To(),
		}
		if id := s.ChainId(); id != nil && id.Sign() > 0 {
			f["chainId"] = id
			if from, err := types.Sender(types.LatestSignerForChainID(id), s); err == nil {
				f["from"] = from
			}
		}
		return f
	case *types.Receipt:
		if s == nil {
			return nil
		}
		return fields{
			"hash":        s.TxHash,
			"blockNumber": s.BlockNumber,
			"gasUsed":     s.GasUsed,
			"status":      s.Status,
		}
	case Settlement:
		f := fieldsOf(s.Receipt)
		if f == nil {
			f = fields{}
		}
		f["confirmations"] = s.Confirmations
		return f
	case *Settlement:
		if s == nil {
			return nil
		}
		return fieldsOf(*s)
	case models.SubmissionResult:
		return resultFields(&s)
	case *models.SubmissionResult:
		return resultFields(s)
	case map[string]interface{}:
		f := fields{}
		for name, aliases := range fieldAliases {
			for _, key := range aliases {
				if v, ok := s[key]; ok && v != nil {
					f[name] = v
					break
				}
			}
		}
		return f
	}
	return nil
}

func resultFields(r *models.SubmissionResult) fields {
	if r == nil {
		return nil
	}
	f := fields{
		"from":          r.From,
		"to":            r.To,
		"nonce":         r.Nonce,
		"chainId":       r.ChainID,
		"gasPrice":      r.GasPrice,
		"value":         r.Value,
		"blockNumber":   r.BlockNumber,
		"gasUsed":       r.GasUsed,
		"confirmations": r.Confirmations,
	}
	if r.TxHash != "" {
		f["hash"] = r.TxHash
	}
	if r.Status != nil {
		f["status"] = *r.Status
	}
	return f
}

func merge(out *models.SubmissionResult, f fields) {
	if f == nil {
		return
	}
	if v := text(f["hash"]); v != nil && *v != "" {
		out.TxHash = *v
	}
	setIf(&out.From, text(f["from"]))
	setIf(&out.To, text(f["to"]))
	setIf(&out.Nonce, quantity(f["nonce"]))
	setIf(&out.ChainID, quantity(f["chainId"]))
	setIf(&out.GasPrice, quantity(f["gasPrice"]))
	setIf(&out.Value, quantity(f["value"]))
	setIf(&out.BlockNumber, quantity(f["blockNumber"]))
	setIf(&out.GasUsed, quantity(f["gasUsed"]))
	setIf(&out.Confirmations, quantity(f["confirmations"]))
	if s := quantity(f["status"]); s != nil {
		if n, err := strconv.ParseUint(*s, 10, 64); err == nil {
			out.Status = &n
		}
	}
}

func setIf(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}

// quantity renders a numeric value as a decimal string. Hex quantities are decoded; nil stays absent.
func quantity(v interface{}) *string {
	switch n := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if n == nil {
			return nil
		}
		return ptr(n.String())
	case *hexutil.Big:
		if n == nil {
			return nil
		}
		return ptr((*big.Int)(n).String())
	case hexutil.Uint64:
		return ptr(strconv.FormatUint(uint64(n), 10))
	case *string:
		if n == nil {
			return nil
		}
		return quantity(*n)
	case string:
		if strings.HasPrefix(n, "0x") || strings.HasPrefix(n, "0X") {
			if b, ok := new(big.Int).SetString(n[2:], 16); ok {
				return ptr(b.String())
			}
		}
		return ptr(n)
	}
	return text(v)
}

// text is the generic string conversion used for every value that is not a big integer or hex quantity.
func text(v interface{}) *string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return ptr(s)
	case *string:
		if s == nil {
			return nil
		}
		return ptr(*s)
	case common.Address:
		return ptr(s.Hex())
	case *common.Address:
		if s == nil {
			return nil
		}
		return ptr(s.Hex())
	case common.Hash:
		return ptr(s.Hex())
	case uint64:
		return ptr(strconv.FormatUint(s, 10))
	case int:
		return ptr(strconv.Itoa(s))
	case int64:
		return ptr(strconv.FormatInt(s, 10))
	case float64:
		return ptr(strconv.FormatFloat(s, 'f', -1, 64))
	case json.Number:
		return ptr(s.String())
	case fmt.Stringer:
		return ptr(stringOf(s))
	}
	return ptr(fmt.Sprint(v))
}

// stringOf calls String, falling back to the Go-syntax form of the value when it panics.
func stringOf(s fmt.Stringer) (out string) {
	defer func() {
		if recover() != nil {
			out = fmt.Sprintf("%#v", s)
		}
	}()
	return s.String()
}

func ptr(s string) *string { return &s }
