package onchain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const financeABIJSON = `[
  {"type":"function","name":"addTransaction","stateMutability":"payable",
   "inputs":[{"name":"amount","type":"uint256"},{"name":"income","type":"bool"},{"name":"category","type":"string"},{"name":"note","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"getMyTransactions","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"tuple[]","components":[
     {"name":"amount","type":"uint256"},{"name":"income","type":"bool"},{"name":"category","type":"string"},
     {"name":"note","type":"string"},{"name":"timestamp","type":"uint256"}]}]}
]`

const anchorABIJSON = `[
  {"type":"function","name":"saveTxHash","stateMutability":"nonpayable",
   "inputs":[{"name":"txHash","type":"bytes32"}],"outputs":[]},
  {"type":"event","name":"TransactionHashSaved","anonymous":false,
   "inputs":[{"name":"owner","type":"address","indexed":true},{"name":"hash","type":"bytes32","indexed":false},{"name":"timestamp","type":"uint256","indexed":false}]}
]`

// FinanceABI is the personal finance contract: one entry point to record and one accessor to list the caller's records.
var FinanceABI = mustParseABI(financeABIJSON)

// AnchorABI is the hash anchor contract.
var AnchorABI = mustParseABI(anchorABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// financeRecord mirrors the tuple returned by getMyTransactions.
type financeRecord struct {
	Amount    *big.Int
	Income    bool
	Category  string
	Note      string
	Timestamp *big.Int
}
