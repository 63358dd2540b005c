package models

// SubmissionRequest is either a ContractCall or a ValueTransfer.
type SubmissionRequest interface {
	Kind() string
}

// ContractCall records a categorized entry through the finance contract.
// Amount is a human decimal; it is stored on-chain scaled by 1000.
type ContractCall struct {
	ContractAddress string `validate:"required,eth_addr"`
	Amount          string
	IsIncome        bool
	Category        string
	Note            string
}

func (ContractCall) Kind() string { return "contract_call" }

// ValueTransfer sends native currency directly to Recipient. Amount is in ether.
type ValueTransfer struct {
	Recipient string `validate:"required,eth_addr"`
	Amount    string
}

func (ValueTransfer) Kind() string { return "value_transfer" }

// HashAnchor stores the keccak256 hash of Message in the anchor contract.
type HashAnchor struct {
	ContractAddress string `validate:"required,eth_addr"`
	Message         string `validate:"required"`
}

func (HashAnchor) Kind() string { return "hash_anchor" }

// ChainEntry is one record returned by the finance contract's history accessor.
// Amount is already converted back to the logical decimal unit.
type ChainEntry struct {
	Amount    string `json:"amount"`
	Income    bool   `json:"income"`
	Category  string `json:"category"`
	Note      string `json:"note"`
	Timestamp int64  `json:"timestamp"`
}

// SubmissionResult is the provider-independent record of a settled on-chain submission.
// Numeric fields are decimal strings; nil means the provider did not report the field.
type SubmissionResult struct {
	TxHash        string  `json:"hash"`
	From          *string `json:"from,omitempty"`
	To            *string `json:"to,omitempty"`
	Nonce         *string `json:"nonce,omitempty"`
	ChainID       *string `json:"chainId,omitempty"`
	GasPrice      *string `json:"gasPrice,omitempty"`
	Value         *string `json:"value,omitempty"`
	BlockNumber   *string `json:"blockNumber,omitempty"`
	GasUsed       *string `json:"gasUsed,omitempty"`
	Status        *uint64 `json:"status,omitempty"`
	Confirmations *string `json:"confirmations,omitempty"`
}

// Succeeded reports a receipt status of 1.
func (r *SubmissionResult) Succeeded() bool {
	return r != nil && r.Status != nil && *r.Status == 1
}

// TxState is the lifecycle of a single submission as seen by the user.
type TxState string

const (
	StateComposing   TxState = "composing"
	StateAuthorizing TxState = "authorizing"
	StateSubmitted   TxState = "submitted"
	StateConfirmed   TxState = "confirmed"
	StateFailed      TxState = "failed"
)
