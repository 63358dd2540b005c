package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

type TxStatus string

const (
	TxStatusSent      TxStatus = "sent"
	TxStatusPending   TxStatus = "pending"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
)

// Amount is a ledger amount. Clients send it either as a JSON number or as a decimal string.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return errors.Wrap(err, "amount")
	}

	switch t := v.(type) {
	case json.Number:
		*a = Amount(t.String())
	case string:
		*a = Amount(t)
	case nil:
		*a = ""
	default:
		return errors.Errorf("amount: unsupported value %s", data)
	}
	return nil
}

// MarshalJSON writes numeric amounts as JSON numbers and anything else as a string.
func (a Amount) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(a), 64); err == nil && json.Valid([]byte(a)) {
		return []byte(a), nil
	}
	return json.Marshal(string(a))
}

func (a Amount) String() string {
	return string(a)
}

// LedgerTransaction is one entry of the off-chain ledger.
type LedgerTransaction struct {
	ID            string            `json:"id,omitempty"`
	Sender        string            `json:"sender"`
	Recipient     string            `json:"recipient"`
	Amount        Amount            `json:"amount"`
	Description   string            `json:"desc,omitempty"`
	Timestamp     float64           `json:"timestamp,omitempty"`
	Hash          string            `json:"hash,omitempty"`
	OnChain       *SubmissionResult `json:"onchain,omitempty"`
	Status        TxStatus          `json:"status,omitempty"`
	WalletAddress string            `json:"wallet_address,omitempty"`
	Signature     string            `json:"signature,omitempty"`
	SignedMessage string            `json:"signed_message,omitempty"`
	Mined         bool              `json:"mined"`
	BlockID       string            `json:"block_id,omitempty"`
}

// TransactionInput is the body of POST /api/transactions.
type TransactionInput struct {
	Sender    string            `json:"sender"`
	Recipient string            `json:"recipient"`
	Amount    Amount            `json:"amount"`
	Desc      string            `json:"desc,omitempty"`
	TxHash    string            `json:"tx_hash,omitempty"`
	TxMeta    *SubmissionResult `json:"tx_meta,omitempty"`
	WalletSignature
}

// Complete reports whether the mandatory fields are present.
func (in TransactionInput) Complete() bool {
	return in.Sender != "" && in.Recipient != "" && in.Amount != ""
}

type TransactionResponse struct {
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	BlockID       string `json:"block_id,omitempty"`
}
