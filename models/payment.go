package models

const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
)

type Payment struct {
	ID            string   `json:"id" db:"id"`
	Payer         string   `json:"payer" db:"payer"`
	Payee         string   `json:"payee" db:"payee"`
	Amount        Amount   `json:"amount" db:"amount"`
	Currency      string   `json:"currency" db:"currency"`
	Status        string   `json:"status" db:"status"`
	TransactionID *string  `json:"transaction_id,omitempty" db:"transaction_id"`
	BlockID       *string  `json:"block_id,omitempty" db:"block_id"`
	CreatedAt     float64  `json:"created_at" db:"created_at"`
	ConfirmedAt   *float64 `json:"confirmed_at,omitempty" db:"confirmed_at"`
}

type PaymentInput struct {
	Payer    string `json:"payer" binding:"required"`
	Payee    string `json:"payee" binding:"required"`
	Amount   Amount `json:"amount" binding:"required"`
	Currency string `json:"currency"`
}
