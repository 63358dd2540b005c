package models

type Block struct {
	ID           string              `json:"id,omitempty"`
	Index        int                 `json:"index"`
	Timestamp    float64             `json:"timestamp"`
	Label        string              `json:"label,omitempty"`
	Transactions []LedgerTransaction `json:"transactions"`
}

// LedgerSnapshot is the full ledger as served by GET /api/transactions.
// Clients replace their whole view with it on every refresh.
type LedgerSnapshot struct {
	Current []LedgerTransaction `json:"current"`
	Chain   []Block             `json:"chain"`
}
