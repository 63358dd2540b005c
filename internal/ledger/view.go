package ledger

import (
	"strconv"
	"time"

	"financechain/models"
)

// TxView is one transaction ready for rendering.
type TxView struct {
	Transaction   models.LedgerTransaction
	Direction     Direction
	DisplayAmount string
	Status        models.TxStatus
	// From and To prefer the on-chain parties over the ledger's sender and recipient.
	From      string
	To        string
	FromLabel string
	ToLabel   string
	HashLabel string
	// ExplorerURL is empty when the network has no known explorer; render HashLabel instead.
	ExplorerURL   string
	BlockHeight   string
	Confirmations string
	Time          time.Time
}

type BlockView struct {
	Index        int
	Label        string
	Time         time.Time
	Transactions []TxView
}

type View struct {
	Pending []TxView
	Blocks  []BlockView
	Total   int
}

// Reconciler merges a ledger snapshot with the local wallet identity.
// It keeps no state between calls; every View is computed from scratch.
type Reconciler struct {
	explorers map[string]string
}

// NewReconciler uses DefaultExplorers when explorers is empty.
func NewReconciler(explorers map[string]string) *Reconciler {
	if len(explorers) == 0 {
		explorers = DefaultExplorers
	}
	return &Reconciler{explorers: explorers}
}

// ExplorerLink is ResolveExplorerLink over the reconciler's explorer table.
func (r *Reconciler) ExplorerLink(hash string, chainID interface{}) (string, bool) {
	return resolveExplorerLink(r.explorers, hash, chainID)
}

func (r *Reconciler) View(snapshot models.LedgerSnapshot, currentAddress string) View {
	v := View{
		Pending: make([]TxView, 0, len(snapshot.Current)),
		Blocks:  make([]BlockView, 0, len(snapshot.Chain)),
		Total:   TotalTransactionCount(snapshot),
	}
	for _, tx := range snapshot.Current {
		v.Pending = append(v.Pending, r.txView(tx, currentAddress, ""))
	}
	for _, b := range snapshot.Chain {
		bv := BlockView{
			Index:        b.Index,
			Label:        b.Label,
			Time:         unixTime(b.Timestamp),
			Transactions: make([]TxView, 0, len(b.Transactions)),
		}
		height := strconv.Itoa(b.Index)
		for _, tx := range b.Transactions {
			bv.Transactions = append(bv.Transactions, r.txView(tx, currentAddress, height))
		}
		v.Blocks = append(v.Blocks, bv)
	}
	return v
}

func (r *Reconciler) txView(tx models.LedgerTransaction, currentAddress, blockHeight string) TxView {
	c := Classify(tx, currentAddress)
	tv := TxView{
		Transaction:   tx,
		Direction:     c.Direction,
		DisplayAmount: c.DisplayAmount,
		Status:        statusOf(tx),
		From:          tx.Sender,
		To:            tx.Recipient,
		BlockHeight:   blockHeight,
		Time:          unixTime(tx.Timestamp),
	}
	var chainID interface{}
	if oc := tx.OnChain; oc != nil {
		if oc.From != nil && *oc.From != "" {
			tv.From = *oc.From
		}
		if oc.To != nil && *oc.To != "" {
			tv.To = *oc.To
		}
		if oc.BlockNumber != nil {
			tv.BlockHeight = *oc.BlockNumber
		}
		if oc.Confirmations != nil {
			tv.Confirmations = *oc.Confirmations
		}
		if oc.ChainID != nil {
			chainID = *oc.ChainID
		}
	}
	tv.FromLabel = ShortAddress(tv.From)
	tv.ToLabel = ShortAddress(tv.To)

	if tx.Hash != "" {
		tv.HashLabel = ShortHash(tx.Hash)
		if url, ok := r.ExplorerLink(tx.Hash, chainID); ok {
			tv.ExplorerURL = url
		}
	}
	return tv
}

func statusOf(tx models.LedgerTransaction) models.TxStatus {
	switch tx.Status {
	case models.TxStatusConfirmed, models.TxStatusPending, models.TxStatusFailed:
		return tx.Status
	}
	return models.TxStatusSent
}

// ShortAddress keeps the first 8 and last 6 characters of long addresses.
func ShortAddress(addr string) string {
	if len(addr) <= 14 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-6:]
}

// ShortHash keeps the first 10 and last 6 characters of a hash.
func ShortHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:10] + "..." + hash[len(hash)-6:]
}

func unixTime(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(seconds*float64(time.Second)))
}
