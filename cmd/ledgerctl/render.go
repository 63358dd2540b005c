package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"financechain/internal/ledger"
	"financechain/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	blockStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	directionStyles = map[ledger.Direction]lipgloss.Style{
		ledger.Incoming: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		ledger.Outgoing: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
	statusStyles = map[models.TxStatus]lipgloss.Style{
		models.TxStatusConfirmed: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.TxStatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.TxStatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}
)

func renderView(out io.Writer, v ledger.View) {
	fmt.Fprintf(out, "%s %d\n\n", headerStyle.Render("Transactions:"), v.Total)

	if len(v.Pending) > 0 {
		fmt.Fprintln(out, blockStyle.Render("Pending"))
		renderTxs(out, v.Pending)
		fmt.Fprintln(out)
	}

	if len(v.Blocks) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("(empty chain)"))
		return
	}
	for i := len(v.Blocks) - 1; i >= 0; i-- {
		b := v.Blocks[i]
		title := fmt.Sprintf("Block #%d", b.Index)
		if b.Label != "" {
			title = b.Label
		}
		fmt.Fprintf(out, "%s %s\n", blockStyle.Render(title), mutedStyle.Render(formatTime(b.Time)))
		renderTxs(out, b.Transactions)
		fmt.Fprintln(out)
	}
}

func renderTxs(out io.Writer, txs []ledger.TxView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Dir"),
		headerStyle.Render("From"),
		headerStyle.Render("To"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Status"),
		headerStyle.Render("Height"),
		headerStyle.Render("Tx"))
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			directionStyles[tx.Direction].Render(string(tx.Direction)),
			tx.FromLabel,
			tx.ToLabel,
			tx.DisplayAmount,
			statusStyles[tx.Status].Render(string(tx.Status)),
			dash(tx.BlockHeight),
			txLink(tx))
	}
}

// txLink is the explorer URL when the network is known, the short hash otherwise.
func txLink(tx ledger.TxView) string {
	switch {
	case tx.ExplorerURL != "":
		return tx.ExplorerURL
	case tx.HashLabel != "":
		return tx.HashLabel
	}
	return "-"
}

func renderHistory(out io.Writer, entries []models.ChainEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No on-chain records."))
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Time"),
		headerStyle.Render("Type"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Category"),
		headerStyle.Render("Note"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 20), strings.Repeat("-", 7), strings.Repeat("-", 10), strings.Repeat("-", 10), strings.Repeat("-", 30))
	for _, e := range entries {
		kind := "expense"
		if e.Income {
			kind = "income"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			formatTime(time.Unix(e.Timestamp, 0)), kind, e.Amount, e.Category, e.Note)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
