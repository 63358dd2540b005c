package notify

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/pkg/errors"

	"financechain/models"
)

// Notifier tells the operator about confirmed payments.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, p models.Payment) error
}

// Address is a mail participant.
type Address struct {
	Email string
	Name  string
}

const subject = "Payment confirmed"

var paymentTemplate = template.Must(template.New("payment").Parse(`<body style="margin:0;padding:0;background:#f6f6f6;">
  <table width="100%" cellpadding="0" cellspacing="0" border="0" style="background:#f6f6f6;">
    <tr>
      <td align="center" style="padding:32px 0;">
        <table width="100%" cellpadding="0" cellspacing="0" border="0" style="max-width:600px;background:#f3f2f0;border-radius:28px;">
          <tr>
            <td style="padding:32px;text-align:left;font-family:Arial,sans-serif;">
              <h1 style="margin:0 0 12px 0;font-size:28px;color:#111;">Payment confirmed</h1>
              <table cellpadding="0" cellspacing="0" border="0" style="width:100%;">
                <tr><td style="font-size:16px;color:#555;padding:6px 0;">Payer:</td><td style="font-size:16px;color:#111;font-weight:bold;">{{.Payer}}</td></tr>
                <tr><td style="font-size:16px;color:#555;padding:6px 0;">Payee:</td><td style="font-size:16px;color:#111;font-weight:bold;">{{.Payee}}</td></tr>
                <tr><td style="font-size:16px;color:#555;padding:6px 0;">Amount:</td><td style="font-size:16px;color:#111;font-weight:bold;">{{.Amount}} {{.Currency}}</td></tr>
                <tr><td style="font-size:16px;color:#555;padding:6px 0;">Block:</td><td style="font-size:16px;color:#111;">{{.Block}}</td></tr>
                <tr><td style="font-size:16px;color:#555;padding:6px 0;">Confirmed at:</td><td style="font-size:16px;color:#111;">{{.ConfirmedAt}}</td></tr>
              </table>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>`))

func renderPayment(p models.Payment) (string, error) {
	data := struct {
		Payer, Payee, Amount, Currency, Block, ConfirmedAt string
	}{
		Payer:    p.Payer,
		Payee:    p.Payee,
		Amount:   p.Amount.String(),
		Currency: p.Currency,
	}
	if p.BlockID != nil {
		data.Block = *p.BlockID
	}
	if p.ConfirmedAt != nil {
		data.ConfirmedAt = time.Unix(int64(*p.ConfirmedAt), 0).UTC().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	if err := paymentTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "render payment mail")
	}
	return buf.String(), nil
}

// Noop drops every notification.
type Noop struct{}

func (Noop) PaymentConfirmed(context.Context, models.Payment) error { return nil }
