package notify

import (
	"context"

	"github.com/mailjet/mailjet-apiv3-go/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/models"
)

// Mailjet sends notifications through the Mailjet v3.1 send API.
type Mailjet struct {
	client *mailjet.Client
	from   Address
	to     Address
}

func NewMailjet(apiKey, secretKey string, from, to Address) *Mailjet {
	return &Mailjet{
		client: mailjet.NewMailjetClient(apiKey, secretKey),
		from:   from,
		to:     to,
	}
}

func (m *Mailjet) PaymentConfirmed(_ context.Context, p models.Payment) error {
	body, err := renderPayment(p)
	if err != nil {
		return err
	}
	messages := &mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{
		{
			From: &mailjet.RecipientV31{Email: m.from.Email, Name: m.from.Name},
			To: &mailjet.RecipientsV31{
				{Email: m.to.Email, Name: m.to.Name},
			},
			Subject:  subject,
			HTMLPart: body,
		},
	}}
	res, err := m.client.SendMailV31(messages)
	if err != nil {
		return errors.Wrap(err, "mailjet send")
	}
	logrus.WithField("payment_id", p.ID).Debugf("mailjet response: %+v", res)
	return nil
}
