package notify

import (
	"context"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"financechain/models"
)

// SMTP sends notifications through a plain SMTP relay.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
	to     string
}

func NewSMTP(host string, port int, username, password, from, to string) *SMTP {
	return &SMTP{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
	}
}

func (s *SMTP) message(p models.Payment) (*gomail.Message, error) {
	body, err := renderPayment(p)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m, nil
}

func (s *SMTP) PaymentConfirmed(_ context.Context, p models.Payment) error {
	m, err := s.message(p)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "smtp send")
	}
	return nil
}
