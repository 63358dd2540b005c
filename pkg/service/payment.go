package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/models"
	"financechain/pkg/repository"
)

const defaultCurrency = "USD"

type PaymentService struct {
	repo   repository.Payments
	ledger *LedgerService
	deps   Deps
	log    *logrus.Entry
}

func NewPaymentService(repo repository.Payments, ledger *LedgerService, deps Deps) *PaymentService {
	return &PaymentService{
		repo:   repo,
		ledger: ledger,
		deps:   deps.withDefaults(),
		log:    logrus.WithField("component", "payments"),
	}
}

func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	return s.repo.Payments(ctx)
}

func (s *PaymentService) Get(ctx context.Context, id string) (models.Payment, error) {
	return s.repo.Payment(ctx, id)
}

func (s *PaymentService) Create(ctx context.Context, in models.PaymentInput) (PaymentReceipt, error) {
	if in.Payer == "" || in.Payee == "" || in.Amount == "" {
		return PaymentReceipt{}, ErrMissingFields
	}
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}

	p, err := s.repo.CreatePayment(ctx, models.Payment{
		Payer:     in.Payer,
		Payee:     in.Payee,
		Amount:    in.Amount,
		Currency:  in.Currency,
		Status:    models.PaymentPending,
		CreatedAt: unixSeconds(s.deps.Now()),
	})
	if err != nil {
		return PaymentReceipt{}, errors.Wrap(err, "create payment")
	}
	return s.settle(ctx, p)
}

func (s *PaymentService) Confirm(ctx context.Context, id string) (PaymentReceipt, error) {
	p, err := s.repo.Payment(ctx, id)
	if err != nil {
		return PaymentReceipt{}, err
	}
	if p.Status == models.PaymentConfirmed {
		return PaymentReceipt{}, ErrAlreadyConfirmed
	}
	return s.settle(ctx, p)
}

// settle records the payment in the ledger and marks it confirmed in one store write.
func (s *PaymentService) settle(ctx context.Context, p models.Payment) (PaymentReceipt, error) {
	tx := models.LedgerTransaction{
		Sender:    p.Payer,
		Recipient: p.Payee,
		Amount:    p.Amount,
		Timestamp: unixSeconds(s.deps.Now()),
		Status:    models.TxStatusConfirmed,
	}
	confirmed, saved, block, err := s.repo.SettlePayment(ctx, p.ID, tx, blockLabel(tx), unixSeconds(s.deps.Now()))
	if errors.Is(err, ErrAlreadyConfirmed) || errors.Is(err, ErrNotFound) {
		return PaymentReceipt{}, err
	}
	if err != nil {
		return PaymentReceipt{}, errors.Wrapf(err, "settle payment %s", p.ID)
	}
	s.ledger.announce(ctx, saved, block, "payment")
	s.deps.Metrics.RecordPaymentConfirmed()

	err = s.deps.Notifier.PaymentConfirmed(ctx, confirmed)
	s.deps.Metrics.RecordNotification(err)
	if err != nil {
		s.log.WithError(err).WithField("payment_id", p.ID).Warn("payment notification failed")
	}

	return PaymentReceipt{Payment: confirmed, TransactionID: saved.ID, BlockID: block.ID}, nil
}
