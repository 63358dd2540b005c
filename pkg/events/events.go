package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"financechain/models"
)

// BlockSubject is the subject every mined block is published to.
const BlockSubject = "ledger.blocks"

// Publisher announces ledger changes to other services.
type Publisher interface {
	PublishBlock(ctx context.Context, block models.Block) error
	Close() error
}

type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("financechain-ledger"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to nats")
	}
	logrus.WithField("url", url).Info("nats publisher connected")
	return &NATSPublisher{nc: nc, subject: BlockSubject}, nil
}

func (p *NATSPublisher) PublishBlock(_ context.Context, block models.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return errors.Wrap(err, "marshal block")
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return errors.Wrapf(err, "publish block %d", block.Index)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishBlock(context.Context, models.Block) error { return nil }
func (Noop) Close() error                                     { return nil }
