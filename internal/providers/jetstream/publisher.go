package jetstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/messaging"
)

// SUBJECT_PREFIX is the subject root of every marketplace event; the bridge consumes SUBJECT_PREFIX + ".>"
const SUBJECT_PREFIX = "events.ethereum"

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON

	closeOnce sync.Once
	closeCh   chan struct{}
}

// ConnectionOptions returns the NATS options shared by the publisher and the bridge.
// onClosed runs once the connection is permanently closed.
func ConnectionOptions(cfg Config, onClosed func()) []nats.Option {
	return []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			if onClosed != nil {
				onClosed()
			}
		}),
	}
}

// NewPublisher creates a new NATS JetStream publisher
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	p := &publisher{
		streamName: cfg.StreamName,
		json:       jsonAdapter,
		closeCh:    make(chan struct{}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, ConnectionOptions(cfg, p.markClosed)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	p.nc = nc
	p.js = js
	return p, nil
}

// PublishEvent publishes a marketplace event to NATS JetStream.
// The event ID is used as the message ID so the stream drops re-published duplicates.
func (p *publisher) PublishEvent(ctx context.Context, event *domain.MarketplaceEvent) error {
	logger.DebugCtx(ctx, "Publishing Nats event",
		zap.String("id", event.ID()),
		zap.String("eventType", string(event.EventType)),
		zap.Uint64("block", event.BlockNumber))

	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = p.js.Publish(ctx, Subject(event.EventType), data, jetstream.WithMsgID(event.ID()))
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subject returns the NATS subject of an event type, e.g. events.ethereum.sold
func Subject(eventType domain.EventType) string {
	return fmt.Sprintf("%s.%s", SUBJECT_PREFIX, eventType)
}

func (p *publisher) markClosed() {
	p.closeOnce.Do(func() { close(p.closeCh) })
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
	p.markClosed()
}

// CloseChan returns a channel that is closed when the NATS connection is closed
func (p *publisher) CloseChan() <-chan struct{} {
	return p.closeCh
}
