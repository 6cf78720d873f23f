package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/adapter"
	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/indexer"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	natspub "github.com/feral-file/ff-marketplace-indexer/internal/providers/jetstream"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
)

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	// ChainID is the only chain whose events are applied; others are terminated
	ChainID domain.Chain
}

// Bridge defines the interface for the event bridge
type Bridge interface {
	// Run consumes events until the context is done
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
	// CloseChan returns a channel that is closed when the NATS connection is closed
	CloseChan() <-chan struct{}
}

type bridge struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	cursors store.CursorStore
	indexer indexer.Indexer
	json    adapter.JSON
	config  Config

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewBridge creates a new event bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	cursors store.CursorStore,
	idx indexer.Indexer,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	b := &bridge{
		cursors: cursors,
		indexer: idx,
		json:    jsonAdapter,
		config:  cfg,
		closeCh: make(chan struct{}),
	}

	opts := natspub.ConnectionOptions(natspub.Config{
		URL:            cfg.URL,
		StreamName:     cfg.StreamName,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		ConnectionName: cfg.ConnectionName,
	}, b.markClosed)

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	b.nc = nc
	b.js = js
	return b, nil
}

// Run starts the event bridge.
// Messages are applied one at a time on this goroutine, in stream order.
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting event bridge", zap.String("stream", b.config.StreamName), zap.String("consumer", b.config.ConsumerName))

	// One unacknowledged message at a time keeps redeliveries in order
	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.config.AckWaitTimeout,
		MaxDeliver:    b.config.MaxDeliver,
		MaxAckPending: 1,
		FilterSubject: natspub.SUBJECT_PREFIX + ".>",
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	}, jetstream.PullMaxMessages(1))
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming messages")

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage applies a single NATS message and settles it with Ack, Nak or Term
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var numDelivered uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		numDelivered = metadata.NumDelivered
	}

	var event domain.MarketplaceEvent
	if err := b.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to unmarshal event"), zap.String("subject", msg.Subject()))
		b.term(ctx, msg)
		return
	}

	if event.Chain != b.config.ChainID || !event.Valid() {
		logger.WarnCtx(ctx, "Dropping invalid or foreign event",
			zap.String("chain", string(event.Chain)),
			zap.String("event_type", string(event.EventType)),
			zap.String("tx_hash", event.TxHash))
		b.term(ctx, msg)
		return
	}

	info := logger.EventInfo{
		Chain:       string(event.Chain),
		EventID:     event.ID(),
		EventType:   string(event.EventType),
		BlockNumber: event.BlockNumber,
		LogIndex:    event.LogIndex,
	}
	// Every *Ctx log line below, including the indexer's, carries the event fields
	ctx = logger.WithEventInfo(ctx, info)

	logger.InfoCtx(ctx, "Received event",
		zap.String("token_id", event.TokenID),
		zap.Uint64("delivery_count", numDelivered))

	err := b.applyEvent(ctx, &event)
	switch {
	case err == nil:
		logger.InfoCtx(ctx, "Event applied")
		b.ack(ctx, msg)
	case errors.Is(err, domain.ErrEventOutOfOrder):
		logger.InfoCtx(ctx, "Skipping event at or before the applied cursor")
		b.ack(ctx, msg)
	case errors.Is(err, domain.ErrUnsupportedEvent), errors.Is(err, domain.ErrInvalidEvent):
		logger.ErrorCtx(ctx, err, zap.String("message", "Event cannot be applied"))
		b.term(ctx, msg)
	default:
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to apply event"))
		b.nak(ctx, msg)
	}
}

// applyEvent applies the event if it comes after the applied cursor, then advances the cursor
func (b *bridge) applyEvent(ctx context.Context, event *domain.MarketplaceEvent) error {
	chain := string(event.Chain)

	cursor, err := b.cursors.GetEventCursor(ctx, chain)
	if err != nil {
		return fmt.Errorf("failed to get event cursor: %w", err)
	}
	if cursor != nil && !event.Position().After(*cursor) {
		return fmt.Errorf("%w: %s is not after %s", domain.ErrEventOutOfOrder, event.Position(), cursor)
	}

	if err := b.indexer.Apply(ctx, event); err != nil {
		return fmt.Errorf("failed to apply event: %w", err)
	}

	if err := b.cursors.SetEventCursor(ctx, chain, event.Position()); err != nil {
		return fmt.Errorf("failed to set event cursor: %w", err)
	}

	return nil
}

func (b *bridge) ack(ctx context.Context, msg adapter.Message) {
	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
	}
}

func (b *bridge) nak(ctx context.Context, msg adapter.Message) {
	if err := msg.Nak(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
	}
}

func (b *bridge) term(ctx context.Context, msg adapter.Message) {
	if err := msg.Term(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
	}
}

func (b *bridge) markClosed() {
	b.closeOnce.Do(func() { close(b.closeCh) })
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
	b.markClosed()
}

// CloseChan returns a channel that is closed when the NATS connection is closed
func (b *bridge) CloseChan() <-chan struct{} {
	return b.closeCh
}
