package messaging

import (
	"context"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

// EventHandler is called for every marketplace event, in chain order.
// Returning an error stops the subscription.
type EventHandler func(event *domain.MarketplaceEvent) error

// Subscriber streams marketplace events from the chain
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// SubscribeEvents replays every event from fromBlock up to the chain head, then follows new blocks.
	// It blocks until the context is cancelled, the handler fails, or the subscription breaks.
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
