package indexer

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/metadata"
	"github.com/feral-file/ff-marketplace-indexer/internal/providers/ethereum"
	"github.com/feral-file/ff-marketplace-indexer/internal/store"
)

// Indexer applies marketplace events to the entity store
//
//go:generate mockgen -source=indexer.go -destination=../mocks/indexer.go -package=mocks -mock_names=Indexer=MockIndexer
type Indexer interface {
	// Apply applies a single event.
	// Callers must deliver events of a chain in (block, log index) order and never concurrently.
	Apply(ctx context.Context, event *domain.MarketplaceEvent) error
}

type indexer struct {
	store     store.Store
	ethClient ethereum.EthereumClient
	enricher  metadata.Enricher
}

// NewIndexer creates a new marketplace event indexer
func NewIndexer(store store.Store, ethClient ethereum.EthereumClient, enricher metadata.Enricher) Indexer {
	return &indexer{
		store:     store,
		ethClient: ethClient,
		enricher:  enricher,
	}
}

// Apply routes the event to its handler
func (i *indexer) Apply(ctx context.Context, event *domain.MarketplaceEvent) error {
	switch event.EventType {
	case domain.EventTypeTransfer:
		return i.handleTransfer(ctx, event)
	case domain.EventTypeBid:
		return i.placeBid(ctx, event)
	case domain.EventTypeAcceptBid:
		return i.acceptBid(ctx, event)
	case domain.EventTypeCancelBid:
		return i.cancelBid(ctx, event)
	case domain.EventTypeSold:
		return i.recordSale(ctx, event)
	case domain.EventTypeSalePriceSet:
		return i.setSalePrice(ctx, event)
	default:
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedEvent, event.EventType)
	}
}
