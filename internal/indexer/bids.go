package indexer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

func (i *indexer) saveBidLog(ctx context.Context, bid *schema.BidLog) error {
	if err := i.store.SaveBidLog(ctx, bid); err != nil {
		return fmt.Errorf("failed to save bid log %s: %w", bid.ID, err)
	}
	return nil
}

// placeBid opens a bid for the bidder and makes it the current bid of the artwork.
// A second bid from the same bidder overwrites the first under the same key.
func (i *indexer) placeBid(ctx context.Context, event *domain.MarketplaceEvent) error {
	bid, err := event.AsBid()
	if err != nil {
		return err
	}

	artwork, err := i.loadArtwork(ctx, bid.TokenID, event.EventType)
	if err != nil || artwork == nil {
		return err
	}

	bidder, err := i.resolveAccount(ctx, bid.Bidder)
	if err != nil {
		return err
	}

	bidLog := &schema.BidLog{
		ID:        domain.BidLogID(bid.TokenID, bidder.ID),
		ItemID:    artwork.ID,
		BidderID:  bidder.ID,
		Amount:    bid.Amount,
		Timestamp: bid.Timestamp,
		Resolved:  false,
	}
	if err := i.saveBidLog(ctx, bidLog); err != nil {
		return err
	}

	artwork.BidIDs = append(artwork.BidIDs, bidLog.ID)
	if err := i.saveArtwork(ctx, artwork); err != nil {
		return err
	}

	bidID := bidLog.ID
	artwork.CurrentBidID = &bidID

	return i.saveArtwork(ctx, artwork)
}

// loadOpenBid loads the artwork and the bid an accept or cancel refers to.
// Either is nil when the event should be skipped.
func (i *indexer) loadOpenBid(ctx context.Context, event *domain.MarketplaceEvent) (*schema.Artwork, *schema.BidLog, error) {
	resolution, err := event.AsBidResolution()
	if err != nil {
		return nil, nil, err
	}

	artwork, err := i.loadArtwork(ctx, resolution.TokenID, event.EventType)
	if err != nil || artwork == nil {
		return nil, nil, err
	}

	bidder, err := i.resolveAccount(ctx, resolution.Bidder)
	if err != nil {
		return nil, nil, err
	}

	bidID := domain.BidLogID(resolution.TokenID, bidder.ID)
	bidLog, err := i.store.GetBidLog(ctx, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bid log %s: %w", bidID, err)
	}
	if bidLog == nil {
		logger.WarnCtx(ctx, "Bid not found, skipping event",
			zap.String("bid_id", bidID),
			zap.String("event_type", string(event.EventType)))
		return nil, nil, nil
	}

	return artwork, bidLog, nil
}

// acceptBid resolves the bid as accepted and records its amount as the last sold price
func (i *indexer) acceptBid(ctx context.Context, event *domain.MarketplaceEvent) error {
	artwork, bidLog, err := i.loadOpenBid(ctx, event)
	if err != nil || bidLog == nil {
		return err
	}

	accepted := true
	bidLog.Resolved = true
	bidLog.IsAccepted = &accepted

	amount := bidLog.Amount
	bidID := bidLog.ID
	artwork.LastSoldPrice = &amount
	artwork.CurrentBidID = &bidID
	artwork.OnSale = false

	if err := i.saveBidLog(ctx, bidLog); err != nil {
		return err
	}

	return i.saveArtwork(ctx, artwork)
}

// cancelBid resolves the bid as not accepted; the artwork is left as is
func (i *indexer) cancelBid(ctx context.Context, event *domain.MarketplaceEvent) error {
	_, bidLog, err := i.loadOpenBid(ctx, event)
	if err != nil || bidLog == nil {
		return err
	}

	accepted := false
	bidLog.Resolved = true
	bidLog.IsAccepted = &accepted

	return i.saveBidLog(ctx, bidLog)
}
