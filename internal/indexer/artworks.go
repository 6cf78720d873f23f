package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/logger"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// loadArtwork returns the artwork of a token, or nil with a warning when it was never minted
func (i *indexer) loadArtwork(ctx context.Context, tokenID string, eventType domain.EventType) (*schema.Artwork, error) {
	id := domain.ArtworkID(tokenID)

	artwork, err := i.store.GetArtwork(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork %s: %w", id, err)
	}
	if artwork == nil {
		logger.WarnCtx(ctx, "Artwork not found, skipping event",
			zap.String("artwork_id", id),
			zap.String("event_type", string(eventType)))
	}

	return artwork, nil
}

func (i *indexer) saveArtwork(ctx context.Context, artwork *schema.Artwork) error {
	if err := i.store.SaveArtwork(ctx, artwork); err != nil {
		return fmt.Errorf("failed to save artwork %s: %w", artwork.ID, err)
	}
	return nil
}

// handleTransfer branches on the zero address to mint, burn or move a token
func (i *indexer) handleTransfer(ctx context.Context, event *domain.MarketplaceEvent) error {
	transfer, err := event.AsTransfer()
	if err != nil {
		return err
	}

	// Burns resolve the zero account as well
	recipient, err := i.resolveAccount(ctx, transfer.To)
	if err != nil {
		return err
	}

	switch transfer.Kind() {
	case domain.TransferKindMint:
		return i.mintArtwork(ctx, transfer, recipient)
	case domain.TransferKindBurn:
		return i.burnArtwork(ctx, transfer)
	default:
		return i.transferArtwork(ctx, transfer, recipient)
	}
}

func (i *indexer) mintArtwork(ctx context.Context, transfer domain.TransferEvent, recipient *schema.Account) error {
	id := domain.ArtworkID(transfer.TokenID)

	existing, err := i.store.GetArtwork(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get artwork %s: %w", id, err)
	}
	if existing != nil {
		logger.InfoCtx(ctx, "Artwork already minted, skipping", zap.String("artwork_id", id))
		return nil
	}

	tokenID, err := decimal.NewFromString(transfer.TokenID)
	if err != nil {
		return fmt.Errorf("%w: token id %s", domain.ErrInvalidEvent, transfer.TokenID)
	}

	descriptorURI, err := i.ethClient.ERC721TokenURI(ctx, transfer.ContractAddress, transfer.TokenID, transfer.BlockNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrContractCallReverted) {
			return fmt.Errorf("failed to read token URI: %w", err)
		}
		logger.WarnCtx(ctx, "tokenURI reverted, minting without descriptor",
			zap.String("artwork_id", id),
			zap.Error(err))
		descriptorURI = ""
	}

	artwork := &schema.Artwork{
		ID:            id,
		TokenID:       tokenID,
		Version:       domain.ARTWORK_VERSION,
		CreatorID:     recipient.ID,
		OwnerID:       recipient.ID,
		DescriptorURI: descriptorURI,
		OnSale:        false,
		BidIDs:        datatypes.JSONSlice[string]{},
		SaleIDs:       datatypes.JSONSlice[string]{},
		Created:       transfer.Timestamp,
	}
	artwork.SetLifecycle(domain.Active())

	result := i.enricher.Enrich(ctx, descriptorURI)
	// A cancelled fetch must not be stored as missing metadata
	if err := ctx.Err(); err != nil {
		return err
	}
	if !result.Enriched() {
		logger.InfoCtx(ctx, "Minting artwork without metadata",
			zap.String("artwork_id", id),
			zap.String("reason", string(result.Reason)))
	}
	result.ApplyTo(artwork)

	return i.saveArtwork(ctx, artwork)
}

// burnArtwork retires the artwork; owner and sale fields keep their last values
func (i *indexer) burnArtwork(ctx context.Context, transfer domain.TransferEvent) error {
	artwork, err := i.loadArtwork(ctx, transfer.TokenID, domain.EventTypeTransfer)
	if err != nil || artwork == nil {
		return err
	}

	artwork.SetLifecycle(domain.Burned(transfer.Timestamp))

	return i.saveArtwork(ctx, artwork)
}

func (i *indexer) transferArtwork(ctx context.Context, transfer domain.TransferEvent, recipient *schema.Account) error {
	artwork, err := i.loadArtwork(ctx, transfer.TokenID, domain.EventTypeTransfer)
	if err != nil || artwork == nil {
		return err
	}

	modified := transfer.Timestamp
	artwork.OwnerID = recipient.ID
	artwork.Modified = &modified
	artwork.OnSale = false
	artwork.SalePrice = nil

	return i.saveArtwork(ctx, artwork)
}
