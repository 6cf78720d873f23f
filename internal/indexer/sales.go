package indexer

import (
	"context"
	"fmt"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// recordSale appends a sale log and hands the artwork to the buyer
func (i *indexer) recordSale(ctx context.Context, event *domain.MarketplaceEvent) error {
	sold, err := event.AsSold()
	if err != nil {
		return err
	}

	artwork, err := i.loadArtwork(ctx, sold.TokenID, event.EventType)
	if err != nil || artwork == nil {
		return err
	}

	buyer, err := i.resolveAccount(ctx, sold.Buyer)
	if err != nil {
		return err
	}
	seller, err := i.resolveAccount(ctx, sold.Seller)
	if err != nil {
		return err
	}

	saleLog := &schema.SaleLog{
		ID:        domain.SaleLogID(sold.TokenID, buyer.ID, seller.ID, sold.Timestamp),
		ItemID:    artwork.ID,
		BuyerID:   buyer.ID,
		SellerID:  seller.ID,
		Amount:    sold.Amount,
		Timestamp: sold.Timestamp,
	}
	if err := i.store.SaveSaleLog(ctx, saleLog); err != nil {
		return fmt.Errorf("failed to save sale log %s: %w", saleLog.ID, err)
	}

	if !artwork.HasSale(saleLog.ID) {
		artwork.SaleIDs = append(artwork.SaleIDs, saleLog.ID)
	}

	amount := sold.Amount
	artwork.LastSoldPrice = &amount
	artwork.OwnerID = buyer.ID
	artwork.OnSale = false

	return i.saveArtwork(ctx, artwork)
}

// setSalePrice lists the artwork at the given price
func (i *indexer) setSalePrice(ctx context.Context, event *domain.MarketplaceEvent) error {
	listing, err := event.AsSalePriceSet()
	if err != nil {
		return err
	}

	artwork, err := i.loadArtwork(ctx, listing.TokenID, event.EventType)
	if err != nil || artwork == nil {
		return err
	}

	price := listing.Price
	artwork.SalePrice = &price
	artwork.OnSale = true

	return i.saveArtwork(ctx, artwork)
}
