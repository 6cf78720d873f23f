package store

import (
	"context"

	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// Store defines the interface for database operations
// Get methods return (nil, nil) when no row exists for the key. Save methods upsert by primary key.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetAccount retrieves an account by its lower-case hex address
	GetAccount(ctx context.Context, id string) (*schema.Account, error)
	// SaveAccount upserts an account
	SaveAccount(ctx context.Context, account *schema.Account) error

	// GetArtwork retrieves an artwork by its version-prefixed ID
	GetArtwork(ctx context.Context, id string) (*schema.Artwork, error)
	// SaveArtwork upserts an artwork
	SaveArtwork(ctx context.Context, artwork *schema.Artwork) error

	// GetBidLog retrieves a bid log by its tokenId-bidderId key
	GetBidLog(ctx context.Context, id string) (*schema.BidLog, error)
	// SaveBidLog upserts a bid log
	SaveBidLog(ctx context.Context, bid *schema.BidLog) error

	// GetSaleLog retrieves a sale log by its key
	GetSaleLog(ctx context.Context, id string) (*schema.SaleLog, error)
	// SaveSaleLog upserts a sale log
	SaveSaleLog(ctx context.Context, sale *schema.SaleLog) error

	CursorStore
}
