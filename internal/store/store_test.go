package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

const (
	testCreator = "0x1111111111111111111111111111111111111111"
	testBidder  = "0x2222222222222222222222222222222222222222"
)

func buildTestAccount(address string) *schema.Account {
	return &schema.Account{
		ID:      domain.AccountID(address),
		Address: domain.NormalizeAddress(address),
	}
}

func buildTestArtwork(tokenID string, owner string) *schema.Artwork {
	ownerID := domain.AccountID(owner)
	return &schema.Artwork{
		ID:            domain.ArtworkID(tokenID),
		TokenID:       decimal.RequireFromString(tokenID),
		Version:       domain.ARTWORK_VERSION,
		CreatorID:     ownerID,
		OwnerID:       ownerID,
		DescriptorURI: "https://ipfs.pixura.io/ipfs/QmVJ2dj5ZsSCPZ6AJzX6Ahq9UpNZ5uTqTmBkczDG3xnUyJ",
		Created:       time.Unix(1_530_000_000, 0).UTC(),
	}
}

// seedArtwork saves the owner account and an artwork owned by it
func seedArtwork(t *testing.T, store Store, tokenID string, owner string) *schema.Artwork {
	ctx := context.Background()
	require.NoError(t, store.SaveAccount(ctx, buildTestAccount(owner)))
	artwork := buildTestArtwork(tokenID, owner)
	require.NoError(t, store.SaveArtwork(ctx, artwork))
	return artwork
}

func stringPtr(s string) *string {
	return &s
}

// =============================================================================
// Test: Accounts
// =============================================================================

func testAccounts(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent account returns nil", func(t *testing.T) {
		account, err := store.GetAccount(ctx, "0xdeadbeef")
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("save and get account", func(t *testing.T) {
		err := store.SaveAccount(ctx, buildTestAccount(testCreator))
		require.NoError(t, err)

		account, err := store.GetAccount(ctx, domain.AccountID(testCreator))
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.Equal(t, domain.NormalizeAddress(testCreator), account.Address)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("saving an existing account keeps the first row", func(t *testing.T) {
		first := buildTestAccount(testBidder)
		require.NoError(t, store.SaveAccount(ctx, first))

		before, err := store.GetAccount(ctx, first.ID)
		require.NoError(t, err)
		require.NotNil(t, before)

		second := buildTestAccount(testBidder)
		second.Address = "changed"
		require.NoError(t, store.SaveAccount(ctx, second))

		after, err := store.GetAccount(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Address, after.Address)
		assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	})
}

// =============================================================================
// Test: Artworks
// =============================================================================

func testArtworks(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent artwork returns nil", func(t *testing.T) {
		artwork, err := store.GetArtwork(ctx, domain.ArtworkID("999999"))
		require.NoError(t, err)
		assert.Nil(t, artwork)
	})

	t.Run("save and get artwork with defaults", func(t *testing.T) {
		seedArtwork(t, store, "1", testCreator)

		artwork, err := store.GetArtwork(ctx, domain.ArtworkID("1"))
		require.NoError(t, err)
		require.NotNil(t, artwork)
		assert.Equal(t, "V1-1", artwork.ID)
		assert.True(t, decimal.NewFromInt(1).Equal(artwork.TokenID))
		assert.Equal(t, domain.AccountID(testCreator), artwork.CreatorID)
		assert.Equal(t, domain.AccountID(testCreator), artwork.OwnerID)
		assert.False(t, artwork.OnSale)
		assert.Nil(t, artwork.SalePrice)
		assert.Nil(t, artwork.CurrentBidID)
		assert.Empty(t, artwork.BidIDs)
		assert.NotNil(t, artwork.BidIDs)
		assert.Empty(t, artwork.SaleIDs)
		assert.Equal(t, domain.LifecycleActive, artwork.Lifecycle().State)
	})

	t.Run("upsert overwrites mutable fields", func(t *testing.T) {
		artwork := seedArtwork(t, store, "2", testCreator)
		require.NoError(t, store.SaveAccount(ctx, buildTestAccount(testBidder)))

		price := decimal.RequireFromString("250000000000000000")
		modified := time.Unix(1_540_000_000, 0).UTC()
		artwork.OwnerID = domain.AccountID(testBidder)
		artwork.OnSale = true
		artwork.SalePrice = &price
		artwork.Modified = &modified
		artwork.Name = stringPtr("Genesis")
		artwork.Tags = []string{"crypto", "art"}
		artwork.BidIDs = append(artwork.BidIDs, domain.BidLogID("2", domain.AccountID(testBidder)))
		artwork.Metadata = []byte(`{"name":"Genesis"}`)
		require.NoError(t, store.SaveArtwork(ctx, artwork))

		got, err := store.GetArtwork(ctx, artwork.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, domain.AccountID(testBidder), got.OwnerID)
		assert.Equal(t, domain.AccountID(testCreator), got.CreatorID)
		assert.True(t, got.OnSale)
		require.NotNil(t, got.SalePrice)
		assert.True(t, price.Equal(*got.SalePrice))
		require.NotNil(t, got.Modified)
		assert.True(t, modified.Equal(*got.Modified))
		assert.Equal(t, "Genesis", *got.Name)
		assert.Equal(t, []string{"crypto", "art"}, []string(got.Tags))
		assert.Equal(t, []string{"2-" + domain.AccountID(testBidder)}, []string(got.BidIDs))
		assert.JSONEq(t, `{"name":"Genesis"}`, string(got.Metadata))
	})

	t.Run("burned lifecycle round trips", func(t *testing.T) {
		artwork := seedArtwork(t, store, "3", testCreator)

		at := time.Unix(1_550_000_000, 0).UTC()
		artwork.SetLifecycle(domain.Burned(at))
		require.NoError(t, store.SaveArtwork(ctx, artwork))

		got, err := store.GetArtwork(ctx, artwork.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		lifecycle := got.Lifecycle()
		assert.True(t, lifecycle.IsBurned())
		require.NotNil(t, lifecycle.BurnedAt)
		assert.True(t, at.Equal(*lifecycle.BurnedAt))
		assert.Equal(t, domain.AccountID(testCreator), got.OwnerID)
	})
}

// =============================================================================
// Test: Bid Logs
// =============================================================================

func testBidLogs(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent bid returns nil", func(t *testing.T) {
		bid, err := store.GetBidLog(ctx, "999999-0xdead")
		require.NoError(t, err)
		assert.Nil(t, bid)
	})

	t.Run("save, resolve and get bid", func(t *testing.T) {
		seedArtwork(t, store, "10", testCreator)
		require.NoError(t, store.SaveAccount(ctx, buildTestAccount(testBidder)))

		bidderID := domain.AccountID(testBidder)
		bid := &schema.BidLog{
			ID:        domain.BidLogID("10", bidderID),
			ItemID:    domain.ArtworkID("10"),
			BidderID:  bidderID,
			Amount:    decimal.NewFromInt(100),
			Timestamp: time.Unix(1_540_000_000, 0).UTC(),
		}
		require.NoError(t, store.SaveBidLog(ctx, bid))

		got, err := store.GetBidLog(ctx, bid.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.Resolved)
		assert.Nil(t, got.IsAccepted)
		assert.True(t, decimal.NewFromInt(100).Equal(got.Amount))

		accepted := true
		got.Resolved = true
		got.IsAccepted = &accepted
		require.NoError(t, store.SaveBidLog(ctx, got))

		resolved, err := store.GetBidLog(ctx, bid.ID)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.True(t, resolved.Resolved)
		require.NotNil(t, resolved.IsAccepted)
		assert.True(t, *resolved.IsAccepted)
	})
}

// =============================================================================
// Test: Sale Logs
// =============================================================================

func testSaleLogs(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent sale returns nil", func(t *testing.T) {
		sale, err := store.GetSaleLog(ctx, "999999-a-b-0")
		require.NoError(t, err)
		assert.Nil(t, sale)
	})

	t.Run("save and get sale", func(t *testing.T) {
		seedArtwork(t, store, "20", testCreator)
		require.NoError(t, store.SaveAccount(ctx, buildTestAccount(testBidder)))

		ts := time.Unix(1_545_000_000, 0).UTC()
		buyerID := domain.AccountID(testBidder)
		sellerID := domain.AccountID(testCreator)
		sale := &schema.SaleLog{
			ID:        domain.SaleLogID("20", buyerID, sellerID, ts),
			ItemID:    domain.ArtworkID("20"),
			BuyerID:   buyerID,
			SellerID:  sellerID,
			Amount:    decimal.RequireFromString("1500000000000000000"),
			Timestamp: ts,
		}
		require.NoError(t, store.SaveSaleLog(ctx, sale))

		// Saving the same sale again is an upsert, not a duplicate
		require.NoError(t, store.SaveSaleLog(ctx, sale))

		got, err := store.GetSaleLog(ctx, sale.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, buyerID, got.BuyerID)
		assert.Equal(t, sellerID, got.SellerID)
		assert.True(t, sale.Amount.Equal(got.Amount))
		assert.True(t, ts.Equal(got.Timestamp))
	})
}

// =============================================================================
// Test: Cursors
// =============================================================================

func testBlockCursor(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent cursor returns 0", func(t *testing.T) {
		cursor, err := store.GetBlockCursor(ctx, "test_chain_nonexistent")
		require.NoError(t, err)
		assert.Equal(t, uint64(0), cursor)
	})

	t.Run("set and get cursor", func(t *testing.T) {
		chain := "test_chain_cursor"
		blockNum := uint64(12345)

		err := store.SetBlockCursor(ctx, chain, blockNum)
		require.NoError(t, err)

		cursor, err := store.GetBlockCursor(ctx, chain)
		require.NoError(t, err)
		assert.Equal(t, blockNum, cursor)
	})

	t.Run("update existing cursor", func(t *testing.T) {
		chain := "test_chain_update"

		err := store.SetBlockCursor(ctx, chain, 100)
		require.NoError(t, err)

		err = store.SetBlockCursor(ctx, chain, 200)
		require.NoError(t, err)

		cursor, err := store.GetBlockCursor(ctx, chain)
		require.NoError(t, err)
		assert.Equal(t, uint64(200), cursor)
	})
}

func testEventCursor(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get non-existent cursor returns nil", func(t *testing.T) {
		cursor, err := store.GetEventCursor(ctx, "test_chain_nonexistent")
		require.NoError(t, err)
		assert.Nil(t, cursor)
	})

	t.Run("set and update cursor", func(t *testing.T) {
		chain := string(domain.ChainEthereumMainnet)

		err := store.SetEventCursor(ctx, chain, domain.EventPosition{BlockNumber: 5_000_000, LogIndex: 3})
		require.NoError(t, err)

		err = store.SetEventCursor(ctx, chain, domain.EventPosition{BlockNumber: 5_000_001, LogIndex: 0})
		require.NoError(t, err)

		cursor, err := store.GetEventCursor(ctx, chain)
		require.NoError(t, err)
		require.NotNil(t, cursor)
		assert.Equal(t, domain.EventPosition{BlockNumber: 5_000_001, LogIndex: 0}, *cursor)
	})

	t.Run("block and event cursors are independent", func(t *testing.T) {
		chain := "test_chain_independent"

		require.NoError(t, store.SetBlockCursor(ctx, chain, 42))
		require.NoError(t, store.SetEventCursor(ctx, chain, domain.EventPosition{BlockNumber: 40, LogIndex: 7}))

		block, err := store.GetBlockCursor(ctx, chain)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), block)

		event, err := store.GetEventCursor(ctx, chain)
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, uint64(40), event.BlockNumber)
	})
}

func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Accounts", testAccounts},
		{"Artworks", testArtworks},
		{"BidLogs", testBidLogs},
		{"SaleLogs", testSaleLogs},
		{"BlockCursor", testBlockCursor},
		{"EventCursor", testEventCursor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
