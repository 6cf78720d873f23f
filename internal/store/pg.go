package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, defaults from NormalizeConnectionPoolSettings are used.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 5
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Events are applied one at a time, so the pool only needs to cover the cursor writes
// that happen alongside entity writes.
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 5
	}
	if maxIdleConns == 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// getByID loads a row by primary key into dest, reporting false when it does not exist
func (s *pgStore) getByID(ctx context.Context, id string, dest interface{}) (bool, error) {
	err := s.db.WithContext(ctx).Where("id = ?", id).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// upsert inserts the row or overwrites every column of the existing row with the same primary key
func (s *pgStore) upsert(ctx context.Context, value interface{}) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(value).Error
}

// GetAccount retrieves an account by its lower-case hex address
func (s *pgStore) GetAccount(ctx context.Context, id string) (*schema.Account, error) {
	var account schema.Account
	found, err := s.getByID(ctx, id, &account)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &account, nil
}

// SaveAccount upserts an account
func (s *pgStore) SaveAccount(ctx context.Context, account *schema.Account) error {
	// Accounts are immutable, so an existing row is left untouched
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(account).Error
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// GetArtwork retrieves an artwork by its version-prefixed ID
func (s *pgStore) GetArtwork(ctx context.Context, id string) (*schema.Artwork, error) {
	var artwork schema.Artwork
	found, err := s.getByID(ctx, id, &artwork)
	if err != nil {
		return nil, fmt.Errorf("failed to get artwork: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &artwork, nil
}

// SaveArtwork upserts an artwork
func (s *pgStore) SaveArtwork(ctx context.Context, artwork *schema.Artwork) error {
	if artwork.BidIDs == nil {
		artwork.BidIDs = []string{}
	}
	if artwork.SaleIDs == nil {
		artwork.SaleIDs = []string{}
	}

	if err := s.upsert(ctx, artwork); err != nil {
		return fmt.Errorf("failed to save artwork: %w", err)
	}
	return nil
}

// GetBidLog retrieves a bid log by its tokenId-bidderId key
func (s *pgStore) GetBidLog(ctx context.Context, id string) (*schema.BidLog, error) {
	var bid schema.BidLog
	found, err := s.getByID(ctx, id, &bid)
	if err != nil {
		return nil, fmt.Errorf("failed to get bid log: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &bid, nil
}

// SaveBidLog upserts a bid log
func (s *pgStore) SaveBidLog(ctx context.Context, bid *schema.BidLog) error {
	if err := s.upsert(ctx, bid); err != nil {
		return fmt.Errorf("failed to save bid log: %w", err)
	}
	return nil
}

// GetSaleLog retrieves a sale log by its key
func (s *pgStore) GetSaleLog(ctx context.Context, id string) (*schema.SaleLog, error) {
	var sale schema.SaleLog
	found, err := s.getByID(ctx, id, &sale)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale log: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &sale, nil
}

// SaveSaleLog upserts a sale log
func (s *pgStore) SaveSaleLog(ctx context.Context, sale *schema.SaleLog) error {
	if err := s.upsert(ctx, sale); err != nil {
		return fmt.Errorf("failed to save sale log: %w", err)
	}
	return nil
}
