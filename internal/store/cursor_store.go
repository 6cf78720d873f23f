package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
	"github.com/feral-file/ff-marketplace-indexer/internal/store/schema"
)

// CursorStore defines the interface for storing and retrieving ingestion cursors
type CursorStore interface {
	// GetBlockCursor retrieves the last published block number for a chain
	GetBlockCursor(ctx context.Context, chain string) (uint64, error)
	// SetBlockCursor stores the last published block number for a chain
	SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error
	// GetEventCursor retrieves the position of the last applied event for a chain, nil if none
	GetEventCursor(ctx context.Context, chain string) (*domain.EventPosition, error)
	// SetEventCursor stores the position of the last applied event for a chain
	SetEventCursor(ctx context.Context, chain string, position domain.EventPosition) error
}

func blockCursorKey(chain string) string {
	return fmt.Sprintf("block_cursor:%s", chain)
}

func eventCursorKey(chain string) string {
	return fmt.Sprintf("event_cursor:%s", chain)
}

// GetBlockCursor retrieves the last published block number for a chain
func (s *pgStore) GetBlockCursor(ctx context.Context, chain string) (uint64, error) {
	value, err := s.getValue(ctx, blockCursorKey(chain))
	if err != nil {
		return 0, fmt.Errorf("failed to get block cursor: %w", err)
	}
	if value == nil {
		return 0, nil // Return 0 if no cursor exists
	}

	blockNumber, err := strconv.ParseUint(*value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block cursor: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCursor stores the last published block number for a chain
func (s *pgStore) SetBlockCursor(ctx context.Context, chain string, blockNumber uint64) error {
	if err := s.setValue(ctx, blockCursorKey(chain), strconv.FormatUint(blockNumber, 10)); err != nil {
		return fmt.Errorf("failed to set block cursor: %w", err)
	}
	return nil
}

// GetEventCursor retrieves the position of the last applied event for a chain
func (s *pgStore) GetEventCursor(ctx context.Context, chain string) (*domain.EventPosition, error) {
	value, err := s.getValue(ctx, eventCursorKey(chain))
	if err != nil {
		return nil, fmt.Errorf("failed to get event cursor: %w", err)
	}
	if value == nil {
		return nil, nil
	}

	position, err := domain.ParseEventPosition(*value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event cursor: %w", err)
	}

	return &position, nil
}

// SetEventCursor stores the position of the last applied event for a chain
func (s *pgStore) SetEventCursor(ctx context.Context, chain string, position domain.EventPosition) error {
	if err := s.setValue(ctx, eventCursorKey(chain), position.String()); err != nil {
		return fmt.Errorf("failed to set event cursor: %w", err)
	}
	return nil
}

func (s *pgStore) getValue(ctx context.Context, key string) (*string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &kv.Value, nil
}

func (s *pgStore) setValue(ctx context.Context, key string, value string) error {
	kv := schema.KeyValueStore{
		Key:   key,
		Value: value,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&kv).Error
}
