package schema

import "time"

// KeyValueStore stores indexer state as key-value pairs
// Keys in use: block_cursor:<chain> (emitter) and event_cursor:<chain> (bridge).
type KeyValueStore struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (KeyValueStore) TableName() string {
	return "key_value_store"
}
