package schema

import "time"

// Account represents the accounts table - one row per address seen in any marketplace event
type Account struct {
	// ID is the lower-case hex address
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Address is the checksummed form of the same 20-byte address
	Address string `gorm:"column:address;not null;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Account) TableName() string {
	return "accounts"
}
