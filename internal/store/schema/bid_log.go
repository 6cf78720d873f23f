package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidLog represents the bid_logs table
// Keyed by tokenId-bidderId, so one bidder has at most one tracked bid per artwork.
type BidLog struct {
	ID       string          `gorm:"column:id;primaryKey;type:text"`
	ItemID   string          `gorm:"column:item_id;not null;type:text;index"`
	BidderID string          `gorm:"column:bidder_id;not null;type:text;index"`
	Amount   decimal.Decimal `gorm:"column:amount;not null;type:numeric(78,0)"`
	// Timestamp is the block time of the bid
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Resolved  bool      `gorm:"column:resolved;not null;default:false"`
	// IsAccepted stays nil until the bid is accepted or cancelled
	IsAccepted *bool `gorm:"column:is_accepted"`
}

func (BidLog) TableName() string {
	return "bid_logs"
}
