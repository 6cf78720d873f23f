package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLog represents the sale_logs table - append-only, one row per sale
type SaleLog struct {
	ID        string          `gorm:"column:id;primaryKey;type:text"`
	ItemID    string          `gorm:"column:item_id;not null;type:text;index"`
	BuyerID   string          `gorm:"column:buyer_id;not null;type:text"`
	SellerID  string          `gorm:"column:seller_id;not null;type:text"`
	Amount    decimal.Decimal `gorm:"column:amount;not null;type:numeric(78,0)"`
	Timestamp time.Time       `gorm:"column:timestamp;not null"`
}

func (SaleLog) TableName() string {
	return "sale_logs"
}
