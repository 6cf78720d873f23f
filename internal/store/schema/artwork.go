package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-marketplace-indexer/internal/domain"
)

// Artwork represents the artworks table - one row per minted marketplace token
type Artwork struct {
	// ID is the version-prefixed token identifier (e.g., "V1-42")
	ID string `gorm:"column:id;primaryKey;type:text"`
	// TokenID is the on-chain token number
	TokenID decimal.Decimal `gorm:"column:token_id;not null;type:numeric(78,0)"`
	// Version is the schema tag embedded in ID
	Version string `gorm:"column:version;not null;type:text"`
	// CreatorID references the account that received the mint; never changes afterwards
	CreatorID string `gorm:"column:creator_id;not null;type:text"`
	// OwnerID references the current owner account
	OwnerID string `gorm:"column:owner_id;not null;type:text;index"`

	// DescriptorURI is the tokenURI read from the contract at mint
	DescriptorURI  string  `gorm:"column:descriptor_uri;not null;type:text;default:''"`
	DescriptorHash *string `gorm:"column:descriptor_hash;type:text"`
	Name           *string `gorm:"column:name;type:text"`
	Description    *string `gorm:"column:description;type:text"`
	YearCreated    *string `gorm:"column:year_created;type:text"`
	CreatedBy      *string `gorm:"column:created_by;type:text"`
	ImageURI       *string `gorm:"column:image_uri;type:text"`
	ImageHash      *string `gorm:"column:image_hash;type:text"`
	// Tags is nil when the descriptor had no tags array
	Tags datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb"`
	// Metadata is the fetched descriptor document in canonical JSON form
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb"`

	OnSale        bool             `gorm:"column:on_sale;not null;default:false"`
	SalePrice     *decimal.Decimal `gorm:"column:sale_price;type:numeric(78,0)"`
	LastSoldPrice *decimal.Decimal `gorm:"column:last_sold_price;type:numeric(78,0)"`
	CurrentBidID  *string          `gorm:"column:current_bid_id;type:text"`
	// BidIDs and SaleIDs are append-only, in event order
	BidIDs  datatypes.JSONSlice[string] `gorm:"column:bid_ids;not null;type:jsonb"`
	SaleIDs datatypes.JSONSlice[string] `gorm:"column:sale_ids;not null;type:jsonb"`

	// State and Removed together encode domain.Lifecycle
	State    domain.LifecycleState `gorm:"column:state;not null;type:text;default:'active'"`
	Created  time.Time             `gorm:"column:created;not null"`
	Modified *time.Time            `gorm:"column:modified"`
	Removed  *time.Time            `gorm:"column:removed"`
}

func (Artwork) TableName() string {
	return "artworks"
}

// Lifecycle returns the tagged lifecycle of the artwork
func (a *Artwork) Lifecycle() domain.Lifecycle {
	switch a.State {
	case domain.LifecycleBurned:
		if a.Removed != nil {
			return domain.Burned(*a.Removed)
		}
		return domain.Lifecycle{State: domain.LifecycleBurned}
	default:
		return domain.Active()
	}
}

// SetLifecycle writes the lifecycle into State and Removed
func (a *Artwork) SetLifecycle(l domain.Lifecycle) {
	switch l.State {
	case domain.LifecycleBurned:
		a.State = domain.LifecycleBurned
		a.Removed = l.BurnedAt
	default:
		a.State = domain.LifecycleActive
		a.Removed = nil
	}
}

// HasSale reports whether the sale id is already in the sale list
func (a *Artwork) HasSale(saleID string) bool {
	for _, id := range a.SaleIDs {
		if id == saleID {
			return true
		}
	}
	return false
}
