package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainEthereumMainnet Chain = "eip155:1"
	ChainEthereumSepolia Chain = "eip155:11155111"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainEthereumMainnet ||
		chain == ChainEthereumSepolia
}

// EventType represents the type of marketplace event
type EventType string

const (
	EventTypeTransfer     EventType = "transfer"
	EventTypeBid          EventType = "bid"
	EventTypeAcceptBid    EventType = "accept_bid"
	EventTypeCancelBid    EventType = "cancel_bid"
	EventTypeSold         EventType = "sold"
	EventTypeSalePriceSet EventType = "sale_price_set"
)

// TransferKind distinguishes the three branches of a token transfer
type TransferKind string

const (
	TransferKindMint     TransferKind = "mint"
	TransferKindBurn     TransferKind = "burn"
	TransferKindTransfer TransferKind = "transfer"
)

// EventPosition is the location of a log in the chain, used for ordering
type EventPosition struct {
	BlockNumber uint64 `json:"block_number"`
	LogIndex    uint   `json:"log_index"`
}

// After reports whether p comes strictly after other
func (p EventPosition) After(other EventPosition) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber > other.BlockNumber
	}
	return p.LogIndex > other.LogIndex
}

// String encodes the position as "block:logIndex"
func (p EventPosition) String() string {
	return fmt.Sprintf("%d:%d", p.BlockNumber, p.LogIndex)
}

// ParseEventPosition parses the output of EventPosition.String
func ParseEventPosition(s string) (EventPosition, error) {
	block, index, ok := strings.Cut(s, ":")
	if !ok {
		return EventPosition{}, fmt.Errorf("invalid event position: %s", s)
	}

	blockNumber, err := strconv.ParseUint(block, 10, 64)
	if err != nil {
		return EventPosition{}, fmt.Errorf("invalid block number in event position %s: %w", s, err)
	}

	logIndex, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return EventPosition{}, fmt.Errorf("invalid log index in event position %s: %w", s, err)
	}

	return EventPosition{BlockNumber: blockNumber, LogIndex: uint(logIndex)}, nil
}

// MarketplaceEvent represents a normalized marketplace contract event
// This is the standard format published to NATS
type MarketplaceEvent struct {
	Chain           Chain     `json:"chain"`            // e.g., "eip155:1"
	ContractAddress string    `json:"contract_address"` // marketplace contract address
	EventType       EventType `json:"event_type"`       // transfer, bid, accept_bid, cancel_bid, sold, sale_price_set
	TokenID         string    `json:"token_id"`         // decimal token ID
	FromAddress     *string   `json:"from_address,omitempty"`
	ToAddress       *string   `json:"to_address,omitempty"`
	Bidder          *string   `json:"bidder,omitempty"`
	Buyer           *string   `json:"buyer,omitempty"`
	Seller          *string   `json:"seller,omitempty"`
	Amount          *string   `json:"amount,omitempty"` // bid amount, sale amount or listing price in wei
	TxHash          string    `json:"tx_hash"`
	BlockNumber     uint64    `json:"block_number"`
	BlockHash       *string   `json:"block_hash,omitempty"`
	LogIndex        uint      `json:"log_index"`
	Timestamp       time.Time `json:"timestamp"` // block timestamp
}

// Position returns the chain position of the event
func (e *MarketplaceEvent) Position() EventPosition {
	return EventPosition{BlockNumber: e.BlockNumber, LogIndex: e.LogIndex}
}

// ID returns a deterministic identifier for the event, suitable for de-duplication
func (e *MarketplaceEvent) ID() string {
	return fmt.Sprintf("%s:%s:%d", e.Chain, e.TxHash, e.LogIndex)
}

// Valid checks that the event carries every field its type requires
func (e *MarketplaceEvent) Valid() bool {
	if !IsValidChain(e.Chain) || e.ContractAddress == "" || !validTokenID(e.TokenID) {
		return false
	}

	switch e.EventType {
	case EventTypeTransfer:
		return e.FromAddress != nil && e.ToAddress != nil
	case EventTypeBid:
		return e.Bidder != nil && validAmount(e.Amount)
	case EventTypeAcceptBid, EventTypeCancelBid:
		return e.Bidder != nil
	case EventTypeSold:
		return e.Buyer != nil && e.Seller != nil && validAmount(e.Amount)
	case EventTypeSalePriceSet:
		return validAmount(e.Amount)
	default:
		return false
	}
}

// EventContext holds the fields shared by every typed marketplace event
type EventContext struct {
	ContractAddress string
	BlockNumber     uint64
	Timestamp       time.Time
}

// TransferEvent is Transfer(from, to, tokenId)
type TransferEvent struct {
	EventContext
	From    string
	To      string
	TokenID string
}

// Kind classifies the transfer by the zero address on either side
func (e TransferEvent) Kind() TransferKind {
	if IsZeroAddress(e.From) {
		return TransferKindMint
	}
	if IsZeroAddress(e.To) {
		return TransferKindBurn
	}
	return TransferKindTransfer
}

// BidEvent is Bid(tokenId, bidder, amount)
type BidEvent struct {
	EventContext
	TokenID string
	Bidder  string
	Amount  decimal.Decimal
}

// BidResolutionEvent is AcceptBid(tokenId, bidder) or CancelBid(tokenId, bidder)
type BidResolutionEvent struct {
	EventContext
	TokenID string
	Bidder  string
}

// SoldEvent is Sold(tokenId, buyer, seller, amount)
type SoldEvent struct {
	EventContext
	TokenID string
	Buyer   string
	Seller  string
	Amount  decimal.Decimal
}

// SalePriceSetEvent is SalePriceSet(tokenId, price)
type SalePriceSetEvent struct {
	EventContext
	TokenID string
	Price   decimal.Decimal
}

func (e *MarketplaceEvent) context() EventContext {
	return EventContext{
		ContractAddress: e.ContractAddress,
		BlockNumber:     e.BlockNumber,
		Timestamp:       e.Timestamp,
	}
}

func (e *MarketplaceEvent) expect(eventType EventType) error {
	if e.EventType != eventType {
		return fmt.Errorf("%w: expected %s, got %s", ErrInvalidEvent, eventType, e.EventType)
	}
	if !e.Valid() {
		return fmt.Errorf("%w: %s event %s", ErrInvalidEvent, e.EventType, e.ID())
	}
	return nil
}

// AsTransfer decodes a transfer event
func (e *MarketplaceEvent) AsTransfer() (TransferEvent, error) {
	if err := e.expect(EventTypeTransfer); err != nil {
		return TransferEvent{}, err
	}
	return TransferEvent{
		EventContext: e.context(),
		From:         *e.FromAddress,
		To:           *e.ToAddress,
		TokenID:      e.TokenID,
	}, nil
}

// AsBid decodes a bid event
func (e *MarketplaceEvent) AsBid() (BidEvent, error) {
	if err := e.expect(EventTypeBid); err != nil {
		return BidEvent{}, err
	}
	return BidEvent{
		EventContext: e.context(),
		TokenID:      e.TokenID,
		Bidder:       *e.Bidder,
		Amount:       decimal.RequireFromString(*e.Amount),
	}, nil
}

// AsBidResolution decodes an accept-bid or cancel-bid event
func (e *MarketplaceEvent) AsBidResolution() (BidResolutionEvent, error) {
	if e.EventType != EventTypeAcceptBid && e.EventType != EventTypeCancelBid {
		return BidResolutionEvent{}, fmt.Errorf("%w: expected bid resolution, got %s", ErrInvalidEvent, e.EventType)
	}
	if err := e.expect(e.EventType); err != nil {
		return BidResolutionEvent{}, err
	}
	return BidResolutionEvent{
		EventContext: e.context(),
		TokenID:      e.TokenID,
		Bidder:       *e.Bidder,
	}, nil
}

// AsSold decodes a sold event
func (e *MarketplaceEvent) AsSold() (SoldEvent, error) {
	if err := e.expect(EventTypeSold); err != nil {
		return SoldEvent{}, err
	}
	return SoldEvent{
		EventContext: e.context(),
		TokenID:      e.TokenID,
		Buyer:        *e.Buyer,
		Seller:       *e.Seller,
		Amount:       decimal.RequireFromString(*e.Amount),
	}, nil
}

// AsSalePriceSet decodes a sale-price-set event
func (e *MarketplaceEvent) AsSalePriceSet() (SalePriceSetEvent, error) {
	if err := e.expect(EventTypeSalePriceSet); err != nil {
		return SalePriceSetEvent{}, err
	}
	return SalePriceSetEvent{
		EventContext: e.context(),
		TokenID:      e.TokenID,
		Price:        decimal.RequireFromString(*e.Amount),
	}, nil
}

// ArtworkID returns the store key of the artwork for a token
func ArtworkID(tokenID string) string {
	return ARTWORK_VERSION + "-" + tokenID
}

// AccountID returns the store key of an account: the lower-case hex address
func AccountID(address string) string {
	return strings.ToLower(common.HexToAddress(address).Hex())
}

// BidLogID returns the store key of the bid placed by a bidder on a token
func BidLogID(tokenID string, bidderID string) string {
	return tokenID + "-" + bidderID
}

// SaleLogID returns the store key of a sale
func SaleLogID(tokenID string, buyerID string, sellerID string, timestamp time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d", tokenID, buyerID, sellerID, timestamp.Unix())
}

// IsZeroAddress reports whether the address is empty or the zero address
func IsZeroAddress(address string) bool {
	return address == "" || common.HexToAddress(address) == (common.Address{})
}

// NormalizeAddress normalizes an address to its checksummed form
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).String()
}

// uint256Pattern matches a plain decimal uint256: digits only, at most 78 of them
var uint256Pattern = regexp.MustCompile(`^[0-9]{1,78}$`)

// validTokenID checks if a token ID is a non-empty decimal string
func validTokenID(tokenID string) bool {
	return uint256Pattern.MatchString(tokenID)
}

func validAmount(amount *string) bool {
	return amount != nil && uint256Pattern.MatchString(*amount)
}
