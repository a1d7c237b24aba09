package auction

import (
	"errors"
	"fmt"
	"time"

	"auctionhousego/internal/money"
)

const (
	StatusActive = "ACTIVE"
	StatusEnded  = "ENDED"
)

var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrAuctionInactive  = errors.New("auction inactive")
	ErrInvalidAmount    = errors.New("invalid bid amount")
	ErrAuctionNotEnded  = errors.New("auction still running")
	ErrActiveLimit      = errors.New("active auction limit reached")
	ErrStaleTop         = errors.New("top bid changed during append")
	ErrAlreadyClosed    = errors.New("auction already closed")
	ErrMissingFields    = errors.New("missing required fields")
	ErrEndsBeforeStarts = errors.New("ends_at must be after starts_at")
)

// BidTooLowError carries the minimum acceptable amount so the caller can
// show the user what to bid instead.
type BidTooLowError struct {
	MinRequired int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("minimum bid is %s", money.FormatMinor(e.MinRequired))
}

// AuctionDTO is the external view of an auction. All amounts are integer
// minor currency units.
type AuctionDTO struct {
	ID              string     `json:"id"`
	SellerID        string     `json:"seller_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Condition       string     `json:"condition"`
	PersonalPickup  bool       `json:"personal_pickup"`
	CourierShipping bool       `json:"courier_shipping"`
	Invoice         bool       `json:"invoice"`
	BasePrice       int64      `json:"base_price"`
	MinIncrement    int64      `json:"min_increment"`
	ReservePrice    int64      `json:"reserve_price,omitempty"`
	Status          string     `json:"status"     example:"ACTIVE"`
	StartsAt        time.Time  `json:"starts_at"  example:"2025-07-27T16:05:05Z"`
	EndsAt          time.Time  `json:"ends_at"    example:"2025-07-27T16:05:05Z"`
	WinnerBidID     string     `json:"winner_bid_id,omitempty"`
	TopAmount       int64      `json:"top_amount"`
	TopBidderID     string     `json:"top_bidder_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Bid is an immutable committed offer.
type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the slice of auction state the bidding path needs.
type Snapshot struct {
	ID           string
	SellerID     string
	Title        string
	Status       string
	StartsAt     time.Time
	EndsAt       time.Time
	BasePrice    int64
	MinIncrement int64
	TopBidID     string
	TopBidAmount int64 // 0 when no bids exist
	TopBidderID  string
}

// CurrentTop is the amount new bids are measured against: the highest
// committed bid, or the base price when nothing was bid yet.
func (s Snapshot) CurrentTop() int64 {
	if s.TopBidAmount > s.BasePrice {
		return s.TopBidAmount
	}
	return s.BasePrice
}

// BidReceipt is returned to the bidder after a successful placement.
type BidReceipt struct {
	BidID     string    `json:"bid_id"`
	TopAmount int64     `json:"top_amount"`
	EndsAt    time.Time `json:"ends_at"`
	Extended  bool      `json:"extended"`
}

// TopStatus is the lightweight polling view clients use to resync after a
// missed real-time event.
type TopStatus struct {
	TopAmount    int64     `json:"top_amount"`
	MinIncrement int64     `json:"min_increment"`
	EndsAt       time.Time `json:"ends_at"`
	Status       string    `json:"status"`
}

// WinnerDTO is the settled outcome of an ended auction.
type WinnerDTO struct {
	BidderID string `json:"bidder_id,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
}

// Overview buckets auctions for the admin dashboard.
type Overview struct {
	Active []AuctionDTO `json:"active"`
	Ended  []AuctionDTO `json:"ended"`
	NoBids []AuctionDTO `json:"no_bids"`
}

// AuditEvent is an append-only record of a lifecycle transition.
type AuditEvent struct {
	Action string
	UserID string
	Meta   map[string]any
}
