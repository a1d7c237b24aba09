package auction

import (
	"context"
	"time"
)

// Ledger is the persistence boundary for auctions and bids. Implementations
// must serialize all mutations to a single auction (bid append, deadline
// extension, closure); mutations to different auctions may run in parallel.
type Ledger interface {
	// GetSnapshot loads the bidding-path view of one auction.
	// Returns ErrAuctionNotFound for unknown ids.
	GetSnapshot(ctx context.Context, auctionID string) (Snapshot, error)

	// AppendBidAndMaybeExtend atomically appends bid and, when newEndsAt is
	// non-nil, moves the deadline forward. expectedTop is the top bid amount
	// the caller validated against; if another bid landed in between, the
	// append fails with ErrStaleTop and nothing is written. A deadline only
	// ever moves forward, and only while the auction is ACTIVE
	// (ErrAuctionInactive otherwise).
	AppendBidAndMaybeExtend(ctx context.Context, auctionID string, bid Bid, newEndsAt *time.Time, expectedTop int64) (Bid, error)

	// FindExpiredActive returns up to limit auctions that are still ACTIVE
	// but whose deadline is at or before now, each with its top bid resolved.
	FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]Snapshot, error)

	// CloseAuction transitions one auction to ENDED, fixes winnerBidID
	// (empty means no winner) and writes the audit record, all in one atomic
	// step. Returns false without error when the auction was already closed,
	// making overlapping sweeps a no-op.
	CloseAuction(ctx context.Context, auctionID, winnerBidID string, audit AuditEvent) (bool, error)

	// RecordAudit appends a standalone audit record.
	RecordAudit(ctx context.Context, e AuditEvent) error

	// Marketplace reads and writes outside the hot path.
	CreateAuction(ctx context.Context, a AuctionDTO) error
	GetAuction(ctx context.Context, auctionID string) (AuctionDTO, error)
	ListAuctions(ctx context.Context, status, sort string, limit int) ([]AuctionDTO, error)
	CountActive(ctx context.Context) (int, error)
	Winner(ctx context.Context, auctionID string) (string, WinnerDTO, error)
}
