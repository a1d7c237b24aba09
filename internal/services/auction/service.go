package auction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"auctionhousego/internal/clock"
)

const (
	EventNewBid        = "new-bid"
	EventEndsAtUpdated = "ends-at-updated"
	EventClosed        = "closed"
)

// Publisher pushes an event to every subscriber of one auction's room.
// Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, auctionID, event string, body map[string]any) error
}

type IAuctionService interface {
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (BidReceipt, error)
	CreateAuction(ctx context.Context, in CreateAuctionInput) (AuctionDTO, error)
	Relist(ctx context.Context, auctionID string, in RelistInput) (AuctionDTO, error)
	GetAuction(ctx context.Context, auctionID string) (AuctionDTO, error)
	ListAuctions(ctx context.Context, sort string, limit int) ([]AuctionDTO, error)
	TopStatus(ctx context.Context, auctionID string) (TopStatus, error)
	Winner(ctx context.Context, auctionID string) (WinnerDTO, error)
	AdminOverview(ctx context.Context) (Overview, error)
}

// ActiveLimit reports the maximum number of concurrently ACTIVE auctions,
// 0 meaning unlimited. Backed by the settings singleton.
type ActiveLimit interface {
	MaxActiveAuctions(ctx context.Context) (int, error)
}

type auctionService struct {
	ledger      Ledger
	pub         Publisher
	limits      ActiveLimit
	clk         clock.Clock
	snipeWindow time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex // auctionID -> commit+publish lock
}

func NewService(ledger Ledger, pub Publisher, limits ActiveLimit, clk clock.Clock, snipeWindow time.Duration) IAuctionService {
	if snipeWindow <= 0 {
		snipeWindow = DefaultSnipeWindow
	}
	return &auctionService{
		ledger:      ledger,
		pub:         pub,
		limits:      limits,
		clk:         clk,
		snipeWindow: snipeWindow,
		locks:       make(map[string]*sync.Mutex),
	}
}

func (svc *auctionService) lockFor(auctionID string) *sync.Mutex {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	l, ok := svc.locks[auctionID]
	if !ok {
		l = &sync.Mutex{}
		svc.locks[auctionID] = l
	}
	return l
}

// PlaceBid is the single funnel for both the HTTP endpoint and the
// websocket channel: load, validate, append atomically, fan out.
//
// A lost race on the top bid (another bid committed between the snapshot
// read and the append) is retried once against fresh state; a second loss
// is reported as too-low so the caller sees a normal rejection, not a
// server error. Per auction, events are published in the order the bids
// committed.
func (svc *auctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (BidReceipt, error) {
	var lastMin int64
	for attempt := 0; attempt < 2; attempt++ {
		snap, err := svc.ledger.GetSnapshot(ctx, auctionID)
		if err != nil {
			return BidReceipt{}, err
		}

		now := svc.clk.Now()
		dec := Evaluate(snap, amount, now, svc.snipeWindow)
		switch dec.Outcome {
		case RejectedMalformed:
			return BidReceipt{}, ErrInvalidAmount
		case RejectedInactive:
			return BidReceipt{}, ErrAuctionInactive
		case RejectedTooLow:
			return BidReceipt{}, &BidTooLowError{MinRequired: dec.MinRequired}
		}
		lastMin = snap.CurrentTop() + snap.MinIncrement

		bid := Bid{
			ID:        uuid.NewString(),
			AuctionID: auctionID,
			BidderID:  bidderID,
			Amount:    amount,
			CreatedAt: now,
		}
		committed, err := svc.commitAndBroadcast(ctx, auctionID, bid, dec, snap.TopBidAmount)
		if errors.Is(err, ErrStaleTop) {
			continue
		}
		if err != nil {
			return BidReceipt{}, err
		}

		endsAt := snap.EndsAt
		if dec.ExtendTo != nil {
			endsAt = *dec.ExtendTo
		}

		return BidReceipt{
			BidID:     committed.ID,
			TopAmount: committed.Amount,
			EndsAt:    endsAt,
			Extended:  dec.ExtendTo != nil,
		}, nil
	}
	return BidReceipt{}, &BidTooLowError{MinRequired: lastMin}
}

// commitAndBroadcast holds the auction's lock across the ledger append and
// the publish, so events reach the room in commit order: a later bid cannot
// commit, let alone publish, before the previous bid's events are out.
func (svc *auctionService) commitAndBroadcast(ctx context.Context, auctionID string, bid Bid, dec Decision, expectedTop int64) (Bid, error) {
	lock := svc.lockFor(auctionID)
	lock.Lock()
	defer lock.Unlock()

	committed, err := svc.ledger.AppendBidAndMaybeExtend(ctx, auctionID, bid, dec.ExtendTo, expectedTop)
	if err != nil {
		return Bid{}, err
	}
	svc.broadcastBid(ctx, auctionID, committed, dec.ExtendTo)
	return committed, nil
}

func (svc *auctionService) broadcastBid(ctx context.Context, auctionID string, bid Bid, extendTo *time.Time) {
	err := svc.pub.Publish(ctx, auctionID, EventNewBid, map[string]any{
		"amount":     bid.Amount,
		"bidder_id":  bid.BidderID,
		"created_at": bid.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		zap.L().Warn("bid.publish", zap.String("auction_id", auctionID), zap.Error(err))
	}
	if extendTo == nil {
		return
	}
	err = svc.pub.Publish(ctx, auctionID, EventEndsAtUpdated, map[string]any{
		"ends_at": extendTo.Format(time.RFC3339),
	})
	if err != nil {
		zap.L().Warn("bid.publish_extension", zap.String("auction_id", auctionID), zap.Error(err))
	}
}

// TopStatus serves the polling resync endpoint.
func (svc *auctionService) TopStatus(ctx context.Context, auctionID string) (TopStatus, error) {
	snap, err := svc.ledger.GetSnapshot(ctx, auctionID)
	if err != nil {
		return TopStatus{}, err
	}
	return TopStatus{
		TopAmount:    snap.CurrentTop(),
		MinIncrement: snap.MinIncrement,
		EndsAt:       snap.EndsAt,
		Status:       snap.Status,
	}, nil
}
