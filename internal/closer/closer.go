package closer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"auctionhousego/internal/clock"
	"auctionhousego/internal/notify"
	"auctionhousego/internal/services/auction"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultBatch    = 20
)

// Closer sweeps expired-but-active auctions on a fixed cadence, finalizes
// each exactly once, and notifies the winner.
type Closer struct {
	ledger   auction.Ledger
	notifier notify.Notifier
	pub      auction.Publisher
	clk      clock.Clock
	interval time.Duration
	batch    int
}

func New(ledger auction.Ledger, notifier notify.Notifier, pub auction.Publisher, clk clock.Clock, interval time.Duration, batch int) *Closer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if batch <= 0 {
		batch = DefaultBatch
	}
	return &Closer{
		ledger:   ledger,
		notifier: notifier,
		pub:      pub,
		clk:      clk,
		interval: interval,
		batch:    batch,
	}
}

// Run starts the sweep loop in the background. Each tick's Sweep completes
// before the next one is served, so overlapping sweeps cannot
// double-process a batch; expired auctions beyond the batch bound are
// picked up on the following tick.
func (c *Closer) Run(ctx context.Context) {
	tk := time.NewTicker(c.interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if err := c.Sweep(ctx); err != nil {
					zap.L().Warn("closer.sweep", zap.Error(err))
				}
			}
		}
	}()
}

// Sweep runs one closing pass. Each auction's closure is its own atomic
// unit; a failure on one does not stop the rest, and a storage failure on
// the scan itself is reported and retried on the next tick.
func (c *Closer) Sweep(ctx context.Context) error {
	now := c.clk.Now()
	expired, err := c.ledger.FindExpiredActive(ctx, now, c.batch)
	if err != nil {
		return err
	}

	for _, snap := range expired {
		c.closeOne(ctx, snap, now)
	}
	return nil
}

func (c *Closer) closeOne(ctx context.Context, snap auction.Snapshot, now time.Time) {
	meta := map[string]any{"auctionId": snap.ID}
	if snap.TopBidID != "" {
		meta["top"] = snap.TopBidAmount
	}

	closed, err := c.ledger.CloseAuction(ctx, snap.ID, snap.TopBidID, auction.AuditEvent{
		Action: "AUCTION_END",
		UserID: snap.SellerID,
		Meta:   meta,
	})
	if err != nil {
		zap.L().Error("closer.close", zap.String("auction_id", snap.ID), zap.Error(err))
		return
	}
	if !closed {
		// Lost to a concurrent closure; nothing more to do.
		return
	}

	zap.L().Info("auction closed",
		zap.String("auction_id", snap.ID),
		zap.String("winner_bid_id", snap.TopBidID),
		zap.Int64("top_amount", snap.TopBidAmount),
	)

	if err := c.pub.Publish(ctx, snap.ID, auction.EventClosed, map[string]any{
		"winner_bid_id": snap.TopBidID,
		"amount":        snap.TopBidAmount,
	}); err != nil {
		zap.L().Warn("closer.publish", zap.String("auction_id", snap.ID), zap.Error(err))
	}

	// Notification runs after the commit, outside any lock, and its failure
	// never undoes the closure.
	if snap.TopBidID == "" {
		return
	}
	if err := c.notifier.NotifyWinner(ctx, snap.TopBidderID, snap.Title, snap.TopBidAmount); err != nil {
		zap.L().Warn("closer.notify",
			zap.String("auction_id", snap.ID),
			zap.String("winner", snap.TopBidderID),
			zap.Error(err),
		)
	}
}
