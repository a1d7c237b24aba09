package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auctionhousego/internal/clock"
	"auctionhousego/internal/services/auction"
)

// sweepLedger implements just enough of the Ledger for closing.
type sweepLedger struct {
	mu       sync.Mutex
	expired  []auction.Snapshot
	statuses map[string]string
	closes   []string
	audits   []auction.AuditEvent
	findErr  error
}

func newSweepLedger(expired ...auction.Snapshot) *sweepLedger {
	statuses := make(map[string]string, len(expired))
	for _, s := range expired {
		statuses[s.ID] = s.Status
	}
	return &sweepLedger{expired: expired, statuses: statuses}
}

func (l *sweepLedger) FindExpiredActive(_ context.Context, now time.Time, limit int) ([]auction.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.findErr != nil {
		return nil, l.findErr
	}
	var out []auction.Snapshot
	for _, s := range l.expired {
		if l.statuses[s.ID] == auction.StatusActive && !s.EndsAt.After(now) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *sweepLedger) CloseAuction(_ context.Context, id, winnerBidID string, audit auction.AuditEvent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.statuses[id] != auction.StatusActive {
		return false, nil
	}
	l.statuses[id] = auction.StatusEnded
	l.closes = append(l.closes, id)
	l.audits = append(l.audits, audit)
	return true, nil
}

func (l *sweepLedger) GetSnapshot(context.Context, string) (auction.Snapshot, error) {
	return auction.Snapshot{}, auction.ErrAuctionNotFound
}
func (l *sweepLedger) AppendBidAndMaybeExtend(context.Context, string, auction.Bid, *time.Time, int64) (auction.Bid, error) {
	return auction.Bid{}, auction.ErrAuctionInactive
}
func (l *sweepLedger) RecordAudit(context.Context, auction.AuditEvent) error { return nil }
func (l *sweepLedger) CreateAuction(context.Context, auction.AuctionDTO) error {
	return nil
}
func (l *sweepLedger) GetAuction(context.Context, string) (auction.AuctionDTO, error) {
	return auction.AuctionDTO{}, auction.ErrAuctionNotFound
}
func (l *sweepLedger) ListAuctions(context.Context, string, string, int) ([]auction.AuctionDTO, error) {
	return nil, nil
}
func (l *sweepLedger) CountActive(context.Context) (int, error) { return 0, nil }
func (l *sweepLedger) Winner(context.Context, string) (string, auction.WinnerDTO, error) {
	return "", auction.WinnerDTO{}, auction.ErrAuctionNotFound
}

type notification struct {
	winner string
	title  string
	amount int64
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	fail bool
}

func (n *fakeNotifier) NotifyWinner(_ context.Context, winner, title string, amount int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, notification{winner, title, amount})
	return nil
}

type nopPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *nopPublisher) Publish(_ context.Context, _ string, event string, _ map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestSweep_ClosesWithWinnerAndNotifiesOnce(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newSweepLedger(auction.Snapshot{
		ID: "auc-1", SellerID: "seller-1", Title: "Vintage amp",
		Status: auction.StatusActive, EndsAt: now.Add(-time.Minute),
		TopBidID: "bid-1", TopBidAmount: 20000, TopBidderID: "user-9",
	})
	notifier := &fakeNotifier{}
	pub := &nopPublisher{}
	c := New(ledger, notifier, pub, clock.NewFixed(now), DefaultInterval, DefaultBatch)

	require.NoError(t, c.Sweep(context.Background()))

	assert.Equal(t, auction.StatusEnded, ledger.statuses["auc-1"])
	require.Len(t, ledger.audits, 1)
	assert.Equal(t, "AUCTION_END", ledger.audits[0].Action)
	assert.Equal(t, "seller-1", ledger.audits[0].UserID)
	assert.Equal(t, int64(20000), ledger.audits[0].Meta["top"])

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, notification{"user-9", "Vintage amp", 20000}, notifier.sent[0])
	assert.Contains(t, pub.events, auction.EventClosed)
}

func TestSweep_NoBidsClosesWithoutNotification(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newSweepLedger(auction.Snapshot{
		ID: "auc-2", SellerID: "seller-1", Title: "Empty lot",
		Status: auction.StatusActive, EndsAt: now.Add(-time.Second),
	})
	notifier := &fakeNotifier{}
	c := New(ledger, notifier, &nopPublisher{}, clock.NewFixed(now), DefaultInterval, DefaultBatch)

	require.NoError(t, c.Sweep(context.Background()))

	assert.Equal(t, auction.StatusEnded, ledger.statuses["auc-2"])
	assert.Empty(t, notifier.sent)
	require.Len(t, ledger.audits, 1)
	_, hasTop := ledger.audits[0].Meta["top"]
	assert.False(t, hasTop, "no top amount recorded without bids")
}

func TestSweep_SecondPassIsNoOp(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newSweepLedger(auction.Snapshot{
		ID: "auc-1", SellerID: "seller-1", Title: "Vintage amp",
		Status: auction.StatusActive, EndsAt: now.Add(-time.Minute),
		TopBidID: "bid-1", TopBidAmount: 20000, TopBidderID: "user-9",
	})
	notifier := &fakeNotifier{}
	c := New(ledger, notifier, &nopPublisher{}, clock.NewFixed(now), DefaultInterval, DefaultBatch)

	require.NoError(t, c.Sweep(context.Background()))
	require.NoError(t, c.Sweep(context.Background()))

	assert.Len(t, ledger.closes, 1, "one real closure")
	assert.Len(t, ledger.audits, 1, "no duplicate audit record")
	assert.Len(t, notifier.sent, 1, "no duplicate notification")
}

func TestSweep_NotificationFailureDoesNotUndoClosure(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newSweepLedger(auction.Snapshot{
		ID: "auc-1", SellerID: "seller-1", Title: "Vintage amp",
		Status: auction.StatusActive, EndsAt: now.Add(-time.Minute),
		TopBidID: "bid-1", TopBidAmount: 20000, TopBidderID: "user-9",
	})
	notifier := &fakeNotifier{fail: true}
	c := New(ledger, notifier, &nopPublisher{}, clock.NewFixed(now), DefaultInterval, DefaultBatch)

	require.NoError(t, c.Sweep(context.Background()))
	assert.Equal(t, auction.StatusEnded, ledger.statuses["auc-1"])
}

func TestSweep_BatchBound(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var snaps []auction.Snapshot
	for _, id := range []string{"a", "b", "c"} {
		snaps = append(snaps, auction.Snapshot{
			ID: id, SellerID: "s", Title: id,
			Status: auction.StatusActive, EndsAt: now.Add(-time.Minute),
		})
	}
	ledger := newSweepLedger(snaps...)
	c := New(ledger, &fakeNotifier{}, &nopPublisher{}, clock.NewFixed(now), DefaultInterval, 2)

	require.NoError(t, c.Sweep(context.Background()))
	assert.Len(t, ledger.closes, 2, "first tick bounded by batch size")

	require.NoError(t, c.Sweep(context.Background()))
	assert.Len(t, ledger.closes, 3, "remainder picked up next tick")
}

func TestSweep_ScanFailureSurfaces(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ledger := newSweepLedger()
	ledger.findErr = errors.New("pg down")
	c := New(ledger, &fakeNotifier{}, &nopPublisher{}, clock.NewFixed(now), DefaultInterval, DefaultBatch)

	assert.Error(t, c.Sweep(context.Background()))
}
