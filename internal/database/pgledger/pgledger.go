package pgledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"auctionhousego/internal/services/auction"
)

// Ledger is the Postgres implementation of the auction persistence port.
// Per-auction serialization comes from row locks: every mutating statement
// runs in a transaction that first takes FOR UPDATE on the auction row, so
// two bids (or a bid and a closure) for the same auction never interleave.
type Ledger struct {
	db *sql.DB
}

var _ auction.Ledger = (*Ledger)(nil)

func New(db *sql.DB) *Ledger { return &Ledger{db: db} }

// topBidJoin resolves the single highest bid per auction. Ties on amount go
// to the earlier bid.
const topBidJoin = `
	LEFT JOIN LATERAL (
		SELECT id, bidder_id, amount
		  FROM bids
		 WHERE auction_id = a.id
		 ORDER BY amount DESC, created_at ASC
		 LIMIT 1
	) tb ON TRUE`

func (l *Ledger) GetSnapshot(ctx context.Context, auctionID string) (auction.Snapshot, error) {
	const q = `
	SELECT a.id, a.seller_id, a.title, a.status, a.starts_at, a.ends_at,
	       a.base_price, a.min_increment,
	       COALESCE(tb.id, ''), COALESCE(tb.amount, 0), COALESCE(tb.bidder_id, '')
	  FROM auctions a` + topBidJoin + `
	 WHERE a.id = $1`

	var s auction.Snapshot
	err := l.db.QueryRowContext(ctx, q, auctionID).Scan(
		&s.ID, &s.SellerID, &s.Title, &s.Status, &s.StartsAt, &s.EndsAt,
		&s.BasePrice, &s.MinIncrement,
		&s.TopBidID, &s.TopBidAmount, &s.TopBidderID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return auction.Snapshot{}, auction.ErrAuctionNotFound
	}
	if err != nil {
		return auction.Snapshot{}, err
	}
	return s, nil
}

func (l *Ledger) AppendBidAndMaybeExtend(ctx context.Context, auctionID string, bid auction.Bid, newEndsAt *time.Time, expectedTop int64) (auction.Bid, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return auction.Bid{}, err
	}
	defer tx.Rollback()

	// Serialization point: the row lock holds until commit.
	var status string
	var endsAt time.Time
	err = tx.QueryRowContext(ctx,
		`SELECT status, ends_at FROM auctions WHERE id = $1 FOR UPDATE`,
		auctionID).Scan(&status, &endsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auction.Bid{}, auction.ErrAuctionNotFound
	}
	if err != nil {
		return auction.Bid{}, err
	}
	if status != auction.StatusActive {
		return auction.Bid{}, auction.ErrAuctionInactive
	}

	var top int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(amount), 0) FROM bids WHERE auction_id = $1`,
		auctionID).Scan(&top)
	if err != nil {
		return auction.Bid{}, err
	}
	if top != expectedTop {
		// Another bid landed after the caller's snapshot; let it re-validate.
		return auction.Bid{}, auction.ErrStaleTop
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bids (id, auction_id, bidder_id, amount, created_at)
		      VALUES ($1, $2, $3, $4, $5)`,
		bid.ID, auctionID, bid.BidderID, bid.Amount, bid.CreatedAt)
	if err != nil {
		return auction.Bid{}, err
	}

	if newEndsAt != nil && newEndsAt.After(endsAt) {
		_, err = tx.ExecContext(ctx,
			`UPDATE auctions SET ends_at = $2 WHERE id = $1`,
			auctionID, *newEndsAt)
		if err != nil {
			return auction.Bid{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return auction.Bid{}, err
	}
	return bid, nil
}

func (l *Ledger) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]auction.Snapshot, error) {
	const q = `
	SELECT a.id, a.seller_id, a.title, a.status, a.starts_at, a.ends_at,
	       a.base_price, a.min_increment,
	       COALESCE(tb.id, ''), COALESCE(tb.amount, 0), COALESCE(tb.bidder_id, '')
	  FROM auctions a` + topBidJoin + `
	 WHERE a.status = 'ACTIVE' AND a.ends_at <= $1
	 ORDER BY a.ends_at ASC
	 LIMIT $2`

	rows, err := l.db.QueryContext(ctx, q, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auction.Snapshot
	for rows.Next() {
		var s auction.Snapshot
		if err := rows.Scan(
			&s.ID, &s.SellerID, &s.Title, &s.Status, &s.StartsAt, &s.EndsAt,
			&s.BasePrice, &s.MinIncrement,
			&s.TopBidID, &s.TopBidAmount, &s.TopBidderID,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CloseAuction is idempotent: the status guard in the UPDATE makes a
// re-processed auction a clean no-op with no duplicate audit row.
func (l *Ledger) CloseAuction(ctx context.Context, auctionID, winnerBidID string, audit auction.AuditEvent) (bool, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE auctions
		    SET status = 'ENDED', winner_bid_id = NULLIF($2, '')
		  WHERE id = $1 AND status = 'ACTIVE'`,
		auctionID, winnerBidID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, tx.Commit()
	}

	if err := insertAudit(ctx, tx, audit); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (l *Ledger) RecordAudit(ctx context.Context, e auction.AuditEvent) error {
	return insertAudit(ctx, l.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, db execer, e auction.AuditEvent) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO audit_log (id, action, user_id, meta) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), e.Action, e.UserID, meta)
	return err
}

func (l *Ledger) CreateAuction(ctx context.Context, a auction.AuctionDTO) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO auctions
		        (id, seller_id, title, description, condition,
		         personal_pickup, courier_shipping, invoice,
		         base_price, min_increment, reserve_price,
		         status, starts_at, ends_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, 0), $12, $13, $14, $15)`,
		a.ID, a.SellerID, a.Title, a.Description, a.Condition,
		a.PersonalPickup, a.CourierShipping, a.Invoice,
		a.BasePrice, a.MinIncrement, a.ReservePrice,
		a.Status, a.StartsAt, a.EndsAt, a.CreatedAt)
	return err
}

const auctionColumns = `
	SELECT a.id, a.seller_id, a.title, a.description, a.condition,
	       a.personal_pickup, a.courier_shipping, a.invoice,
	       a.base_price, a.min_increment, COALESCE(a.reserve_price, 0),
	       a.status, a.starts_at, a.ends_at, COALESCE(a.winner_bid_id, ''),
	       COALESCE(tb.amount, 0), COALESCE(tb.bidder_id, ''), a.created_at
	  FROM auctions a` + topBidJoin

func scanAuction(row interface{ Scan(...any) error }) (auction.AuctionDTO, error) {
	var a auction.AuctionDTO
	err := row.Scan(
		&a.ID, &a.SellerID, &a.Title, &a.Description, &a.Condition,
		&a.PersonalPickup, &a.CourierShipping, &a.Invoice,
		&a.BasePrice, &a.MinIncrement, &a.ReservePrice,
		&a.Status, &a.StartsAt, &a.EndsAt, &a.WinnerBidID,
		&a.TopAmount, &a.TopBidderID, &a.CreatedAt,
	)
	return a, err
}

func (l *Ledger) GetAuction(ctx context.Context, auctionID string) (auction.AuctionDTO, error) {
	row := l.db.QueryRowContext(ctx, auctionColumns+` WHERE a.id = $1`, auctionID)
	a, err := scanAuction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auction.AuctionDTO{}, auction.ErrAuctionNotFound
	}
	if err != nil {
		return auction.AuctionDTO{}, err
	}
	return a, nil
}

func (l *Ledger) ListAuctions(ctx context.Context, status, sort string, limit int) ([]auction.AuctionDTO, error) {
	q := auctionColumns + ` WHERE a.status = $1`
	switch sort {
	case "latest":
		q += ` ORDER BY a.created_at DESC`
	default:
		q += ` ORDER BY a.ends_at ASC`
	}

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = l.db.QueryContext(ctx, q+` LIMIT $2`, status, limit)
	} else {
		rows, err = l.db.QueryContext(ctx, q, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auction.AuctionDTO
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (l *Ledger) CountActive(ctx context.Context) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM auctions WHERE status = 'ACTIVE'`).Scan(&n)
	return n, err
}

func (l *Ledger) Winner(ctx context.Context, auctionID string) (string, auction.WinnerDTO, error) {
	const q = `
	SELECT a.status, COALESCE(b.bidder_id, ''), COALESCE(b.amount, 0)
	  FROM auctions a
	  LEFT JOIN bids b ON b.id = a.winner_bid_id
	 WHERE a.id = $1`

	var status string
	var w auction.WinnerDTO
	err := l.db.QueryRowContext(ctx, q, auctionID).Scan(&status, &w.BidderID, &w.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auction.WinnerDTO{}, auction.ErrAuctionNotFound
	}
	if err != nil {
		return "", auction.WinnerDTO{}, err
	}
	return status, w, nil
}
