package settings

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Settings is the singleton configuration row admins tune at runtime.
// Zero limits mean unlimited.
type Settings struct {
	MaxActiveAuctions     int        `json:"max_active_auctions"`
	MaxWonAuctions        int        `json:"max_won_auctions"`
	NextAuctionAt         *time.Time `json:"next_auction_at"`
	AuctionCloseAt        *time.Time `json:"auction_close_at"`
	AuctionCloseNoticeSec int        `json:"auction_close_notice_sec"`
}

// Patch carries partial updates; nil fields are left unchanged.
type Patch struct {
	MaxActiveAuctions     *int       `json:"max_active_auctions"`
	MaxWonAuctions        *int       `json:"max_won_auctions"`
	NextAuctionAt         *time.Time `json:"next_auction_at"`
	AuctionCloseAt        *time.Time `json:"auction_close_at"`
	AuctionCloseNoticeSec *int       `json:"auction_close_notice_sec"`
}

type ISettingsService interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, p Patch) (Settings, error)
	MaxActiveAuctions(ctx context.Context) (int, error)
}

type settingsService struct {
	db *sql.DB
}

func NewService(db *sql.DB) ISettingsService {
	return &settingsService{db: db}
}

const settingsRowID = 1

func (svc *settingsService) Get(ctx context.Context) (Settings, error) {
	const q = `
	SELECT max_active_auctions, max_won_auctions,
	       next_auction_at, auction_close_at, auction_close_notice_sec
	  FROM settings WHERE id = $1`

	var s Settings
	err := svc.db.QueryRowContext(ctx, q, settingsRowID).Scan(
		&s.MaxActiveAuctions, &s.MaxWonAuctions,
		&s.NextAuctionAt, &s.AuctionCloseAt, &s.AuctionCloseNoticeSec,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// First read creates the row with defaults, like the admin UI expects.
		_, err = svc.db.ExecContext(ctx,
			`INSERT INTO settings (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
			settingsRowID)
		if err != nil {
			return Settings{}, err
		}
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (svc *settingsService) Save(ctx context.Context, p Patch) (Settings, error) {
	cur, err := svc.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	if p.MaxActiveAuctions != nil {
		cur.MaxActiveAuctions = *p.MaxActiveAuctions
	}
	if p.MaxWonAuctions != nil {
		cur.MaxWonAuctions = *p.MaxWonAuctions
	}
	if p.NextAuctionAt != nil {
		cur.NextAuctionAt = p.NextAuctionAt
	}
	if p.AuctionCloseAt != nil {
		cur.AuctionCloseAt = p.AuctionCloseAt
	}
	if p.AuctionCloseNoticeSec != nil {
		cur.AuctionCloseNoticeSec = *p.AuctionCloseNoticeSec
	}

	const upsert = `
	INSERT INTO settings (id, max_active_auctions, max_won_auctions,
	                      next_auction_at, auction_close_at, auction_close_notice_sec)
	     VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE
	        SET max_active_auctions      = EXCLUDED.max_active_auctions,
	            max_won_auctions         = EXCLUDED.max_won_auctions,
	            next_auction_at          = EXCLUDED.next_auction_at,
	            auction_close_at         = EXCLUDED.auction_close_at,
	            auction_close_notice_sec = EXCLUDED.auction_close_notice_sec`

	_, err = svc.db.ExecContext(ctx, upsert, settingsRowID,
		cur.MaxActiveAuctions, cur.MaxWonAuctions,
		cur.NextAuctionAt, cur.AuctionCloseAt, cur.AuctionCloseNoticeSec)
	if err != nil {
		return Settings{}, err
	}
	return cur, nil
}

// MaxActiveAuctions satisfies the auction service's capacity-check port.
func (svc *settingsService) MaxActiveAuctions(ctx context.Context) (int, error) {
	s, err := svc.Get(ctx)
	if err != nil {
		return 0, err
	}
	return s.MaxActiveAuctions, nil
}
