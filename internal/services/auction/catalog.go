package auction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAuctionInput carries an admin's new listing. Prices are already
// converted to minor units by the transport layer.
type CreateAuctionInput struct {
	SellerID        string
	Title           string
	Description     string
	Condition       string
	PersonalPickup  bool
	CourierShipping bool
	Invoice         bool
	BasePrice       int64
	MinIncrement    int64
	ReservePrice    int64
	StartsAt        time.Time
	EndsAt          time.Time
}

// RelistInput re-opens an ended listing with fresh pricing and window.
type RelistInput struct {
	BasePrice    int64
	MinIncrement int64
	StartsAt     time.Time
	EndsAt       time.Time
}

func (svc *auctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (AuctionDTO, error) {
	if in.Title == "" || in.Description == "" || in.Condition == "" ||
		in.BasePrice <= 0 || in.MinIncrement <= 0 {
		return AuctionDTO{}, ErrMissingFields
	}
	if !in.EndsAt.After(in.StartsAt) {
		return AuctionDTO{}, ErrEndsBeforeStarts
	}

	if max, err := svc.limits.MaxActiveAuctions(ctx); err != nil {
		return AuctionDTO{}, err
	} else if max > 0 {
		active, err := svc.ledger.CountActive(ctx)
		if err != nil {
			return AuctionDTO{}, err
		}
		if active >= max {
			return AuctionDTO{}, ErrActiveLimit
		}
	}

	a := AuctionDTO{
		ID:              uuid.NewString(),
		SellerID:        in.SellerID,
		Title:           in.Title,
		Description:     in.Description,
		Condition:       in.Condition,
		PersonalPickup:  in.PersonalPickup,
		CourierShipping: in.CourierShipping,
		Invoice:         in.Invoice,
		BasePrice:       in.BasePrice,
		MinIncrement:    in.MinIncrement,
		ReservePrice:    in.ReservePrice,
		Status:          StatusActive,
		StartsAt:        in.StartsAt.UTC(),
		EndsAt:          in.EndsAt.UTC(),
		CreatedAt:       svc.clk.Now(),
	}
	if err := svc.ledger.CreateAuction(ctx, a); err != nil {
		return AuctionDTO{}, err
	}

	err := svc.ledger.RecordAudit(ctx, AuditEvent{
		Action: "AUCTION_CREATE",
		UserID: in.SellerID,
		Meta:   map[string]any{"auctionId": a.ID, "basePrice": a.BasePrice},
	})
	if err != nil {
		zap.L().Warn("auction.audit_create", zap.String("auction_id", a.ID), zap.Error(err))
	}
	return a, nil
}

// Relist clones an ended auction into a fresh ACTIVE one, keeping the item
// description and shipping flags but taking new prices and a new window.
func (svc *auctionService) Relist(ctx context.Context, auctionID string, in RelistInput) (AuctionDTO, error) {
	if in.BasePrice <= 0 || in.MinIncrement <= 0 {
		return AuctionDTO{}, ErrMissingFields
	}
	old, err := svc.ledger.GetAuction(ctx, auctionID)
	if err != nil {
		return AuctionDTO{}, err
	}
	return svc.CreateAuction(ctx, CreateAuctionInput{
		SellerID:        old.SellerID,
		Title:           old.Title,
		Description:     old.Description,
		Condition:       old.Condition,
		PersonalPickup:  old.PersonalPickup,
		CourierShipping: old.CourierShipping,
		Invoice:         old.Invoice,
		BasePrice:       in.BasePrice,
		MinIncrement:    in.MinIncrement,
		ReservePrice:    old.ReservePrice,
		StartsAt:        in.StartsAt,
		EndsAt:          in.EndsAt,
	})
}

func (svc *auctionService) GetAuction(ctx context.Context, auctionID string) (AuctionDTO, error) {
	return svc.ledger.GetAuction(ctx, auctionID)
}

func (svc *auctionService) ListAuctions(ctx context.Context, sort string, limit int) ([]AuctionDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return svc.ledger.ListAuctions(ctx, StatusActive, sort, limit)
}

func (svc *auctionService) Winner(ctx context.Context, auctionID string) (WinnerDTO, error) {
	status, w, err := svc.ledger.Winner(ctx, auctionID)
	if err != nil {
		return WinnerDTO{}, err
	}
	if status != StatusEnded {
		return WinnerDTO{}, ErrAuctionNotEnded
	}
	return w, nil
}

func (svc *auctionService) AdminOverview(ctx context.Context) (Overview, error) {
	active, err := svc.ledger.ListAuctions(ctx, StatusActive, "ending", 0)
	if err != nil {
		return Overview{}, err
	}
	ended, err := svc.ledger.ListAuctions(ctx, StatusEnded, "latest", 0)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{Active: active, Ended: []AuctionDTO{}, NoBids: []AuctionDTO{}}
	for _, a := range ended {
		if a.TopAmount > 0 {
			ov.Ended = append(ov.Ended, a)
		} else {
			ov.NoBids = append(ov.NoBids, a)
		}
	}
	return ov, nil
}
