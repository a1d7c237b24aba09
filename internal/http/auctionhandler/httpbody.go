package auctionhandler

import "time"

// CreateAuctionBody takes prices as major-unit strings ("1500,50") the way
// the admin UI submits them; they are converted to minor units server-side.
type CreateAuctionBody struct {
	Title           string    `json:"title"            binding:"required"`
	Description     string    `json:"description"      binding:"required"`
	Condition       string    `json:"condition"        binding:"required"`
	PersonalPickup  bool      `json:"personal_pickup"`
	CourierShipping bool      `json:"courier_shipping"`
	Invoice         bool      `json:"invoice"`
	BasePrice       string    `json:"base_price"       binding:"required" example:"100,00"`
	MinIncrement    string    `json:"min_increment"    binding:"required" example:"5,00"`
	ReservePrice    string    `json:"reserve_price"`
	StartsAt        time.Time `json:"starts_at"        binding:"required" example:"2025-07-27T16:05:05Z"`
	EndsAt          time.Time `json:"ends_at"          binding:"required" example:"2025-07-28T16:05:05Z"`
} // @name CreateAuctionRequest

type RelistBody struct {
	BasePrice    string    `json:"base_price"    binding:"required" example:"100,00"`
	MinIncrement string    `json:"min_increment" binding:"required" example:"5,00"`
	StartsAt     time.Time `json:"starts_at"     binding:"required"`
	EndsAt       time.Time `json:"ends_at"       binding:"required"`
} // @name RelistRequest

// PlaceBidBody carries the bid in integer minor currency units.
type PlaceBidBody struct {
	Amount int64 `json:"amount" binding:"required,gt=0" example:"10500"`
} // @name PlaceBidRequest

type ErrorResponse struct {
	Error       string `json:"error"`
	MinRequired int64  `json:"min_required,omitempty"`
} // @name ErrorResponse

type ListAuctionsQuery struct {
	Sort  string `form:"sort"  binding:"omitempty,oneof=latest ending"`
	Limit int    `form:"limit,default=50" binding:"gte=0,lte=100"`
} // @name ListAuctionsQuery
