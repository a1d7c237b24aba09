package ws

import "encoding/json"

// Envelope wraps every WS frame in both directions.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "auctions/bid"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// BidRequest is the body for "auctions/bid". Amount is integer minor
// currency units, same as everywhere else.
type BidRequest struct {
	Amount int64 `json:"amount"`
}

// SnapshotBody is pushed once on join so a client starts from known state.
type SnapshotBody struct {
	TopAmount    int64  `json:"top_amount"`
	MinIncrement int64  `json:"min_increment"`
	EndsAt       string `json:"ends_at"`
	Status       string `json:"status"`
}

// ErrorBody carries a rejection reason to the offending connection only.
type ErrorBody struct {
	Error string `json:"error"`
}
