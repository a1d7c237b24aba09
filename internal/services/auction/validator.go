package auction

import "time"

// DefaultSnipeWindow is how close to the deadline a bid must land to
// trigger an extension, and also how far the deadline is pushed out.
const DefaultSnipeWindow = 120 * time.Second

type Outcome int

const (
	Accepted Outcome = iota
	RejectedMalformed
	RejectedInactive
	RejectedTooLow
)

// Decision is the validator's verdict on one proposed bid.
type Decision struct {
	Outcome     Outcome
	MinRequired int64      // set when Outcome == RejectedTooLow
	ExtendTo    *time.Time // set when the deadline must move (anti-sniping)
}

// Evaluate applies the bidding rules to a proposed amount against a state
// snapshot. It is pure: no I/O, no clock reads, no mutation.
//
// Rule order: malformed amount, inactive auction (wrong status or outside
// the [startsAt, endsAt] window), below minimum (current top plus the
// increment, where the top falls back to base price with no bids), then
// accepted. An accepted bid landing within snipeWindow of the deadline
// extends it by snipeWindow.
func Evaluate(snap Snapshot, amount int64, now time.Time, snipeWindow time.Duration) Decision {
	if amount <= 0 {
		return Decision{Outcome: RejectedMalformed}
	}
	if snap.Status != StatusActive || now.Before(snap.StartsAt) || now.After(snap.EndsAt) {
		return Decision{Outcome: RejectedInactive}
	}

	min := snap.CurrentTop() + snap.MinIncrement
	if amount < min {
		return Decision{Outcome: RejectedTooLow, MinRequired: min}
	}

	d := Decision{Outcome: Accepted}
	if snap.EndsAt.Sub(now) <= snipeWindow {
		extended := snap.EndsAt.Add(snipeWindow)
		d.ExtendTo = &extended
	}
	return d
}
