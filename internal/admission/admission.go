// Package admission holds the capacity rules for event RSVPs. Everything here is
// pure; storage runs Decide inside the same transaction as the write it guards.
package admission

import (
	"fmt"
	"time"
)

type Decision int

const (
	Admit Decision = iota + 1
	AlreadyRegistered
	Full
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case AlreadyRegistered:
		return "already_registered"
	case Full:
		return "full"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Allowed reports whether the decision lets the write proceed.
func (d Decision) Allowed() bool {
	return d == Admit || d == AlreadyRegistered
}

// Registration describes the RSVP row already stored for a candidate email.
type Registration struct {
	Exists    bool
	Confirmed bool
}

// Decide admits a candidate against capacity. capacity nil means unlimited;
// confirmed is the current number of confirmed RSVPs for the event.
//
// A first-time registrant is Full once confirmed >= capacity. A known email is
// AlreadyRegistered and may always update its row, unless it is re-confirming a
// cancelled RSVP while the event has no spot left. That case is Full: a
// cancelled row holds no seat, so letting it re-confirm past capacity would
// overbook the event. Re-submissions therefore skip the capacity check only
// while the stored row is confirmed or the new status is cancelled.
func Decide(capacity *int, confirmed int, prior Registration, wantConfirmed bool) Decision {
	full := capacity != nil && confirmed >= *capacity
	if !prior.Exists {
		if full {
			return Full
		}
		return Admit
	}
	if !prior.Confirmed && wantConfirmed && full {
		return Full
	}
	return AlreadyRegistered
}

// Delta is the change in the confirmed count a permitted write causes.
func Delta(prior Registration, wantConfirmed bool) int {
	was := prior.Exists && prior.Confirmed
	switch {
	case !was && wantConfirmed:
		return 1
	case was && !wantConfirmed:
		return -1
	}
	return 0
}

type CapacityState string

const (
	StateOpen CapacityState = "open"
	StateFull CapacityState = "full"
)

// State reports whether an event can take one more confirmed attendee.
func State(capacity *int, confirmed int) CapacityState {
	if capacity != nil && confirmed >= *capacity {
		return StateFull
	}
	return StateOpen
}

// SpotsLeft returns the remaining confirmed spots, or nil for unlimited events.
func SpotsLeft(capacity *int, confirmed int) *int {
	if capacity == nil {
		return nil
	}
	left := *capacity - confirmed
	if left < 0 {
		left = 0
	}
	return &left
}

// GrowthPercentage compares this month's confirmed RSVPs with last month's.
// With no RSVPs last month the result is 100, or 0 when this month is empty too.
func GrowthPercentage(thisMonth, lastMonth int) float64 {
	if lastMonth == 0 {
		if thisMonth == 0 {
			return 0
		}
		return 100
	}
	return float64(thisMonth-lastMonth) / float64(lastMonth) * 100
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// MonthWindows returns the calendar month containing now and the month before
// it, computed in now's location.
func MonthWindows(now time.Time) (current, previous Window) {
	y, m, _ := now.Date()
	loc := now.Location()
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	current = Window{From: start, To: start.AddDate(0, 1, 0)}
	previous = Window{From: start.AddDate(0, -1, 0), To: start}
	return current, previous
}
