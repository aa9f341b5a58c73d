package core

import "time"

// ClientRateLimitState is the persisted sliding log for the client tier.
// Requests holds attempt timestamps inside the trailing window, oldest first.
type ClientRateLimitState struct {
	Requests    []time.Time `json:"requests"`
	LockedUntil *time.Time  `json:"locked_until,omitempty"`
}

// Locked reports whether a lockout is active at now.
func (s *ClientRateLimitState) Locked(now time.Time) bool {
	return s != nil && s.LockedUntil != nil && now.Before(*s.LockedUntil)
}
