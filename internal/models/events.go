package models

import "time"

// ActiveEvent is a running instance of an event definition
type ActiveEvent struct {
	ID         string          `json:"id"`
	Definition EventDefinition `json:"definition"`
	BuildingID string          `json:"building_id"`
	StartedAt  time.Time       `json:"started_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// IsExpired returns true if the event has ended at the given time
func (e *ActiveEvent) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative
func (e *ActiveEvent) Remaining(now time.Time) time.Duration {
	if d := e.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Settlement records the rewards applied when an event expired
type Settlement struct {
	EventID    string       `json:"event_id"`
	Definition string       `json:"definition"`
	BuildingID string       `json:"building_id"`
	ExpiredAt  time.Time    `json:"expired_at"`
	Rewards    EventRewards `json:"rewards"`
}
