// Package types contains common types used across the application
package types

import "time"

// SessionInfo is the read shape of one live session.
type SessionInfo struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Remote    string    `json:"remote"`
	Slot      int       `json:"slot"`
	Backend   string    `json:"backend"`
	OpenedAt  time.Time `json:"opened_at"`
	Threshold string    `json:"double_tap"`
	Received  uint64    `json:"received"`
	Forwarded uint64    `json:"forwarded"`
	Swallowed uint64    `json:"swallowed"`
	Dropped   uint64    `json:"dropped"`
	Frames    uint64    `json:"frames"`
	Held      []string  `json:"held"`
	Failed    bool      `json:"failed"`
}

// Age returns how long the session has been open at now.
func (s SessionInfo) Age(now time.Time) time.Duration {
	if s.OpenedAt.IsZero() || now.Before(s.OpenedAt) {
		return 0
	}
	return now.Sub(s.OpenedAt)
}

// Holding reports whether the session currently latches name.
func (s SessionInfo) Holding(name string) bool {
	for _, h := range s.Held {
		if h == name {
			return true
		}
	}
	return false
}
