package store

import (
	"time"

	"pairlink/internal/constants"
)

// Record is one persisted session, scoped to a single hub identity. Only
// LastActivity ever changes after creation.
type Record struct {
	SessionID    string    `json:"session_id"`
	Token        string    `json:"token"`
	HubIdentity  string    `json:"hub_identity"`
	Hostname     string    `json:"hostname"`
	LastActivity time.Time `json:"last_activity"`
}

func NewRecord(sessionID, token, hubIdentity, hostname string, now time.Time) Record {
	return Record{
		SessionID:    sessionID,
		Token:        token,
		HubIdentity:  hubIdentity,
		Hostname:     hostname,
		LastActivity: now,
	}
}

// Valid reports whether the record is within the inactivity window. The
// hub stays authoritative; this only gates what the client presents.
func (r Record) Valid(now time.Time) bool {
	return now.Sub(r.LastActivity) < constants.SessionExpiry
}

// Refresh moves LastActivity forward. It never moves it backwards, so a
// skewed clock cannot shorten a session's remaining life.
func (r *Record) Refresh(now time.Time) {
	if now.After(r.LastActivity) {
		r.LastActivity = now
	}
}
