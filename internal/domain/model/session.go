package model

import "time"

// LoginResult is what the auth endpoint returns on success.
type LoginResult struct {
	Token   string
	Message string
}

// Session is an authenticated technician session. It is a value: a new login
// produces a new Session rather than mutating an existing one.
type Session struct {
	Token     string
	IssuedFor string
	Message   string
	// ExpiresAt is zero unless the token carries a readable exp claim.
	ExpiresAt time.Time
}

// Expired reports whether the session has a known expiry that lies before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
