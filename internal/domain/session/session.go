package session

import "time"

// DefaultTTL is the absolute lifetime of a session. There is no sliding renewal.
const DefaultTTL = 7 * 24 * time.Hour

// Session is a capability: holding its ID authenticates as UserID until ExpiresAt.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
}

// ExpiredAt reports whether the session is no longer valid at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
