package passwordreset

import "time"

const DefaultTTL = time.Hour

// Token is a single-use grant to replace one user's password.
// Records are kept after use as an audit trail.
type Token struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
}

// RedeemableAt reports whether the token may still be consumed at now.
func (t Token) RedeemableAt(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
