package activity

import "time"

type Type string

const (
	TypeLogin    Type = "login"
	TypeSignup   Type = "signup"
	TypeBookmark Type = "bookmark"
	TypeRating   Type = "rating"
	TypeComment  Type = "comment"
)

type Activity struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	Type       Type      `json:"type" db:"type"`
	TargetSlug *string   `json:"targetSlug,omitempty" db:"target_slug"`
	Details    string    `json:"details" db:"details"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}
