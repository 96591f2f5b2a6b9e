package model

import "time"

// Session is one active bearer token for a user. A user may hold any
// number of sessions at once (multi-device); revoking one leaves the
// others intact.
type Session struct {
	ID        string    `json:"-" db:"id"`
	UserID    string    `json:"-" db:"user_id"`
	Token     string    `json:"-" db:"token"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}
