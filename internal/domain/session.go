package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the durable record of one authenticated device session.
// SessionToken equals the jti of the refresh token the session was created
// with and is the external handle for every lookup. AccessTokenJTI rebinds
// to the newest access token on every refresh.
type Session struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	SessionToken   string    `json:"session_token" db:"session_token"`
	AccessTokenJTI string    `json:"access_token_jti" db:"access_token_jti"`
	DeviceInfo     string    `json:"device_info" db:"device_info"`
	IP             string    `json:"ip" db:"ip"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at" db:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
}

// Valid reports whether the session may still authenticate requests.
// Revocation flips IsActive and keeps the row; only the expiry sweep deletes.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}

// CachedSession is the denormalized projection kept in the cache layer,
// keyed by SessionToken. It carries just enough to re-derive the validity
// predicate without touching the durable store.
type CachedSession struct {
	UserID         uuid.UUID `json:"user_id"`
	AccessTokenJTI string    `json:"access_token_jti"`
	IsActive       bool      `json:"is_active"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func (s *CachedSession) Valid(now time.Time) bool {
	return s.IsActive && now.Before(s.ExpiresAt)
}
