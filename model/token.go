// file: model/token.go

package model

import "time"

// RefreshTokenRecord is the ledger row kept for every issued refresh token.
// Only the SHA-256 hex digest of the token is stored.
type RefreshTokenRecord struct {
	ID        int64      `json:"id"`
	TokenHash string     `json:"-"`
	UserID    int64      `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (r *RefreshTokenRecord) Revoked() bool {
	return r.RevokedAt != nil
}

// Usable reports whether the record can still be exchanged at now.
func (r *RefreshTokenRecord) Usable(now time.Time) bool {
	return !r.Revoked() && r.ExpiresAt.After(now)
}
