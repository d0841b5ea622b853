package models

import (
	"time"
)

// UserRecord represents a user as held by the backend store.
type UserRecord struct {
	ID             string
	Email          string
	FullName       string
	Role           UserRole
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Public strips the password hash for API responses.
func (u *UserRecord) Public() User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// GuestSession tracks the query quota of an unauthenticated caller.
type GuestSession struct {
	SessionID    string    `json:"session_id"`
	QueriesUsed  int       `json:"queries_used"`
	QueriesLimit int       `json:"queries_limit"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Remaining returns the number of queries left, never negative.
func (g *GuestSession) Remaining() int {
	if g.QueriesUsed >= g.QueriesLimit {
		return 0
	}
	return g.QueriesLimit - g.QueriesUsed
}

// Expired reports whether the session is past its expiry at the given time.
func (g *GuestSession) Expired(now time.Time) bool {
	return !g.ExpiresAt.IsZero() && now.After(g.ExpiresAt)
}
