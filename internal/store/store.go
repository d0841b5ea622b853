package store

import (
	"context"
	"errors"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/models"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique field (such as a user email) is already taken.
	ErrConflict = errors.New("record already exists")
	// ErrQuotaExhausted is returned when a guest session has no queries left.
	ErrQuotaExhausted = errors.New("guest query quota exhausted")
)

// Store defines the interface for backend persistence.
// This allows for mocking in tests and potential backend switching.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *models.UserRecord) error
	GetUserByEmail(ctx context.Context, email string) (*models.UserRecord, error)
	GetUserByID(ctx context.Context, id string) (*models.UserRecord, error)

	// Conversation operations. Conversations are always scoped to their owner.
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	ListConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error)
	// AppendMessages adds msgs in order and, when title is non-nil, sets the title.
	AppendMessages(ctx context.Context, id, userID string, title *string, msgs ...models.Message) (*models.Conversation, error)

	// Guest session operations
	CreateGuestSession(ctx context.Context, sess *models.GuestSession) error
	GetGuestSession(ctx context.Context, sessionID string) (*models.GuestSession, error)
	// ConsumeGuestQuery increments queries_used, or returns ErrQuotaExhausted
	// when the session is already at its limit.
	ConsumeGuestQuery(ctx context.Context, sessionID string) (*models.GuestSession, error)

	// Token revocation, keyed by JWT id
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}
