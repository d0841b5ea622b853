package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
)

// Compile-time check to ensure MemoryStore implements store.Store
var _ store.Store = (*MemoryStore)(nil)

// MemoryStore keeps every record in process memory. Returned values are
// copies, so callers may modify them freely.
type MemoryStore struct {
	mu            sync.RWMutex
	now           func() time.Time
	users         map[string]*models.UserRecord // by id
	emails        map[string]string             // lower-cased email -> user id
	conversations map[string]*models.Conversation
	guests        map[string]*models.GuestSession
	revoked       map[string]time.Time // jti -> token expiry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		users:         make(map[string]*models.UserRecord),
		emails:        make(map[string]string),
		conversations: make(map[string]*models.Conversation),
		guests:        make(map[string]*models.GuestSession),
		revoked:       make(map[string]time.Time),
	}
}

// --- Users ---

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.UserRecord) error {
	key := strings.ToLower(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[key]; exists {
		log.Printf("[MemoryStore] CreateUser: email %s already registered", user.Email)
		return fmt.Errorf("creating user %s: %w", user.Email, store.ErrConflict)
	}
	if _, exists := s.users[user.ID]; exists {
		return fmt.Errorf("creating user id %s: %w", user.ID, store.ErrConflict)
	}

	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	u := *user
	s.users[u.ID] = &u
	s.emails[key] = u.ID
	log.Printf("[MemoryStore] CreateUser: stored user ID %s for email %s", u.ID, u.Email)
	return nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *s.users[id]
	return &u, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*models.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := *user
	return &u, nil
}

// --- Conversations ---

func (s *MemoryStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("creating conversation %s: %w", conv.ID, store.ErrConflict)
	}
	now := s.now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = conv.CreatedAt
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	c := conv.Clone()
	s.conversations[c.ID] = &c
	return nil
}

// ListConversationsByUser returns the user's conversations, most recently
// updated first.
func (s *MemoryStore) ListConversationsByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Conversation{}
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) GetConversation(ctx context.Context, id, userID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	out := c.Clone()
	return &out, nil
}

func (s *MemoryStore) AppendMessages(ctx context.Context, id, userID string, title *string, msgs ...models.Message) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	for _, m := range msgs {
		m.ConversationID = id
		c.Messages = append(c.Messages, m)
	}
	if title != nil {
		c.Title = *title
	}
	c.UpdatedAt = s.now()
	out := c.Clone()
	return &out, nil
}

// --- Guest sessions ---

func (s *MemoryStore) CreateGuestSession(ctx context.Context, sess *models.GuestSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()
	if _, exists := s.guests[sess.SessionID]; exists {
		return fmt.Errorf("creating guest session: %w", store.ErrConflict)
	}
	g := *sess
	s.guests[g.SessionID] = &g
	return nil
}

// GetGuestSession returns store.ErrNotFound for unknown or expired sessions.
func (s *MemoryStore) GetGuestSession(ctx context.Context, sessionID string) (*models.GuestSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.guests[sessionID]
	if !ok || g.Expired(s.now()) {
		return nil, store.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (s *MemoryStore) ConsumeGuestQuery(ctx context.Context, sessionID string) (*models.GuestSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guests[sessionID]
	if !ok || g.Expired(s.now()) {
		return nil, store.ErrNotFound
	}
	if g.QueriesUsed >= g.QueriesLimit {
		out := *g
		return &out, store.ErrQuotaExhausted
	}
	g.QueriesUsed++
	out := *g
	return &out, nil
}

// purgeExpiredLocked drops expired guest sessions and stale revocations.
func (s *MemoryStore) purgeExpiredLocked() {
	now := s.now()
	for id, g := range s.guests {
		if g.Expired(now) {
			delete(s.guests, id)
		}
	}
	for jti, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, jti)
		}
	}
}

// --- Token revocation ---

func (s *MemoryStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	log.Printf("[MemoryStore] RevokeToken: revoked token %s until %s", jti, expiresAt.Format(time.RFC3339))
	return nil
}

func (s *MemoryStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, revoked := s.revoked[jti]
	return revoked, nil
}
