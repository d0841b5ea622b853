package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yordimul/LexiTax-AI/internal/answers"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
)

var (
	ErrGuestLimitReached   = errors.New("guest query limit reached, please sign in to continue")
	ErrGuestSessionExpired = errors.New("guest session expired")
)

// GuestService meters unauthenticated queries per guest session.
type GuestService struct {
	store store.Store
	limit int
	ttl   time.Duration
	now   func() time.Time
}

func NewGuestService(s store.Store, cfg *config.Config) *GuestService {
	return &GuestService{
		store: s,
		limit: cfg.GuestQueryLimit,
		ttl:   cfg.GuestSessionTTL,
		now:   time.Now,
	}
}

// Session returns the guest session for sessionID, starting a new one when
// the id is empty, unknown or expired. created reports whether a new session
// was started.
func (s *GuestService) Session(ctx context.Context, sessionID string) (sess *models.GuestSession, created bool, err error) {
	if sessionID != "" {
		sess, err = s.store.GetGuestSession(ctx, sessionID)
		if err == nil {
			return sess, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("failed to load guest session: %w", err)
		}
	}

	now := s.now()
	sess = &models.GuestSession{
		SessionID:    uuid.NewString(),
		QueriesUsed:  0,
		QueriesLimit: s.limit,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.store.CreateGuestSession(ctx, sess); err != nil {
		log.Printf("ERROR [GuestService] Creating guest session: %v", err)
		return nil, false, fmt.Errorf("failed to create guest session: %w", err)
	}
	log.Printf("[GuestService] Started guest session %s (limit=%d, expires=%s)", sess.SessionID, sess.QueriesLimit, sess.ExpiresAt.Format(time.RFC3339))
	return sess, true, nil
}

// Count reports the quota of a guest session.
func Count(sess *models.GuestSession) models.GuestQueryCount {
	return models.GuestQueryCount{
		QueriesUsed:      sess.QueriesUsed,
		QueriesRemaining: sess.Remaining(),
	}
}

// Query consumes one guest query and answers it. Guest exchanges are not
// stored.
func (s *GuestService) Query(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	sess, err := s.store.ConsumeGuestQuery(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrQuotaExhausted) {
			log.Printf("[GuestService] Guest session %s hit the query limit", sessionID)
			return nil, ErrGuestLimitReached
		}
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("WARN [GuestService] Guest session %s expired before the query was recorded", sessionID)
			return nil, ErrGuestSessionExpired
		}
		return nil, fmt.Errorf("failed to record guest query: %w", err)
	}

	answer := answers.Match(message)
	_, assistantMsg := exchange("", message, answer, s.now())
	log.Printf("[GuestService] Answered guest query %d/%d for session %s (topic=%s)", sess.QueriesUsed, sess.QueriesLimit, sessionID, answer.Topic)
	return chatResponse("", assistantMsg, answer), nil
}
