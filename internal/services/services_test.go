package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/answers"
	"github.com/yordimul/LexiTax-AI/internal/auth"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
	"github.com/yordimul/LexiTax-AI/internal/store/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		TokenExpiration: time.Hour,
		GuestQueryLimit: 3,
		GuestSessionTTL: time.Hour,
	}
}

func TestSignupAndLogin(t *testing.T) {
	svc := NewAuthService(memory.NewMemoryStore(), testConfig())
	ctx := context.Background()

	resp, err := svc.Signup(ctx, " Abebe@Example.ET ", "Secret123", "Abebe Kebede")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if resp.Email != "abebe@example.et" || resp.AccessToken == "" || resp.Role != models.RoleUser {
		t.Errorf("unexpected signup response %+v", resp)
	}
	if resp.ExpiresIn != 3600 || resp.TokenType != "bearer" {
		t.Errorf("unexpected token metadata %+v", resp)
	}

	if _, err := svc.Signup(ctx, "abebe@example.et", "Secret123", "Again"); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}

	login, err := svc.Login(ctx, "ABEBE@example.et", "Secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, err := svc.Authenticate(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.UserID != resp.ID {
		t.Errorf("expected user %s, got %s", resp.ID, claims.UserID)
	}

	if _, err := svc.Login(ctx, "abebe@example.et", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.et", "Secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := NewAuthService(memory.NewMemoryStore(), testConfig())
	tests := []struct {
		name, email, password, fullName string
		wantInMsg                       string
	}{
		{"missing name", "a@b.et", "Secret123", "", "required"},
		{"bad email", "not-an-email", "Secret123", "A", "invalid email"},
		{"weak password", "a@b.et", "short", "A", auth.RuleUppercase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.email, tt.password, tt.fullName)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantInMsg) {
				t.Errorf("expected %q in %q", tt.wantInMsg, err.Error())
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := NewAuthService(memory.NewMemoryStore(), testConfig())
	ctx := context.Background()

	resp, err := svc.Signup(ctx, "a@b.et", "Secret123", "A")
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	claims, err := svc.Authenticate(ctx, resp.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if err := svc.Logout(ctx, claims); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, resp.AccessToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestConversationQueryTitlesAndAnswers(t *testing.T) {
	svc := NewConversationService(memory.NewMemoryStore())
	ctx := context.Background()

	conv, err := svc.CreateConversation(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if conv.Title != models.DefaultConversationTitle {
		t.Errorf("expected placeholder title, got %q", conv.Title)
	}

	first := "Which expenses are deductible for a private limited company in Ethiopia?"
	resp, err := svc.Query(ctx, "u-1", conv.ID, first)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if resp.Response != answers.DeductionsAnswer || resp.ConversationID != conv.ID || len(resp.Sources) == 0 {
		t.Errorf("unexpected response %+v", resp)
	}
	if _, err := svc.Query(ctx, "u-1", conv.ID, "withholding?"); err != nil {
		t.Fatalf("second Query failed: %v", err)
	}

	got, err := svc.GetConversation(ctx, "u-1", conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.Title != models.DeriveTitle(first) {
		t.Errorf("title should come from the first message, got %q", got.Title)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got.Messages))
	}
	for i, want := range []models.MessageRole{models.MessageRoleUser, models.MessageRoleAssistant, models.MessageRoleUser, models.MessageRoleAssistant} {
		if got.Messages[i].Role != want {
			t.Errorf("message %d: expected role %s, got %s", i, want, got.Messages[i].Role)
		}
	}

	if _, err := svc.Query(ctx, "u-2", conv.ID, "hello"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("expected ErrConversationNotFound for another user, got %v", err)
	}
	if _, err := svc.Query(ctx, "u-1", conv.ID, "  "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestGuestQuotaEnforced(t *testing.T) {
	svc := NewGuestService(memory.NewMemoryStore(), testConfig())
	ctx := context.Background()

	sess, created, err := svc.Session(ctx, "")
	if err != nil || !created {
		t.Fatalf("Session: %v created=%t", err, created)
	}
	same, created, err := svc.Session(ctx, sess.SessionID)
	if err != nil || created || same.SessionID != sess.SessionID {
		t.Fatalf("expected existing session, got %+v created=%t err=%v", same, created, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Query(ctx, sess.SessionID, "corporate tax"); err != nil {
			t.Fatalf("query %d failed: %v", i, err)
		}
	}
	if _, err := svc.Query(ctx, sess.SessionID, "corporate tax"); !errors.Is(err, ErrGuestLimitReached) {
		t.Errorf("expected ErrGuestLimitReached, got %v", err)
	}

	current, _, _ := svc.Session(ctx, sess.SessionID)
	if count := Count(current); count.QueriesUsed != 3 || count.QueriesRemaining != 0 {
		t.Errorf("unexpected count %+v", count)
	}

	fresh, created, err := svc.Session(ctx, "unknown-id")
	if err != nil || !created || fresh.SessionID == "unknown-id" {
		t.Errorf("unknown id should start a new session, got %+v created=%t", fresh, created)
	}
}

// expiringStore reports every guest session as gone when a query is recorded.
type expiringStore struct {
	*memory.MemoryStore
}

func (s expiringStore) ConsumeGuestQuery(ctx context.Context, sessionID string) (*models.GuestSession, error) {
	return nil, store.ErrNotFound
}

func TestGuestQueryOnExpiredSession(t *testing.T) {
	svc := NewGuestService(expiringStore{memory.NewMemoryStore()}, testConfig())
	ctx := context.Background()

	sess, _, err := svc.Session(ctx, "")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if _, err := svc.Query(ctx, sess.SessionID, "corporate tax"); !errors.Is(err, ErrGuestSessionExpired) {
		t.Errorf("expected ErrGuestSessionExpired, got %v", err)
	}
}
