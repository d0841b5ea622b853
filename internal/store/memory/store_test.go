package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
)

func TestUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := &models.UserRecord{ID: "u-1", Email: "Abebe@Example.et", FullName: "Abebe", Role: models.RoleUser}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	dup := &models.UserRecord{ID: "u-2", Email: "abebe@example.et"}
	if err := s.CreateUser(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate email, got %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "ABEBE@example.et")
	if err != nil || got.ID != "u-1" {
		t.Fatalf("GetUserByEmail: got %+v, %v", got, err)
	}
	got.FullName = "changed"
	again, _ := s.GetUserByID(ctx, "u-1")
	if again.FullName != "Abebe" {
		t.Error("store must return copies")
	}

	if _, err := s.GetUserByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationsScopedAndOrdered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	s.now = func() time.Time { return clock }

	for _, c := range []*models.Conversation{
		{ID: "c-1", UserID: "u-1", Title: "first"},
		{ID: "c-2", UserID: "u-1", Title: "second"},
		{ID: "c-3", UserID: "u-2", Title: "other"},
	} {
		clock = clock.Add(time.Minute)
		if err := s.CreateConversation(ctx, c); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
	}

	clock = clock.Add(time.Minute)
	title := "renamed"
	conv, err := s.AppendMessages(ctx, "c-1", "u-1", &title,
		models.Message{ID: "m-1", Role: models.MessageRoleUser, Content: "q"},
		models.Message{ID: "m-2", Role: models.MessageRoleAssistant, Content: "a"},
	)
	if err != nil {
		t.Fatalf("AppendMessages failed: %v", err)
	}
	if conv.Title != "renamed" || len(conv.Messages) != 2 || conv.Messages[0].ConversationID != "c-1" {
		t.Errorf("unexpected conversation %+v", conv)
	}

	list, err := s.ListConversationsByUser(ctx, "u-1")
	if err != nil {
		t.Fatalf("ListConversationsByUser failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c-1" || list[1].ID != "c-2" {
		t.Errorf("expected c-1 then c-2, got %+v", list)
	}

	if _, err := s.GetConversation(ctx, "c-3", "u-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("conversation of another user must be hidden, got %v", err)
	}
	if _, err := s.AppendMessages(ctx, "c-3", "u-1", nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("append to another user's conversation must fail, got %v", err)
	}

	empty, _ := s.ListConversationsByUser(ctx, "nobody")
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", empty)
	}
}

func TestGuestSessionQuota(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	sess := &models.GuestSession{SessionID: "g-1", QueriesLimit: 2, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	if err := s.CreateGuestSession(ctx, sess); err != nil {
		t.Fatalf("CreateGuestSession failed: %v", err)
	}

	for i := 1; i <= 2; i++ {
		g, err := s.ConsumeGuestQuery(ctx, "g-1")
		if err != nil {
			t.Fatalf("consume %d failed: %v", i, err)
		}
		if g.QueriesUsed != i {
			t.Errorf("expected used=%d, got %d", i, g.QueriesUsed)
		}
	}
	g, err := s.ConsumeGuestQuery(ctx, "g-1")
	if !errors.Is(err, store.ErrQuotaExhausted) {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}
	if g.QueriesUsed != 2 {
		t.Errorf("used must never exceed the limit, got %d", g.QueriesUsed)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.GetGuestSession(ctx, "g-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expired session should not be found, got %v", err)
	}
}

func TestTokenRevocation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if revoked, _ := s.IsTokenRevoked(ctx, "jti-1"); revoked {
		t.Fatal("token should not start revoked")
	}
	if err := s.RevokeToken(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken failed: %v", err)
	}
	if revoked, _ := s.IsTokenRevoked(ctx, "jti-1"); !revoked {
		t.Error("expected token to be revoked")
	}
}
