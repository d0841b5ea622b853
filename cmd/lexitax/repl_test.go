package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/answers"
	"github.com/yordimul/LexiTax-AI/internal/api"
	"github.com/yordimul/LexiTax-AI/internal/apiclient"
	"github.com/yordimul/LexiTax-AI/internal/chat"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/handlers"
	"github.com/yordimul/LexiTax-AI/internal/services"
	"github.com/yordimul/LexiTax-AI/internal/session"
	"github.com/yordimul/LexiTax-AI/internal/store/memory"
)

func runOffline(t *testing.T, input string) string {
	t.Helper()
	var out bytes.Buffer
	m := chat.NewMachine(chat.MockResponder{}, nil)
	r := newREPL(strings.NewReader(input), &out, nil, m, time.Second)
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return out.String()
}

func TestOfflineGuestSession(t *testing.T) {
	out := runOffline(t, strings.Join([]string{
		"What is the corporate tax rate?",
		"withholding",
		"deductible expenses",
		"one more question",
		"/quota",
		"/list",
		"/quit",
	}, "\n"))

	for _, want := range []string{
		"Offline mode",
		"Guest mode: 3 of 3 queries remaining.",
		answers.CorporateTaxAnswer,
		"Guest queries remaining: 0",
		"Guest mode is limited to 3 queries. Please sign in to continue.",
		"Guest mode: 0 of 3 queries remaining.",
		"* 1. What is the corporate tax rate? (6 messages)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestOfflineCommands(t *testing.T) {
	out := runOffline(t, strings.Join([]string{
		"/bogus",
		"/login",
		"/suggest",
		"/new",
		"first question",
		"/new",
		"/open 2",
		"/open 9",
		"/open",
	}, "\n"))

	for _, want := range []string{
		"Unknown command /bogus",
		"Accounts are unavailable in offline mode.",
		answers.SuggestedQuestions[0],
		`Started "New Conversation".`,
		"== first question ==",
		"[user] first question",
		"No conversation 9.",
		"Usage: /open <n|id>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestOnlineSignupAndLogout(t *testing.T) {
	cfg := &config.Config{JWTSecret: "cli-test", TokenExpiration: time.Hour, GuestQueryLimit: 3, GuestSessionTTL: time.Hour}
	st := memory.NewMemoryStore()
	authService := services.NewAuthService(st, cfg)
	server := httptest.NewServer(api.NewRouter(api.RouterDependencies{
		AuthHandler:         handlers.NewAuthHandler(authService),
		ConversationHandler: handlers.NewConversationHandlers(services.NewConversationService(st)),
		GuestHandler:        handlers.NewGuestHandlers(services.NewGuestService(st, cfg)),
		Authenticator:       authService,
		Config:              cfg,
	}))
	defer server.Close()

	sess, _ := session.NewManager(session.NewMemoryStore())
	client := apiclient.NewClient(server.URL+"/api", sess)
	m := chat.NewMachine(chat.RemoteResponder{API: client}, client)

	input := strings.Join([]string{
		"/signup",
		"Meron", "meron@example.et", "Secret123", "Mismatch1",
		"/signup",
		"Meron", "meron@example.et", "Secret123", "Secret123",
		"Are expenses deductible?",
		"/quota",
		"/logout",
		"/list",
	}, "\n")
	var out bytes.Buffer
	r := newREPL(strings.NewReader(input), &out, client, m, 5*time.Second)
	r.sync(context.Background())
	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Passwords do not match",
		"Welcome, Meron.",
		answers.DeductionsAnswer,
		"Signed in: no query limit.",
		"Signed out.",
		"No conversations yet.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
	if client.IsAuthenticated() {
		t.Error("credential should be cleared after /logout")
	}
}
