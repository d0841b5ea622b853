package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yordimul/LexiTax-AI/internal/answers"
	"github.com/yordimul/LexiTax-AI/internal/models"
)

// Query is one question handed to a Responder.
type Query struct {
	LocalID  string // conversation id in the state machine
	RemoteID string // server conversation id, empty until one exists
	Title    string
	Text     string
	Guest    bool
}

// Reply is a Responder's answer.
type Reply struct {
	MessageID      string
	ConversationID string // server conversation id, if any
	Content        string
	Confidence     *float64
	Sources        []string
	CreatedAt      time.Time
}

// Responder produces the assistant reply for a query.
type Responder interface {
	Respond(ctx context.Context, q Query) (Reply, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, q Query) (Reply, error)

func (f ResponderFunc) Respond(ctx context.Context, q Query) (Reply, error) {
	return f(ctx, q)
}

// --- Canned answers ---

// MockResponder answers from the canned answer table without a backend.
// Delay simulates latency and is cut short when ctx is cancelled.
type MockResponder struct {
	Delay time.Duration
}

var _ Responder = MockResponder{}

func (m MockResponder) Respond(ctx context.Context, q Query) (Reply, error) {
	if m.Delay > 0 {
		t := time.NewTimer(m.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case <-t.C:
		}
	}

	a := answers.Match(q.Text)
	confidence := a.Confidence
	return Reply{
		MessageID:  uuid.NewString(),
		Content:    a.Text,
		Confidence: &confidence,
		Sources:    a.Sources,
		CreatedAt:  time.Now(),
	}, nil
}

// --- Backend ---

// ChatAPI is the subset of the API client used to obtain replies.
type ChatAPI interface {
	CreateConversation(ctx context.Context, title string) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, message string) (*models.ChatResponse, error)
	SendGuestQuery(ctx context.Context, message string) (*models.ChatResponse, error)
}

// RemoteResponder forwards queries to the backend. Authenticated queries go
// to a server conversation, created on first use; guest queries use the
// guest endpoint.
type RemoteResponder struct {
	API ChatAPI
}

var _ Responder = RemoteResponder{}

func (r RemoteResponder) Respond(ctx context.Context, q Query) (Reply, error) {
	if q.Guest {
		resp, err := r.API.SendGuestQuery(ctx, q.Text)
		if err != nil {
			return Reply{}, err
		}
		return replyFrom(resp), nil
	}

	remoteID := q.RemoteID
	if remoteID == "" {
		conv, err := r.API.CreateConversation(ctx, q.Title)
		if err != nil {
			return Reply{}, fmt.Errorf("failed to create server conversation: %w", err)
		}
		remoteID = conv.ID
	}

	resp, err := r.API.SendMessage(ctx, remoteID, q.Text)
	if err != nil {
		// keep the id so a retry reuses the conversation
		return Reply{ConversationID: remoteID}, err
	}
	reply := replyFrom(resp)
	if reply.ConversationID == "" {
		reply.ConversationID = remoteID
	}
	return reply, nil
}

func replyFrom(resp *models.ChatResponse) Reply {
	confidence := resp.Confidence
	return Reply{
		MessageID:      resp.MessageID,
		ConversationID: resp.ConversationID,
		Content:        resp.Response,
		Confidence:     &confidence,
		Sources:        resp.Sources,
		CreatedAt:      resp.CreatedAt,
	}
}
