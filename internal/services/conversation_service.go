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
	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyMessage         = errors.New("message cannot be empty")
)

// ConversationService handles conversations of authenticated users and
// answers their questions with the canned answer engine.
type ConversationService struct {
	store store.Store
	now   func() time.Time
}

func NewConversationService(s store.Store) *ConversationService {
	return &ConversationService{store: s, now: time.Now}
}

// ListConversations returns the user's conversations, most recent first.
func (s *ConversationService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	convs, err := s.store.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return convs, nil
}

// CreateConversation creates an empty conversation. An empty title gets the
// placeholder.
func (s *ConversationService) CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultConversationTitle
	}
	now := s.now()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     models.DeriveTitle(title),
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		log.Printf("ERROR [ConversationService] Creating conversation for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	log.Printf("[ConversationService] Created conversation %s for user %s", conv.ID, userID)
	return conv, nil
}

// GetConversation returns one of the user's conversations with its messages.
func (s *ConversationService) GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// Query appends the question and its answer to the conversation. A
// conversation still carrying the placeholder title is titled after the
// question.
func (s *ConversationService) Query(ctx context.Context, userID, conversationID, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	conv, err := s.GetConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	answer := answers.Match(message)
	userMsg, assistantMsg := exchange(conversationID, message, answer, s.now())

	var title *string
	if conv.Title == "" || conv.Title == models.DefaultConversationTitle {
		t := models.DeriveTitle(message)
		title = &t
	}

	if _, err := s.store.AppendMessages(ctx, conversationID, userID, title, userMsg, assistantMsg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		log.Printf("ERROR [ConversationService] Appending messages to %s: %v", conversationID, err)
		return nil, fmt.Errorf("failed to store messages: %w", err)
	}

	log.Printf("[ConversationService] Answered query in conversation %s (topic=%s)", conversationID, answer.Topic)
	return chatResponse(conversationID, assistantMsg, answer), nil
}

// exchange builds the user message and the assistant reply for one query.
func exchange(conversationID, message string, answer answers.Answer, now time.Time) (models.Message, models.Message) {
	confidence := answer.Confidence
	user := models.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           models.MessageRoleUser,
		Content:        message,
		CreatedAt:      now,
	}
	assistant := models.Message{
		ID:              uuid.NewString(),
		ConversationID:  conversationID,
		Role:            models.MessageRoleAssistant,
		Content:         answer.Text,
		ConfidenceScore: &confidence,
		Sources:         answer.Sources,
		CreatedAt:       now,
	}
	return user, assistant
}

func chatResponse(conversationID string, msg models.Message, answer answers.Answer) *models.ChatResponse {
	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	return &models.ChatResponse{
		MessageID:      msg.ID,
		ConversationID: conversationID,
		Response:       msg.Content,
		Confidence:     answer.Confidence,
		Sources:        sources,
		CreatedAt:      msg.CreatedAt,
	}
}
