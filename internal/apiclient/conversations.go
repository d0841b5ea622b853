package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/yordimul/LexiTax-AI/internal/models"
)

// --- CONVERSATION ENDPOINTS ---

// GetConversations lists the caller's conversations.
func (c *Client) GetConversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/conversations/",
		out:      &convs,
		fallback: "Failed to fetch conversations",
	})
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// CreateConversation creates a conversation. The title may be empty.
func (c *Client) CreateConversation(ctx context.Context, title string) (*models.Conversation, error) {
	var conv models.Conversation
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/conversations/",
		body:     models.CreateConversationRequest{Title: title},
		out:      &conv,
		fallback: "Failed to create conversation",
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// GetConversation fetches one conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, &ValidationError{Field: "conversation_id", Message: "conversation id is required"}
	}

	var conv models.Conversation
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/conversations/" + url.PathEscape(conversationID) + "/",
		out:      &conv,
		fallback: "Failed to fetch conversation",
	})
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// --- CHAT ENDPOINTS ---

// SendMessage asks a question within an existing conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, &ValidationError{Field: "conversation_id", Message: "conversation id is required"}
	}
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Field: "message", Message: "message is required"}
	}

	var resp models.ChatResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/chat/query/",
		body:     models.ChatQuery{ConversationID: conversationID, Message: message},
		out:      &resp,
		fallback: "Failed to send message",
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
