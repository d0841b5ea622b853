package models

import (
	"time"
)

// --- Enums ---

// UserRole identifies the kind of account a User holds.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// MessageRole identifies who authored a Message.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// DefaultConversationTitle is the placeholder title of a conversation
// before it is derived from a user message.
const DefaultConversationTitle = "New Conversation"

// TitleMaxLength is the number of characters kept from a message in a title.
const TitleMaxLength = 50

// DeriveTitle returns the first TitleMaxLength characters of text, followed
// by "..." when text was longer.
func DeriveTitle(text string) string {
	r := []rune(text)
	if len(r) <= TitleMaxLength {
		return text
	}
	return string(r[:TitleMaxLength]) + "..."
}

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateConversationRequest defines the body for creating a conversation.
// An empty title is allowed; the server substitutes the placeholder.
type CreateConversationRequest struct {
	Title string `json:"title"`
}

// ChatQuery defines the body for an authenticated chat query.
type ChatQuery struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// GuestQueryRequest defines the body for a guest chat query.
type GuestQueryRequest struct {
	Message string `json:"message"`
}

// --- Response Structs ---

// User is the account information returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthResponse defines the response body for successful signup or login.
// The user fields are returned flat next to the tokens.
type AuthResponse struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	FullName     string   `json:"full_name"`
	Role         UserRole `json:"role,omitempty"`
	AccessToken  string   `json:"access_token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenType    string   `json:"token_type,omitempty"`
	ExpiresIn    int64    `json:"expires_in,omitempty"` // seconds
}

// Message is a single immutable entry of a conversation.
type Message struct {
	ID              string      `json:"id"`
	ConversationID  string      `json:"conversation_id"`
	Role            MessageRole `json:"role"`
	Content         string      `json:"content"`
	ConfidenceScore *float64    `json:"confidence_score,omitempty"` // assistant messages only, [0,1]
	Sources         []string    `json:"sources,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Conversation is an ordered thread of user and assistant messages.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy of the conversation whose message slice can be
// modified without affecting the original.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// ChatResponse is the answer to a chat or guest query.
// Confidence and Sources are passed through from the answering engine.
type ChatResponse struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Response       string    `json:"response"`
	Confidence     float64   `json:"confidence"`
	Sources        []string  `json:"sources"`
	CreatedAt      time.Time `json:"created_at"`
}

// GuestQueryCount reports how much of the guest quota has been consumed.
type GuestQueryCount struct {
	QueriesUsed      int `json:"queries_used"`
	QueriesRemaining int `json:"queries_remaining"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}
