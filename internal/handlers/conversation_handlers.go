package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/services"
	"github.com/yordimul/LexiTax-AI/pkg/httputil"
)

// ConversationService defines what the conversation and chat routes need.
type ConversationService interface {
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	CreateConversation(ctx context.Context, userID, title string) (*models.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	Query(ctx context.Context, userID, conversationID, message string) (*models.ChatResponse, error)
}

var _ ConversationService = (*services.ConversationService)(nil)

// ConversationHandlers handles HTTP requests for conversations and
// authenticated chat queries.
type ConversationHandlers struct {
	service ConversationService
}

func NewConversationHandlers(svc ConversationService) *ConversationHandlers {
	return &ConversationHandlers{service: svc}
}

// HandleListConversations handles GET /api/conversations/.
func (h *ConversationHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	convs, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR [ConversationHandlers] Listing conversations for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to fetch conversations")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, convs)
}

// HandleCreateConversation handles POST /api/conversations/.
func (h *ConversationHandlers) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.CreateConversationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	conv, err := h.service.CreateConversation(r.Context(), userID, req.Title)
	if err != nil {
		log.Printf("ERROR [ConversationHandlers] Creating conversation for user %s: %v", userID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to create conversation")
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, conv)
}

// HandleGetConversation handles GET /api/conversations/{conversationID}/.
func (h *ConversationHandlers) HandleGetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	conv, err := h.service.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		log.Printf("ERROR [ConversationHandlers] Getting conversation %s: %v", conversationID, err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to fetch conversation")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, conv)
}

// HandleChatQuery handles POST /api/chat/query/.
func (h *ConversationHandlers) HandleChatQuery(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req models.ChatQuery
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		httputil.RespondError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	resp, err := h.service.Query(r.Context(), userID, req.ConversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			httputil.RespondError(w, http.StatusBadRequest, "Message cannot be empty")
		case errors.Is(err, services.ErrConversationNotFound):
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
		default:
			log.Printf("ERROR [ConversationHandlers] Query in conversation %s: %v", req.ConversationID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}
