package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/services"
	"github.com/yordimul/LexiTax-AI/pkg/httputil"
)

// GuestCookieName carries the guest session id between requests.
const GuestCookieName = "lexitax_guest"

// GuestService defines what the guest routes need.
type GuestService interface {
	Session(ctx context.Context, sessionID string) (*models.GuestSession, bool, error)
	Query(ctx context.Context, sessionID, message string) (*models.ChatResponse, error)
}

var _ GuestService = (*services.GuestService)(nil)

type GuestHandlers struct {
	service GuestService
}

func NewGuestHandlers(svc GuestService) *GuestHandlers {
	return &GuestHandlers{service: svc}
}

// HandleQueryCount handles GET /api/guest/query-count/.
func (h *GuestHandlers) HandleQueryCount(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, services.Count(sess))
}

// HandleQuery handles POST /api/guest/query/.
func (h *GuestHandlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.GuestQueryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Query(r.Context(), sess.SessionID, req.Message)
	if errors.Is(err, services.ErrGuestSessionExpired) {
		// Expired between lookup and use: retry once on a fresh session.
		if sess, ok = h.resolve(w, r, ""); !ok {
			return
		}
		resp, err = h.service.Query(r.Context(), sess.SessionID, req.Message)
	}
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			httputil.RespondError(w, http.StatusBadRequest, "Message cannot be empty")
		case errors.Is(err, services.ErrGuestLimitReached):
			httputil.RespondError(w, http.StatusTooManyRequests, "Guest query limit reached. Please sign in to continue.")
		case errors.Is(err, services.ErrGuestSessionExpired):
			httputil.RespondError(w, http.StatusConflict, "Guest session expired, please try again")
		default:
			log.Printf("ERROR [GuestHandlers] Guest query for session %s: %v", sess.SessionID, err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to send message")
		}
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// session resolves the caller's guest session from its cookie, starting a
// new one and setting the cookie when needed.
func (h *GuestHandlers) session(w http.ResponseWriter, r *http.Request) (*models.GuestSession, bool) {
	var sessionID string
	if c, err := r.Cookie(GuestCookieName); err == nil {
		sessionID = c.Value
	}
	return h.resolve(w, r, sessionID)
}

// resolve looks up sessionID, or starts a new session when it is empty or
// gone, and sets the cookie for new sessions.
func (h *GuestHandlers) resolve(w http.ResponseWriter, r *http.Request, sessionID string) (*models.GuestSession, bool) {
	sess, created, err := h.service.Session(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [GuestHandlers] Resolving guest session: %v", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to start guest session")
		return nil, false
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     GuestCookieName,
			Value:    sess.SessionID,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, true
}
