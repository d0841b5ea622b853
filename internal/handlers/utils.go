package handlers

import (
	"net/http"

	"github.com/yordimul/LexiTax-AI/internal/auth"
	"github.com/yordimul/LexiTax-AI/pkg/httputil"
)

// requireUserID extracts the authenticated user id, answering 401 when it
// is missing.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}
