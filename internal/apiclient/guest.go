package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/yordimul/LexiTax-AI/internal/models"
)

// --- GUEST ENDPOINTS ---

// GetGuestQueryCount returns the server's view of the guest quota.
func (c *Client) GetGuestQueryCount(ctx context.Context) (*models.GuestQueryCount, error) {
	var count models.GuestQueryCount
	err := c.do(ctx, call{
		method:   http.MethodGet,
		path:     "/guest/query-count/",
		out:      &count,
		fallback: "Failed to fetch query count",
	})
	if err != nil {
		return nil, err
	}
	return &count, nil
}

// SendGuestQuery asks a question without a credential. The caller is
// responsible for enforcing the guest quota before calling.
func (c *Client) SendGuestQuery(ctx context.Context, message string) (*models.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Field: "message", Message: "message is required"}
	}

	var resp models.ChatResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/guest/query/",
		body:     models.GuestQueryRequest{Message: message},
		out:      &resp,
		fallback: "Failed to send message",
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
