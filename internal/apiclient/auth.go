package apiclient

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/session"
)

// --- AUTH ENDPOINTS ---

// Signup creates an account. On success the returned access token becomes
// the active credential.
func (c *Client) Signup(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error) {
	switch {
	case strings.TrimSpace(email) == "":
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	case password == "":
		return nil, &ValidationError{Field: "password", Message: "password is required"}
	case strings.TrimSpace(fullName) == "":
		return nil, &ValidationError{Field: "full_name", Message: "full name is required"}
	}

	var resp models.AuthResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/signup/",
		body:     models.SignupRequest{Email: email, Password: password, FullName: fullName},
		out:      &resp,
		fallback: "Signup failed",
		kind:     kindAuth,
	})
	if err != nil {
		return nil, err
	}

	if err := c.storeTokens(&resp, "Signup failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates an existing account. On success the returned access
// token becomes the active credential.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	switch {
	case strings.TrimSpace(email) == "":
		return nil, &ValidationError{Field: "email", Message: "email is required"}
	case password == "":
		return nil, &ValidationError{Field: "password", Message: "password is required"}
	}

	var resp models.AuthResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login/",
		body:     models.LoginRequest{Email: email, Password: password},
		out:      &resp,
		fallback: "Login failed",
		kind:     kindAuth,
	})
	if err != nil {
		return nil, err
	}

	if err := c.storeTokens(&resp, "Login failed"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout notifies the server and clears the local credential. The local
// credential is cleared whatever the outcome of the remote call; a remote
// failure is still returned so the caller can report it.
func (c *Client) Logout(ctx context.Context) error {
	remoteErr := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/logout/",
		fallback: "Logout failed",
		kind:     kindAuth,
	})
	if remoteErr != nil {
		log.Printf("WARN [APIClient] Remote logout failed, clearing local credential anyway: %v", remoteErr)
	}

	if err := c.session.Clear(); err != nil {
		return err
	}
	return remoteErr
}

// storeTokens makes the returned access token the active credential. A
// success response without one is treated as a failed authentication.
func (c *Client) storeTokens(resp *models.AuthResponse, fallback string) error {
	if resp.AccessToken == "" {
		return &AuthError{StatusCode: http.StatusOK, Message: fallback + ": response carried no access token"}
	}
	return c.session.SetCredential(session.Credential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
}
