// Package apiclient is the typed client for the LexiTax REST API.
//
// Every method performs exactly one round trip and returns either the decoded
// payload or one of *ValidationError, *NetworkError, *AuthError or
// *FetchError. Nothing is cached and nothing is retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/session"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api"

const defaultContentType = "application/json"

// Client talks to the LexiTax backend on behalf of one local session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Manager
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Supply one with a cookie
// jar if guest queries should be counted per guest session. A nil hc keeps
// the default. The client is copied, so later options never modify hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		copied := *hc
		c.httpClient = &copied
	}
}

// WithTimeout sets the per-request timeout. Zero or negative values keep the
// current timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			return
		}
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for baseURL using sess for the bearer credential.
func NewClient(baseURL string, sess *session.Manager, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if sess == nil {
		sess, _ = session.NewManager(session.NewMemoryStore())
	}

	jar, _ := cookiejar.New(nil) // only fails for a non-nil PublicSuffixList
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the session manager the client reads its credential from.
func (c *Client) Session() *session.Manager { return c.session }

// IsAuthenticated reports whether a credential is currently held.
func (c *Client) IsAuthenticated() bool { return c.session.IsAuthenticated() }

// SetToken stores token as the active credential.
func (c *Client) SetToken(token string) error { return c.session.SetToken(token) }

// ClearToken removes the active credential.
func (c *Client) ClearToken() error { return c.session.Clear() }

// --- Request plumbing ---

type errorKind int

const (
	kindFetch errorKind = iota
	kindAuth
)

// call describes one round trip.
type call struct {
	method      string
	path        string
	body        interface{}
	out         interface{}
	fallback    string // message used when the server gives none
	kind        errorKind
	contentType string
}

// headers builds the request headers from the current session state.
func (c *Client) headers(contentType string) http.Header {
	if contentType == "" {
		contentType = defaultContentType
	}
	h := http.Header{}
	h.Set("Content-Type", contentType)
	h.Set("Accept", "application/json")
	if token, ok := c.session.Token(); ok {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func (c *Client) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header = c.headers(cl.contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("WARN [APIClient] %s %s failed: %v", cl.method, cl.path, err)
		return &NetworkError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(cl, resp.StatusCode, raw)
	}

	if cl.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		log.Printf("[APIClient] %s %s returned status %d with an empty body", cl.method, cl.path, resp.StatusCode)
		return c.newError(cl.kind, resp.StatusCode, cl.fallback+": empty response body")
	}
	if err := json.Unmarshal(raw, cl.out); err != nil {
		return c.newError(cl.kind, resp.StatusCode, fmt.Sprintf("%s: invalid response body: %v", cl.fallback, err))
	}
	return nil
}

// statusError turns a non-2xx response into an AuthError or FetchError using
// the server's "error" field when it has one.
func (c *Client) statusError(cl call, status int, raw []byte) error {
	msg := cl.fallback
	var er models.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		switch {
		case er.Error != "":
			msg = er.Error
		case er.Detail != "":
			msg = er.Detail
		}
	}
	log.Printf("[APIClient] %s %s returned status %d: %s", cl.method, cl.path, status, msg)
	return c.newError(cl.kind, status, msg)
}

func (c *Client) newError(kind errorKind, status int, msg string) error {
	if kind == kindAuth {
		return &AuthError{StatusCode: status, Message: msg}
	}
	return &FetchError{StatusCode: status, Message: msg}
}

// IsNetworkError reports whether err is a transport level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
