package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NetworkError reports a transport failure (DNS, refused connection,
// timeout, cancellation). Err is the underlying cause.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string { return "network error: " + e.Message }

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError reports a rejected signup, login or logout.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (status %d): %s", e.StatusCode, e.Message)
}

// FetchError reports a non-2xx response, or an unreadable body, from any
// other endpoint. StatusCode is 0 when the body could not be decoded.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a FetchError for a 404 response.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound
}

// ValidateSignupForm applies the signup form rules: every field is required,
// the confirmation must match and the password must satisfy the policy.
func ValidateSignupForm(fullName, email, password, confirm string, policy func(string) []string) error {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return &ValidationError{Message: "Please fill in all fields"}
	}
	if password != confirm {
		return &ValidationError{Field: "confirm_password", Message: "Passwords do not match"}
	}
	if policy != nil {
		if failed := policy(password); len(failed) > 0 {
			return &ValidationError{
				Field:   "password",
				Message: "Password must meet all requirements: " + strings.Join(failed, ", "),
			}
		}
	}
	return nil
}

// ValidateLoginForm requires both login fields.
func ValidateLoginForm(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &ValidationError{Message: "Please fill in all fields"}
	}
	return nil
}
