package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/yordimul/LexiTax-AI/internal/auth"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/models"
	"github.com/yordimul/LexiTax-AI/internal/store"
)

// Custom errors for auth service
var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrHashingPassword    = errors.New("failed to hash password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrCreatingUser       = errors.New("failed to create user")
	ErrValidation         = errors.New("input validation failed") // Generic validation error
	ErrTokenRevoked       = errors.New("token has been revoked")
)

const tokenType = "bearer"

type AuthService struct {
	store store.Store
	cfg   *config.Config
}

func NewAuthService(s store.Store, cfg *config.Config) *AuthService {
	return &AuthService{
		store: s,
		cfg:   cfg,
	}
}

// Signup creates a new user and signs them in.
func (s *AuthService) Signup(ctx context.Context, email, password, fullName string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" || fullName == "" {
		return nil, fmt.Errorf("%w: email, password and full name are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if failed := auth.CheckPasswordPolicy(password); len(failed) > 0 {
		return nil, fmt.Errorf("%w: password must contain %s", ErrValidation, strings.Join(failed, ", "))
	}

	// Check if user already exists
	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("ERROR [AuthService] Checking user existence for %s: %v", email, err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("ERROR [AuthService] Hashing password for %s: %v", email, err)
		return nil, ErrHashingPassword
	}

	user := &models.UserRecord{
		ID:             uuid.NewString(),
		Email:          email,
		FullName:       fullName,
		Role:           models.RoleUser,
		HashedPassword: hashedPassword,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// lost a race with a concurrent signup for the same email
			return nil, ErrUserAlreadyExists
		}
		log.Printf("ERROR [AuthService] Creating user %s: %v", email, err)
		return nil, fmt.Errorf("%w: %v", ErrCreatingUser, err)
	}

	log.Printf("[AuthService] Signed up user %s (ID: %s)", email, user.ID)
	return s.issue(user)
}

// Login verifies user credentials and returns an access token with the user info.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials // Basic check before hitting the store
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials // Don't reveal if user exists or password is wrong
		}
		log.Printf("ERROR [AuthService] Retrieving user %s during login: %v", email, err)
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	if !auth.CheckPasswordHash(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}

	log.Printf("[AuthService] Logged in user %s (ID: %s)", email, user.ID)
	return s.issue(user)
}

// Logout revokes the token described by claims until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.CustomClaims) error {
	if claims == nil || claims.ID == "" {
		return fmt.Errorf("%w: token has no id", ErrValidation)
	}
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: token has no expiry", ErrValidation)
	}
	if err := s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	log.Printf("[AuthService] Logged out user ID %s", claims.UserID)
	return nil
}

// Authenticate parses a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.CustomClaims, error) {
	claims, err := auth.ParseAccessToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	revoked, err := s.store.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *AuthService) issue(user *models.UserRecord) (*models.AuthResponse, error) {
	token, _, err := auth.NewAccessToken(user.ID, user.Role, s.cfg.JWTSecret, s.cfg.TokenExpiration)
	if err != nil {
		log.Printf("ERROR [AuthService] Generating JWT for user %s (ID: %s): %v", user.Email, user.ID, err)
		return nil, ErrCreatingToken
	}
	return &models.AuthResponse{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.Role,
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int64(s.cfg.TokenExpiration.Seconds()),
	}, nil
}
