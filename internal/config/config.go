package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL          = "http://localhost:8000/api"
	DefaultHTTPPort        = "8000"
	DefaultGuestQueryLimit = 3
	defaultJWTSecret       = "lexitax-dev-secret" // CHANGE THIS IN PRODUCTION!
)

var defaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Config holds the reference backend configuration loaded from environment variables.
type Config struct {
	HTTPPort           string
	JWTSecret          string
	TokenExpiration    time.Duration
	GuestQueryLimit    int
	GuestSessionTTL    time.Duration
	CORSAllowedOrigins []string
}

// ClientConfig holds the terminal client configuration.
type ClientConfig struct {
	APIURL         string
	SessionDBPath  string
	StoreKey       string // passphrase for sealing the credential store, optional
	RequestTimeout time.Duration
	Offline        bool // answer from the canned table without a backend
}

// LoadConfig loads the backend configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", DefaultHTTPPort),
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		TokenExpiration:    time.Hour * time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)),
		GuestQueryLimit:    getEnvInt("GUEST_QUERY_LIMIT", DefaultGuestQueryLimit),
		GuestSessionTTL:    time.Hour * time.Duration(getEnvInt("GUEST_SESSION_TTL_HOURS", 24)),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", strings.Join(defaultCORSOrigins, ","))),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("WARN: JWT_SECRET not set, using the development secret")
	}
	if cfg.GuestQueryLimit <= 0 {
		return nil, fmt.Errorf("GUEST_QUERY_LIMIT must be positive, got %d", cfg.GuestQueryLimit)
	}
	if cfg.TokenExpiration <= 0 || cfg.GuestSessionTTL <= 0 {
		return nil, errors.New("JWT_EXPIRATION_HOURS and GUEST_SESSION_TTL_HOURS must be positive")
	}

	log.Printf("Loaded config: Port=%s, TokenExp=%s, GuestLimit=%d, GuestTTL=%s, CORS=%v, JWTSecret=***",
		cfg.HTTPPort, cfg.TokenExpiration, cfg.GuestQueryLimit, cfg.GuestSessionTTL, cfg.CORSAllowedOrigins)

	return cfg, nil
}

// LoadClientConfig loads the terminal client configuration.
func LoadClientConfig() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{
		APIURL:         strings.TrimRight(getEnv("LEXITAX_API_URL", DefaultAPIURL), "/"),
		SessionDBPath:  getEnv("LEXITAX_SESSION_DB", defaultSessionDBPath()),
		StoreKey:       os.Getenv("LEXITAX_STORE_KEY"),
		RequestTimeout: time.Second * time.Duration(getEnvInt("LEXITAX_REQUEST_TIMEOUT_SECONDS", 30)),
		Offline:        getEnvBool("LEXITAX_OFFLINE", false),
	}

	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid LEXITAX_API_URL %q", cfg.APIURL)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, errors.New("LEXITAX_REQUEST_TIMEOUT_SECONDS must be positive")
	}

	log.Printf("Loaded client config: API=%s, SessionDB=%s, Timeout=%s, Offline=%t, StoreKey=%s",
		cfg.APIURL, cfg.SessionDBPath, cfg.RequestTimeout, cfg.Offline, redacted(cfg.StoreKey))

	return cfg, nil
}

// Origin returns the scheme and host of the API URL. Persisted credentials
// are scoped by it.
func (c *ClientConfig) Origin() string {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return c.APIURL
	}
	return u.Scheme + "://" + u.Host
}

func loadDotEnv() {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
	}
}

func defaultSessionDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "lexitax-session.db"
	}
	return filepath.Join(dir, "lexitax", "session.db")
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	raw := getEnv(key, strconv.FormatBool(fallback))
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %t. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func redacted(s string) string {
	if s == "" {
		return "<none>"
	}
	return "***"
}
