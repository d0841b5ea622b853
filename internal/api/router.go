package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler         *handlers.AuthHandler
	ConversationHandler *handlers.ConversationHandlers
	GuestHandler        *handlers.GuestHandlers
	Authenticator       TokenAuthenticator
	Config              *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
// Every route lives under /api and ends in a slash.
func NewRouter(deps RouterDependencies) *chi.Mux {
	switch {
	case deps.AuthHandler == nil:
		panic("AuthHandler dependency is nil in router setup")
	case deps.ConversationHandler == nil:
		panic("ConversationHandler dependency is nil in router setup")
	case deps.GuestHandler == nil:
		panic("GuestHandler dependency is nil in router setup")
	case deps.Authenticator == nil:
		panic("Authenticator dependency is nil in router setup")
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)                 // Inject request ID into context
	r.Use(middleware.RealIP)                    // Use X-Forwarded-For or X-Real-IP
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics, return 500
	r.Use(middleware.Timeout(60 * time.Second)) // Set a request timeout

	// --- CORS Configuration ---
	// Credentials are allowed so the guest cookie reaches the browser UI.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// --- Public Routes (No JWT Required) ---
		r.Post("/auth/signup/", deps.AuthHandler.HandleSignup)
		r.Post("/auth/login/", deps.AuthHandler.HandleLogin)

		r.Route("/guest", func(r chi.Router) {
			r.Get("/query-count/", deps.GuestHandler.HandleQueryCount)
			r.Post("/query/", deps.GuestHandler.HandleQuery)
		})

		// --- Authenticated Routes (JWT Required) ---
		r.Group(func(r chi.Router) {
			r.Use(JwtAuthMiddleware(deps.Authenticator))

			r.Post("/auth/logout/", deps.AuthHandler.HandleLogout)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", deps.ConversationHandler.HandleListConversations)
				r.Post("/", deps.ConversationHandler.HandleCreateConversation)
				r.Get("/{conversationID}/", deps.ConversationHandler.HandleGetConversation)
			})

			r.Post("/chat/query/", deps.ConversationHandler.HandleChatQuery)
		})
	})

	return r
}
