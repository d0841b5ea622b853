package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/api"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/handlers"
	"github.com/yordimul/LexiTax-AI/internal/services"
	"github.com/yordimul/LexiTax-AI/internal/store/memory"
)

func main() {
	log.Println("Starting LexiTax reference backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Store
	memStore := memory.NewMemoryStore()
	log.Println("In-memory store initialized.")

	// 3. Initialize Services and Handlers
	authService := services.NewAuthService(memStore, cfg)
	conversationService := services.NewConversationService(memStore)
	guestService := services.NewGuestService(memStore, cfg)
	log.Println("Services initialized.")

	authHandler := handlers.NewAuthHandler(authService)
	conversationHandler := handlers.NewConversationHandlers(conversationService)
	guestHandler := handlers.NewGuestHandlers(guestService)
	log.Println("Handlers initialized.")

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler:         authHandler,
		ConversationHandler: conversationHandler,
		GuestHandler:        guestHandler,
		Authenticator:       authService,
		Config:              cfg,
	})
	log.Println("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 65 * time.Second, // above the router's request timeout
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
		log.Fatal("Forcing shutdown due to error.")
	}

	log.Println("Server shutdown complete.")
}
