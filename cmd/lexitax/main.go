package main

import (
	"context"
	"crypto/cipher"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/yordimul/LexiTax-AI/internal/apiclient"
	"github.com/yordimul/LexiTax-AI/internal/chat"
	"github.com/yordimul/LexiTax-AI/internal/config"
	"github.com/yordimul/LexiTax-AI/internal/crypto"
	"github.com/yordimul/LexiTax-AI/internal/session"
)

// offlineDelay mimics the latency of a backend answer.
const offlineDelay = time.Second

func main() {
	debug := flag.Bool("debug", false, "write diagnostic logs to stderr")
	offline := flag.Bool("offline", false, "answer from the built-in examples without a backend")
	latestTitle := flag.Bool("latest-title", false, "retitle conversations after every question instead of the first")
	flag.Parse()

	if !*debug {
		log.SetOutput(io.Discard)
	}

	// 1. Load Configuration
	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *offline {
		cfg.Offline = true
	}

	// 2. Open the credential store and restore any saved session
	store, closeStore := openTokenStore(cfg)
	defer closeStore()

	sess, err := session.NewManager(store)
	if err != nil {
		// sess is still usable: the unreadable credential was dropped.
		log.Printf("WARN: Could not restore saved credential: %v", err)
		fmt.Fprintln(os.Stderr, "Your saved login could not be restored and was cleared. Please sign in again.")
	}

	// 3. Wire the client and the conversation state
	var (
		client    *apiclient.Client
		responder chat.Responder
		authState chat.Authenticator
	)
	if cfg.Offline {
		responder = chat.MockResponder{Delay: offlineDelay}
	} else {
		client = apiclient.NewClient(cfg.APIURL, sess, apiclient.WithTimeout(cfg.RequestTimeout))
		responder = chat.RemoteResponder{API: client}
		authState = client
	}

	policy := chat.TitleFirstMessage
	if *latestTitle {
		policy = chat.TitleLatestMessage
	}
	machine := chat.NewMachine(responder, authState, chat.WithTitlePolicy(policy))
	defer machine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newREPL(os.Stdin, os.Stdout, client, machine, cfg.RequestTimeout)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		r.readSecret = readPassword
	}
	r.sync(ctx)

	if err := r.run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Input error: %v\n", err)
		os.Exit(1)
	}
}

// openTokenStore opens the persistent credential store for the API origin,
// falling back to memory when the file cannot be opened.
func openTokenStore(cfg *config.ClientConfig) (session.TokenStore, func()) {
	var aead cipher.AEAD
	if cfg.StoreKey != "" {
		var err error
		aead, err = crypto.NewAESGCMFromPassphrase(cfg.StoreKey)
		if err != nil {
			log.Printf("WARN: Invalid LEXITAX_STORE_KEY, credentials will not be persisted: %v", err)
			return session.NewMemoryStore(), func() {}
		}
	}

	bolt, err := session.OpenBoltStore(cfg.SessionDBPath, cfg.Origin(), aead)
	if err != nil {
		log.Printf("WARN: Could not open session store %s, credentials will not be persisted: %v", cfg.SessionDBPath, err)
		return session.NewMemoryStore(), func() {}
	}
	return bolt, func() {
		if err := bolt.Close(); err != nil {
			log.Printf("WARN: Closing session store: %v", err)
		}
	}
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
