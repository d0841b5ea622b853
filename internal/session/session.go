// Package session owns the bearer credential of the local user.
//
// A Manager is created once and handed to the API client; there is no
// package level token. The credential is read on every outgoing request,
// so SetToken and Clear take effect on the next call.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// CredentialKey is the fixed key the credential is persisted under.
const CredentialKey = "access_token"

var (
	// ErrNoCredential is returned by stores that hold no credential.
	ErrNoCredential = errors.New("no credential stored")
	// ErrCredentialDiscarded is returned by NewManager when the stored
	// credential could not be read and was removed from the store.
	ErrCredentialDiscarded = errors.New("stored credential was unreadable and has been discarded")
)

// Credential is an opaque bearer token plus an optional refresh token.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// TokenStore persists a single credential.
// Load returns ErrNoCredential when nothing is stored.
type TokenStore interface {
	Load() (Credential, error)
	Save(Credential) error
	Delete() error
}

// Manager holds the active credential and mirrors it into a TokenStore.
// Concurrent writers are last-write-wins.
type Manager struct {
	mu    sync.RWMutex
	store TokenStore
	cred  *Credential
}

// NewManager creates a manager and restores any credential already in store.
// A credential that cannot be loaded (wrong store key, corrupt record) is
// deleted and the manager starts as a guest on the same store. In that case
// the manager is still returned, together with an error wrapping
// ErrCredentialDiscarded.
func NewManager(store TokenStore) (*Manager, error) {
	if store == nil {
		store = NewMemoryStore()
	}
	m := &Manager{store: store}

	cred, err := store.Load()
	switch {
	case err == nil && cred.AccessToken != "":
		m.cred = &cred
		log.Println("[Session] Restored stored credential.")
	case err == nil, errors.Is(err, ErrNoCredential):
		// guest
	default:
		log.Printf("WARN [Session] Discarding unreadable stored credential: %v", err)
		if delErr := store.Delete(); delErr != nil {
			log.Printf("ERROR [Session] Failed to delete unreadable credential: %v", delErr)
			return m, fmt.Errorf("%w: %v (delete failed: %v)", ErrCredentialDiscarded, err, delErr)
		}
		return m, fmt.Errorf("%w: %v", ErrCredentialDiscarded, err)
	}
	return m, nil
}

// Token returns the access token and whether one is present.
func (m *Manager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return "", false
	}
	return m.cred.AccessToken, true
}

// Credential returns a copy of the active credential.
func (m *Manager) Credential() (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return Credential{}, false
	}
	return *m.cred, true
}

// IsAuthenticated reports whether a credential is present.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Token()
	return ok
}

// SetToken replaces the credential with a bare access token.
func (m *Manager) SetToken(token string) error {
	return m.SetCredential(Credential{AccessToken: token})
}

// SetCredential replaces the active credential and persists it.
// An empty access token clears the session instead.
func (m *Manager) SetCredential(cred Credential) error {
	if cred.AccessToken == "" {
		return m.Clear()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	if err := m.store.Save(cred); err != nil {
		log.Printf("ERROR [Session] Failed to persist credential: %v", err)
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// Clear drops the credential from memory and from the store. The in-memory
// credential is always dropped, even when the store fails.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	if err := m.store.Delete(); err != nil {
		log.Printf("ERROR [Session] Failed to delete stored credential: %v", err)
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// --- In-memory store ---

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu   sync.Mutex
	cred *Credential
}

var _ TokenStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cred == nil {
		return Credential{}, ErrNoCredential
	}
	return *s.cred, nil
}

func (s *MemoryStore) Save(cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = &cred
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = nil
	return nil
}
