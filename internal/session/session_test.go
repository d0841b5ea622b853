package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/yordimul/LexiTax-AI/internal/crypto"
)

func TestManagerSetAndClearToken(t *testing.T) {
	m, err := NewManager(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if m.IsAuthenticated() {
		t.Fatal("Expected a new manager to be unauthenticated")
	}

	if err := m.SetToken("t-1"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if tok, ok := m.Token(); !ok || tok != "t-1" {
		t.Errorf("Expected token 't-1', got %q (ok=%v)", tok, ok)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if tok, ok := m.Token(); ok {
		t.Errorf("Expected no credential after Clear, got %q", tok)
	}
}

func TestManagerEmptyTokenClears(t *testing.T) {
	store := NewMemoryStore()
	m, _ := NewManager(store)
	_ = m.SetToken("t-1")

	if err := m.SetToken(""); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if m.IsAuthenticated() {
		t.Error("Expected empty token to clear the session")
	}
	if _, err := store.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Expected store to be empty, got %v", err)
	}
}

func TestManagerRestoresFromStore(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Save(Credential{AccessToken: "persisted", RefreshToken: "r"})

	m, err := NewManager(store)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cred, ok := m.Credential()
	if !ok || cred.AccessToken != "persisted" || cred.RefreshToken != "r" {
		t.Errorf("Expected restored credential, got %+v (ok=%v)", cred, ok)
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Delete() error { return errors.New("disk full") }

func TestManagerClearDropsMemoryEvenIfStoreFails(t *testing.T) {
	m, _ := NewManager(&failingStore{})
	_ = m.SetToken("t-1")

	if err := m.Clear(); err == nil {
		t.Fatal("Expected Clear to report the store failure")
	}
	if m.IsAuthenticated() {
		t.Error("Expected in-memory credential to be dropped")
	}
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := OpenBoltStore(path, "http://localhost:8000", nil)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	m, _ := NewManager(s)
	if err := m.SetCredential(Credential{AccessToken: "abc", RefreshToken: "def"}); err != nil {
		t.Fatalf("SetCredential failed: %v", err)
	}
	_ = s.Close()

	s, err = OpenBoltStore(path, "http://localhost:8000", nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	m, err = NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if tok, ok := m.Token(); !ok || tok != "abc" {
		t.Errorf("Expected token 'abc' after reopen, got %q (ok=%v)", tok, ok)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Expected ErrNoCredential after Clear, got %v", err)
	}
}

func TestBoltStoreScopesByOrigin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	a, err := OpenBoltStore(path, "http://a.example", nil)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	_ = a.Save(Credential{AccessToken: "for-a"})
	_ = a.Close()

	b, err := OpenBoltStore(path, "http://b.example", nil)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	defer b.Close()
	if _, err := b.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Expected other origin to see no credential, got %v", err)
	}
}

func TestBoltStoreSealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	aead, err := crypto.NewAESGCMFromPassphrase("store-key")
	if err != nil {
		t.Fatalf("NewAESGCMFromPassphrase failed: %v", err)
	}

	s, err := OpenBoltStore(path, "http://localhost:8000", aead)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	if err := s.Save(Credential{AccessToken: "sealed-token"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Load()
	if err != nil || got.AccessToken != "sealed-token" {
		t.Fatalf("Expected sealed round trip, got %+v, %v", got, err)
	}
	_ = s.Close()

	wrong, _ := crypto.NewAESGCMFromPassphrase("other-key")
	s, err = OpenBoltStore(path, "http://localhost:8000", wrong)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Load(); !errors.Is(err, crypto.ErrAuthenticationFailed) {
		t.Errorf("Expected authentication failure with wrong key, got %v", err)
	}
}

func TestManagerDiscardsCredentialSealedWithOtherKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	const origin = "http://localhost:8000"

	keyA, _ := crypto.NewAESGCMFromPassphrase("key-a")
	s, err := OpenBoltStore(path, origin, keyA)
	if err != nil {
		t.Fatalf("OpenBoltStore failed: %v", err)
	}
	m, _ := NewManager(s)
	if err := m.SetToken("sealed-with-a"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	_ = s.Close()

	keyB, _ := crypto.NewAESGCMFromPassphrase("key-b")
	s, err = OpenBoltStore(path, origin, keyB)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	m, err = NewManager(s)
	if !errors.Is(err, ErrCredentialDiscarded) {
		t.Fatalf("Expected ErrCredentialDiscarded, got %v", err)
	}
	if m == nil {
		t.Fatal("Expected a usable manager after discarding the credential")
	}
	if m.IsAuthenticated() {
		t.Error("Expected guest state after discarding the credential")
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Expected unreadable record to be deleted, got %v", err)
	}

	// A new login is persisted with the current key and restored next time.
	if err := m.SetToken("sealed-with-b"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	_ = s.Close()

	s, err = OpenBoltStore(path, origin, keyB)
	if err != nil {
		t.Fatalf("second reopen failed: %v", err)
	}
	defer s.Close()
	m, err = NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if tok, ok := m.Token(); !ok || tok != "sealed-with-b" {
		t.Errorf("Expected token 'sealed-with-b', got %q (ok=%v)", tok, ok)
	}
}

type unreadableStore struct{ MemoryStore }

func (u *unreadableStore) Load() (Credential, error) {
	if u.cred == nil {
		return Credential{}, errors.New("corrupt record")
	}
	return u.MemoryStore.Load()
}

func TestManagerDiscardsCorruptCredential(t *testing.T) {
	m, err := NewManager(&unreadableStore{})
	if !errors.Is(err, ErrCredentialDiscarded) {
		t.Fatalf("Expected ErrCredentialDiscarded, got %v", err)
	}
	if err := m.SetToken("fresh"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if tok, _ := m.Token(); tok != "fresh" {
		t.Errorf("Expected token 'fresh', got %q", tok)
	}
}
