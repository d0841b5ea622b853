package session

import (
	"crypto/cipher"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/yordimul/LexiTax-AI/internal/crypto"

	bolt "go.etcd.io/bbolt"
)

// BoltStore persists the credential in a bbolt file. Each scope (normally the
// API origin) gets its own bucket, so a credential issued by one backend is
// never sent to another.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
	aead   cipher.AEAD // nil stores JSON in the clear
}

var _ TokenStore = (*BoltStore)(nil)

// OpenBoltStore opens (creating if needed) the database at path.
// When aead is non-nil values are sealed with the scope as additional data.
func OpenBoltStore(path, scope string, aead cipher.AEAD) (*BoltStore, error) {
	if scope == "" {
		return nil, fmt.Errorf("credential store scope must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store %s: %w", path, err)
	}

	s := &BoltStore{db: db, bucket: []byte("origin:" + scope), aead: aead}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare credential bucket: %w", err)
	}
	log.Printf("[BoltStore] Opened credential store %s (scope %s, sealed=%t)", path, scope, aead != nil)
	return s, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load() (Credential, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(CredentialKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Credential{}, fmt.Errorf("failed to read credential: %w", err)
	}
	if raw == nil {
		return Credential{}, ErrNoCredential
	}

	if s.aead != nil {
		raw, err = crypto.Open(s.aead, raw, s.bucket)
		if err != nil {
			return Credential{}, fmt.Errorf("failed to unseal credential: %w", err)
		}
	}

	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, fmt.Errorf("failed to decode credential: %w", err)
	}
	return cred, nil
}

func (s *BoltStore) Save(cred Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}
	if s.aead != nil {
		raw, err = crypto.Seal(s.aead, raw, s.bucket)
		if err != nil {
			return fmt.Errorf("failed to seal credential: %w", err)
		}
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(CredentialKey), raw)
	})
}

func (s *BoltStore) Delete() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(CredentialKey))
	})
}
