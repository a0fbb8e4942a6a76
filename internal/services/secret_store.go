package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"inkwell/internal/crypto"
)

// SecretStore is the read surface of secure credential storage. A store that
// does not also implement MutableSecretStore is treated as read-only, which
// blocks legacy-key migration but not lookup.
type SecretStore interface {
	Get(id string) (string, error)
	Has(id string) bool
}

// MutableSecretStore adds the mutation surface required for migration.
type MutableSecretStore interface {
	SecretStore
	Set(id, value string) error
	Delete(id string) error
}

// FileSecretStore keeps secrets in an encrypted JSON file under the data
// dir. Each secret is AES-GCM encrypted under a key derived from the master
// key and the secret id.
type FileSecretStore struct {
	mu      sync.Mutex
	path    string
	enc     *crypto.EncryptionService
	entries map[string]string // id -> base64 ciphertext
}

// NewFileSecretStore opens (or creates) the store at path.
func NewFileSecretStore(path string, enc *crypto.EncryptionService) (*FileSecretStore, error) {
	s := &FileSecretStore{
		path:    path,
		enc:     enc,
		entries: map[string]string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read secret store: %w", err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("failed to parse secret store: %w", err)
	}
	return s, nil
}

// Has reports whether a secret exists without decrypting it.
func (s *FileSecretStore) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Get decrypts and returns the secret for id.
func (s *FileSecretStore) Get(id string) (string, error) {
	s.mu.Lock()
	ciphertext, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("secret %q not found", id)
	}
	return s.enc.Decrypt(ciphertext, id)
}

// Set encrypts and stores the secret, persisting immediately.
func (s *FileSecretStore) Set(id, value string) error {
	ciphertext, err := s.enc.Encrypt(value, id)
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = ciphertext
	return s.save()
}

// Delete removes the secret, persisting immediately.
func (s *FileSecretStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return s.save()
}

// save writes atomically. Caller holds the lock.
func (s *FileSecretStore) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode secret store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create secrets directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write secret store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace secret store: %w", err)
	}
	return nil
}
