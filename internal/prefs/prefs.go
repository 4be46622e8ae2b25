// Package prefs persists non-secret client preferences as a JSON file.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileName is the preferences file inside the data directory.
const FileName = "prefs.json"

type data struct {
	BiometricEnabled bool   `json:"biometric_enabled,omitempty"`
	DeviceID         string `json:"device_id,omitempty"`
	PushToken        string `json:"push_token,omitempty"`
}

// Store is a prefs.json file. All methods are safe for concurrent use.
type Store struct {
	path string

	mu sync.Mutex
	d  data
}

// Open loads path, treating a missing file as empty preferences.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("prefs.Open: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.d); err != nil {
		return nil, fmt.Errorf("prefs.Open: parse %s: %w", path, err)
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.path }

// BiometricEnabled reports the persisted biometric-login flag.
func (s *Store) BiometricEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.BiometricEnabled
}

// SetBiometricEnabled persists the flag. Clearing it removes the key.
func (s *Store) SetBiometricEnabled(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.BiometricEnabled = on
	return s.saveLocked()
}

// DeviceID returns the stable device identifier, generating and persisting
// one on first use.
func (s *Store) DeviceID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.DeviceID != "" {
		return s.d.DeviceID, nil
	}
	s.d.DeviceID = uuid.NewString()
	if err := s.saveLocked(); err != nil {
		return "", err
	}
	return s.d.DeviceID, nil
}

// PushToken returns the last stored push token.
func (s *Store) PushToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.PushToken
}

// SetPushToken persists tok.
func (s *Store) SetPushToken(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d.PushToken == tok {
		return nil
	}
	s.d.PushToken = tok
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.d, "", "  ")
	if err != nil {
		return fmt.Errorf("prefs: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("prefs: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("prefs: rename: %w", err)
	}
	return nil
}
