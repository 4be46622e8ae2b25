// Package keystore keeps the session credential in a file sealed under a
// user PIN. Reading it back requires the PIN, the terminal stand-in for a
// biometric prompt.
package keystore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// FileName is the credential file inside the data directory.
const FileName = "credential.bin"

// MaxAttempts is how many PINs Authenticate accepts before giving up.
const MaxAttempts = 3

var (
	// ErrCanceled is returned when the user dismisses the PIN prompt.
	ErrCanceled = errors.New("keystore: canceled")
	// ErrNotFound means no credential is stored.
	ErrNotFound = errors.New("keystore: no stored credential")
	// ErrWrongPIN is returned after MaxAttempts failed PINs.
	ErrWrongPIN = errors.New("keystore: wrong PIN")
)

// Purpose tells the prompter why a PIN is needed.
type Purpose int

const (
	// PurposeCreate asks for a new PIN that seals the credential.
	PurposeCreate Purpose = iota + 1
	// PurposeUnlock asks for the existing PIN.
	PurposeUnlock
)

// Prompt describes one PIN request.
type Prompt struct {
	Purpose Purpose
	Attempt int // 1-based
	Reason  string
}

// Prompter obtains a PIN from the user. Returning ErrCanceled aborts the
// operation.
type Prompter interface {
	PIN(ctx context.Context, p Prompt) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, p Prompt) (string, error)

// PIN calls f.
func (f PrompterFunc) PIN(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// Params are the scrypt cost parameters.
type Params struct {
	N, R, P int
}

// DefaultParams is the interactive-login cost recommended for scrypt.
var DefaultParams = Params{N: 1 << 15, R: 8, P: 1}

// FileStore is a PIN-sealed credential file.
type FileStore struct {
	path     string
	prompter Prompter
	params   Params

	mu sync.Mutex
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithParams overrides the scrypt cost.
func WithParams(p Params) Option {
	return func(s *FileStore) { s.params = p }
}

// NewFileStore returns a store at path. A nil prompter makes the store
// unsupported.
func NewFileStore(path string, prompter Prompter, opts ...Option) *FileStore {
	s := &FileStore{path: path, prompter: prompter, params: DefaultParams}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Supported reports whether the store can prompt for a PIN.
func (s *FileStore) Supported() bool { return s.prompter != nil }

// Exists reports whether a credential is stored.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save seals secret under a newly chosen PIN, replacing any stored credential.
func (s *FileStore) Save(ctx context.Context, secret string) error {
	if !s.Supported() {
		return errors.New("keystore.Save: no PIN prompter")
	}
	pin, err := s.prompter.PIN(ctx, Prompt{Purpose: PurposeCreate, Attempt: 1, Reason: "Choose a PIN for quick login"})
	if err != nil {
		return fmt.Errorf("keystore.Save: %w", err)
	}
	if pin == "" {
		return fmt.Errorf("keystore.Save: %w", ErrCanceled)
	}

	var salt [saltSize]byte
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, salt[:]); err != nil {
		return fmt.Errorf("keystore.Save: salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("keystore.Save: nonce: %w", err)
	}
	key, err := s.deriveKey(pin, salt[:])
	if err != nil {
		return fmt.Errorf("keystore.Save: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(secret)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(secret), &nonce, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("keystore.Save: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("keystore.Save: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("keystore.Save: rename: %w", err)
	}
	return nil
}

// Authenticate prompts for the PIN and returns the stored secret.
func (s *FileStore) Authenticate(ctx context.Context) (string, error) {
	if !s.Supported() {
		return "", errors.New("keystore.Authenticate: no PIN prompter")
	}
	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keystore.Authenticate: %w", err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", errors.New("keystore.Authenticate: credential file is truncated")
	}
	salt := raw[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	box := raw[saltSize+nonceSize:]

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		reason := "Enter your PIN to log in"
		if attempt > 1 {
			reason = fmt.Sprintf("Wrong PIN, %d attempt(s) left", MaxAttempts-attempt+1)
		}
		pin, err := s.prompter.PIN(ctx, Prompt{Purpose: PurposeUnlock, Attempt: attempt, Reason: reason})
		if err != nil {
			return "", fmt.Errorf("keystore.Authenticate: %w", err)
		}
		key, err := s.deriveKey(pin, salt)
		if err != nil {
			return "", fmt.Errorf("keystore.Authenticate: %w", err)
		}
		if secret, ok := secretbox.Open(nil, box, &nonce, key); ok {
			return string(secret), nil
		}
	}
	return "", ErrWrongPIN
}

// Delete removes the stored credential. A missing file is not an error.
func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("keystore.Delete: %w", err)
	}
	return nil
}

func (s *FileStore) deriveKey(pin string, salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key([]byte(pin), salt, s.params.N, s.params.R, s.params.P, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}
