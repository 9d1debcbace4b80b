// Package session persists the current authenticated session across runs.
//
// The stored record is deliberately thin: a signed token carrying only the
// normalized email. Balances and plan data are never cached here; restore
// always re-reads the account from the store so changes made elsewhere are
// reflected.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brianking74/Property-Stage/internal/crypto"
	"github.com/brianking74/Property-Stage/internal/errs"
)

// Store saves and restores the current session's email.
type Store interface {
	// Save records email as the current session.
	Save(email string) error
	// Load returns the saved email; errs.ErrNotFound when no session exists.
	Load() (string, error)
	// Clear forgets the current session.
	Clear() error
}

type tokenFile struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the session as an HS256-signed token in dir/token.json.
// The signing key is generated once and kept next to it.
type FileStore struct {
	dir string
}

// NewFileStore constructs a session store rooted at dir.
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

func (s *FileStore) tokenPath() string { return filepath.Join(s.dir, "token.json") }
func (s *FileStore) keyPath() string   { return filepath.Join(s.dir, "session.key") }

func (s *FileStore) signKey() ([]byte, error) {
	if b, err := os.ReadFile(s.keyPath()); err == nil && len(b) > 0 {
		return b, nil
	}
	key, err := crypto.RandBytes(32)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.keyPath(), key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

// Save signs and writes the session token.
func (s *FileStore) Save(email string) error {
	key, err := s.signKey()
	if err != nil {
		return err
	}
	claims := jwt.RegisteredClaims{
		Subject:  email,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	f, err := os.Create(s.tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{Token: signed, SavedAt: time.Now()})
}

// Load verifies the token signature and returns the stored email.
func (s *FileStore) Load() (string, error) {
	b, err := os.ReadFile(s.tokenPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", errs.ErrNotFound
	}
	key, err := s.signKey()
	if err != nil {
		return "", err
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(tf.Token, &claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || claims.Subject == "" {
		return "", errs.ErrNotFound
	}
	return claims.Subject, nil
}

// Clear removes the session token.
func (s *FileStore) Clear() error {
	err := os.Remove(s.tokenPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	email string
}

// Save records email.
func (s *MemStore) Save(email string) error { s.email = email; return nil }

// Load returns the saved email.
func (s *MemStore) Load() (string, error) {
	if s.email == "" {
		return "", errs.ErrNotFound
	}
	return s.email, nil
}

// Clear forgets the session.
func (s *MemStore) Clear() error { s.email = ""; return nil }
