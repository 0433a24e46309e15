// Package credential persists the client's session token and API key.
//
// A Store never fails: backend errors are logged and the operation becomes a
// no-op, so callers must tolerate a store that remembers nothing.
package credential

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vadimbarashkov/url-shortener-client/internal/entity"
)

// Backend is a durable key-value storage for opaque string values.
type Backend interface {
	// Get returns the value stored under key and whether it is present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Store exposes the credential contract on top of a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Get returns the credential of the given kind and whether it is present.
func (s *Store) Get(ctx context.Context, kind entity.CredentialKind) (string, bool) {
	v, ok, err := s.backend.Get(ctx, kind.Key())
	if err != nil {
		s.warn("failed to read credential", kind, err)
		return "", false
	}

	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", false
	}

	return v, true
}

// Set replaces the credential of the given kind. A blank value clears it.
func (s *Store) Set(ctx context.Context, kind entity.CredentialKind, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		s.Clear(ctx, kind)
		return
	}

	if err := s.backend.Set(ctx, kind.Key(), value); err != nil {
		s.warn("failed to write credential", kind, err)
	}
}

// Clear removes the credential of the given kind.
func (s *Store) Clear(ctx context.Context, kind entity.CredentialKind) {
	if err := s.backend.Delete(ctx, kind.Key()); err != nil {
		s.warn("failed to clear credential", kind, err)
	}
}

// ClearAll removes every credential kind.
func (s *Store) ClearAll(ctx context.Context) {
	for _, kind := range entity.Kinds {
		s.Clear(ctx, kind)
	}
}

// Snapshot returns both credentials as currently stored.
func (s *Store) Snapshot(ctx context.Context) entity.Credentials {
	token, _ := s.Get(ctx, entity.KindToken)
	apiKey, _ := s.Get(ctx, entity.KindAPIKey)

	return entity.Credentials{
		Token:  token,
		APIKey: apiKey,
	}
}

func (s *Store) warn(msg string, kind entity.CredentialKind, err error) {
	s.logger.Warn(msg, slog.String("kind", kind.String()), slog.Any("err", err))
}
