// ABOUTME: Authorization-gated operation layer over the store and token service
// ABOUTME: One mutex serializes every store-touching call for the whole process

package service

import (
	"log/slog"
	"sync"

	"github.com/controldesk/controldesk/internal/auth"
	"github.com/controldesk/controldesk/internal/store"
)

// Service is the set of externally invokable operations. Every operation
// that requires authentication verifies the bearer token before touching
// the store, applies the static role policy, then delegates. A single mutex
// is held for the full duration of each store-touching call (including
// nested account lookups), because the backing engine is single-writer.
type Service struct {
	mu     sync.Mutex
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// New creates a Service over the given store and token service.
func New(st *store.Store, tokens *auth.TokenService) *Service {
	return &Service{
		store:  st,
		tokens: tokens,
		logger: slog.Default().With("component", "service"),
	}
}

// Connect opens the database at path, replacing any existing connection.
func (s *Service) Connect(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Connect(path); err != nil {
		return &Error{Kind: KindStoreUnavailable, Message: err.Error(), cause: err}
	}
	return nil
}

// EnsureConnected connects to path unless the store is already connected to
// exactly that path, in which case it is a no-op.
func (s *Service) EnsureConnected(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.IsConnected() && s.store.Path() == path {
		return nil
	}
	if err := s.store.Connect(path); err != nil {
		return &Error{Kind: KindStoreUnavailable, Message: err.Error(), cause: err}
	}
	return nil
}

// Disconnect closes the database connection. Safe to call when disconnected.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Disconnect()
}

// IsConnected reports whether the store holds a live connection.
func (s *Service) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.IsConnected()
}

// DatabasePath returns the connected database path, or "" when disconnected.
func (s *Service) DatabasePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Path()
}

// authenticate verifies a bearer token and returns its claims. Any token
// failure surfaces as a single Authentication error.
func (s *Service) authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, errAuthentication("invalid or expired token")
	}
	return claims, nil
}

// requireRole checks the caller's role against the allowed set.
func requireRole(claims *auth.Claims, allowed ...store.Role) error {
	for _, role := range allowed {
		if claims.Role == role {
			return nil
		}
	}
	return errAuthorization("operation not permitted for role " + string(claims.Role))
}
