// ABOUTME: Account operations: bootstrap, login, registration, and admin management
// ABOUTME: Login never reveals whether the username or the password was wrong

package service

import (
	"context"
	"errors"
	"time"

	"github.com/controldesk/controldesk/internal/auth"
	"github.com/controldesk/controldesk/internal/store"
)

// invalidCredentials is the one message for every login failure, so a caller
// cannot enumerate accounts.
const invalidCredentials = "invalid username or password"

// CreateFirstAdmin creates the bootstrap admin account. It requires no
// token but fails with a Conflict if any account already exists.
func (s *Service) CreateFirstAdmin(ctx context.Context, username, password string) (int64, error) {
	if username == "" {
		return 0, errValidation("username is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, errValidation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.store.HasAnyAccounts(ctx)
	if err != nil {
		return 0, storeError("checking accounts", err)
	}
	if exists {
		return 0, errConflict("an account already exists; bootstrap is only available on an empty database")
	}

	account := &store.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         store.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return 0, storeError("creating admin account", err)
	}

	s.logger.Info("bootstrap admin created", "username", username)
	return account.ID, nil
}

// Login verifies credentials and issues a signed token. Unknown username and
// wrong password are indistinguishable to the caller; a dummy hash
// comparison keeps the timing of both paths uniform.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.DummyCompare(password)
			return "", errAuthentication(invalidCredentials)
		}
		return "", storeError("looking up account", err)
	}

	ok, err := auth.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return "", &Error{Kind: KindInternal, Message: "stored credentials are unreadable", cause: err}
	}
	if !ok {
		return "", errAuthentication(invalidCredentials)
	}

	token, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return "", &Error{Kind: KindInternal, Message: "failed to issue token", cause: err}
	}

	s.logger.Info("login", "username", username, "role", account.Role)
	return token, nil
}

// CurrentAccount returns the caller's own account with the password hash
// omitted.
func (s *Service) CurrentAccount(ctx context.Context, token string) (*store.Account, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.store.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		return nil, storeError("looking up account", err)
	}
	account.PasswordHash = ""
	return account, nil
}

// Register creates an account with the given role. Admin only.
func (s *Service) Register(ctx context.Context, username, password, role, token string) (int64, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}
	if err := requireRole(claims, store.RoleAdmin); err != nil {
		return 0, err
	}

	if username == "" {
		return 0, errValidation("username is required")
	}
	parsedRole, err := store.ParseRole(role)
	if err != nil {
		return 0, errValidation("%v", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, errValidation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account := &store.Account{
		Username:     username,
		PasswordHash: hash,
		Role:         parsedRole,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return 0, storeError("creating account", err)
	}
	return account.ID, nil
}

// ListAccounts returns all accounts, newest first, hashes omitted. Admin only.
func (s *Service) ListAccounts(ctx context.Context, token string) ([]*store.Account, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	if err := requireRole(claims, store.RoleAdmin); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAccountsLocked(ctx, nil)
}

// ListExecutorCandidates returns accounts with role "user", for executor
// selection. Admin and controller only.
func (s *Service) ListExecutorCandidates(ctx context.Context, token string) ([]*store.Account, error) {
	return s.listCandidates(ctx, token, store.RoleUser)
}

// ListControllerCandidates returns accounts with role "controller", for
// controller selection. Admin and controller only.
func (s *Service) ListControllerCandidates(ctx context.Context, token string) ([]*store.Account, error) {
	return s.listCandidates(ctx, token, store.RoleController)
}

func (s *Service) listCandidates(ctx context.Context, token string, role store.Role) ([]*store.Account, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	if err := requireRole(claims, store.RoleAdmin, store.RoleController); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAccountsLocked(ctx, &role)
}

// listAccountsLocked lists accounts, optionally filtered by role, scrubbing
// hashes. Caller must hold s.mu.
func (s *Service) listAccountsLocked(ctx context.Context, role *store.Role) ([]*store.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, storeError("listing accounts", err)
	}

	result := make([]*store.Account, 0, len(accounts))
	for _, account := range accounts {
		if role != nil && account.Role != *role {
			continue
		}
		account.PasswordHash = ""
		result = append(result, account)
	}
	return result, nil
}

// UpdateAccount changes an account's username and role. Admin only. Rejects
// a username that collides with a different existing account.
func (s *Service) UpdateAccount(ctx context.Context, id int64, username, role, token string) error {
	claims, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if err := requireRole(claims, store.RoleAdmin); err != nil {
		return err
	}

	if username == "" {
		return errValidation("username is required")
	}
	parsedRole, err := store.ParseRole(role)
	if err != nil {
		return errValidation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetAccountByID(ctx, id); err != nil {
		return storeError("looking up account", err)
	}

	existing, err := s.store.GetAccountByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return storeError("checking username", err)
	}
	if err == nil && existing.ID != id {
		return errConflict("username already exists")
	}

	if err := s.store.UpdateAccount(ctx, id, username, parsedRole); err != nil {
		return storeError("updating account", err)
	}
	return nil
}

// DeleteAccount removes an account. Admin only. Cards referencing the
// account keep their dangling references; there is no cascade.
func (s *Service) DeleteAccount(ctx context.Context, id int64, token string) error {
	claims, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if err := requireRole(claims, store.RoleAdmin); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return storeError("deleting account", err)
	}
	return nil
}

// ChangePassword replaces an account's password. Admin only.
func (s *Service) ChangePassword(ctx context.Context, id int64, newPassword, token string) error {
	claims, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if err := requireRole(claims, store.RoleAdmin); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return errValidation("%v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.UpdateAccountPassword(ctx, id, hash); err != nil {
		return storeError("updating password", err)
	}
	return nil
}
