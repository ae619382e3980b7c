// ABOUTME: Tests for account CRUD queries
// ABOUTME: Covers uniqueness, role validation at the schema, ordering, and deletion

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func mustCreateAccount(t *testing.T, s *Store, username string, role Role) *Account {
	t.Helper()
	account := &Account{
		Username:     username,
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefake",
		Role:         role,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount(%q) failed: %v", username, err)
	}
	return account
}

func TestCreateAndGetAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account := mustCreateAccount(t, s, "ivanov", RoleUser)
	if account.ID == 0 {
		t.Fatal("CreateAccount did not assign an ID")
	}

	got, err := s.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if got.Username != "ivanov" {
		t.Errorf("Username = %q, want %q", got.Username, "ivanov")
	}
	if got.Role != RoleUser {
		t.Errorf("Role = %q, want %q", got.Role, RoleUser)
	}
	if got.PasswordHash != account.PasswordHash {
		t.Error("PasswordHash not stored")
	}
	if !got.CreatedAt.Equal(account.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, account.CreatedAt)
	}

	byName, err := s.GetAccountByUsername(ctx, "ivanov")
	if err != nil {
		t.Fatalf("GetAccountByUsername failed: %v", err)
	}
	if byName.ID != account.ID {
		t.Errorf("ID = %d, want %d", byName.ID, account.ID)
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetAccountByID(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccountByID: expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAccountByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccountByUsername: expected ErrNotFound, got %v", err)
	}
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	mustCreateAccount(t, s, "ivanov", RoleUser)

	dup := &Account{
		Username:     "ivanov",
		PasswordHash: "hash",
		Role:         RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.CreateAccount(context.Background(), dup); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account := mustCreateAccount(t, s, "ivanov", RoleUser)

	if err := s.UpdateAccount(ctx, account.ID, "ivanov-2", RoleController); err != nil {
		t.Fatalf("UpdateAccount failed: %v", err)
	}

	got, err := s.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if got.Username != "ivanov-2" {
		t.Errorf("Username = %q, want %q", got.Username, "ivanov-2")
	}
	if got.Role != RoleController {
		t.Errorf("Role = %q, want %q", got.Role, RoleController)
	}
}

func TestUpdateAccount_NotFoundAndConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpdateAccount(ctx, 999, "ghost", RoleUser); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	a := mustCreateAccount(t, s, "first", RoleUser)
	mustCreateAccount(t, s, "second", RoleUser)
	if err := s.UpdateAccount(ctx, a.ID, "second", RoleUser); !errors.Is(err, ErrUsernameExists) {
		t.Errorf("expected ErrUsernameExists, got %v", err)
	}
}

func TestUpdateAccountPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account := mustCreateAccount(t, s, "ivanov", RoleUser)

	if err := s.UpdateAccountPassword(ctx, account.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateAccountPassword failed: %v", err)
	}

	got, err := s.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetAccountByID failed: %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "new-hash")
	}

	if err := s.UpdateAccountPassword(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	account := mustCreateAccount(t, s, "ivanov", RoleUser)

	if err := s.DeleteAccount(ctx, account.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := s.GetAccountByID(ctx, account.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteAccount(ctx, account.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestHasAnyAccounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	has, err := s.HasAnyAccounts(ctx)
	if err != nil {
		t.Fatalf("HasAnyAccounts failed: %v", err)
	}
	if has {
		t.Error("HasAnyAccounts = true on empty database")
	}

	mustCreateAccount(t, s, "ivanov", RoleAdmin)

	has, err = s.HasAnyAccounts(ctx)
	if err != nil {
		t.Fatalf("HasAnyAccounts failed: %v", err)
	}
	if !has {
		t.Error("HasAnyAccounts = false after create")
	}
}

func TestListAccounts_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		account := &Account{
			Username:     fmt.Sprintf("user-%d", i),
			PasswordHash: "hash",
			Role:         RoleUser,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateAccount(ctx, account); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
	}

	accounts, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts, want 3", len(accounts))
	}
	for i, want := range []string{"user-2", "user-1", "user-0"} {
		if accounts[i].Username != want {
			t.Errorf("accounts[%d].Username = %q, want %q", i, accounts[i].Username, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "user", "controller"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) failed: %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Admin", "superuser", "ADMIN"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q) succeeded, want error", invalid)
		}
	}
}
