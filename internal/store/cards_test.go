// ABOUTME: Tests for control card CRUD queries
// ABOUTME: Covers card numbering, (year, card_number) uniqueness, ordering, and filters

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testCard(year, number int, executorID *int64) *ControlCard {
	return &ControlCard{
		CardNumber:        number,
		Year:              year,
		Executor:          "ivanov",
		Reporter:          "petrov",
		Summary:           "inspection follow-up",
		DocumentReference: "doc-42",
		ExecutorAccountID: executorID,
		CreatedAt:         time.Now().UTC().Truncate(time.Second),
	}
}

func TestCreateAndGetCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	executor := mustCreateAccount(t, s, "ivanov", RoleUser)
	card := testCard(2025, 1, &executor.ID)
	card.ReturnTo = "archive"
	card.ExecutionDeadline = "2025-06-01"
	card.ExecutionPeriodType = "monthly"
	card.Department = "audit"

	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if card.ID == 0 {
		t.Fatal("CreateCard did not assign an ID")
	}

	got, err := s.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.CardNumber != 1 || got.Year != 2025 {
		t.Errorf("got card %d/%d, want 1/2025", got.CardNumber, got.Year)
	}
	if got.Executor != "ivanov" {
		t.Errorf("Executor = %q, want %q", got.Executor, "ivanov")
	}
	if got.ExecutorAccountID == nil || *got.ExecutorAccountID != executor.ID {
		t.Errorf("ExecutorAccountID = %v, want %d", got.ExecutorAccountID, executor.ID)
	}
	if got.ReturnTo != "archive" {
		t.Errorf("ReturnTo = %q, want %q", got.ReturnTo, "archive")
	}
	if got.ExecutionPeriodType != "monthly" {
		t.Errorf("ExecutionPeriodType = %q, want %q", got.ExecutionPeriodType, "monthly")
	}
	if got.Department != "audit" {
		t.Errorf("Department = %q, want %q", got.Department, "audit")
	}
	if got.Controller != "" {
		t.Errorf("Controller = %q, want empty", got.Controller)
	}
	if got.ControllerAccountID != nil {
		t.Errorf("ControllerAccountID = %v, want nil", *got.ControllerAccountID)
	}
}

func TestGetCard_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetCard(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCard_DuplicateYearNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateCard(ctx, testCard(2025, 1, nil)); err != nil {
		t.Fatalf("first CreateCard failed: %v", err)
	}
	if err := s.CreateCard(ctx, testCard(2025, 1, nil)); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("expected ErrDuplicateCard, got %v", err)
	}
	// Same number in a different year is fine.
	if err := s.CreateCard(ctx, testCard(2024, 1, nil)); err != nil {
		t.Errorf("same number in another year failed: %v", err)
	}
}

func TestNextCardNumber(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.NextCardNumber(ctx, 2025)
	if err != nil {
		t.Fatalf("NextCardNumber failed: %v", err)
	}
	if n != 1 {
		t.Errorf("NextCardNumber on empty year = %d, want 1", n)
	}

	for i := 1; i <= 3; i++ {
		if err := s.CreateCard(ctx, testCard(2025, i, nil)); err != nil {
			t.Fatalf("CreateCard %d failed: %v", i, err)
		}
	}

	n, err = s.NextCardNumber(ctx, 2025)
	if err != nil {
		t.Fatalf("NextCardNumber failed: %v", err)
	}
	if n != 4 {
		t.Errorf("NextCardNumber after 3 creates = %d, want 4", n)
	}

	// Other years are unaffected.
	n, err = s.NextCardNumber(ctx, 2024)
	if err != nil {
		t.Fatalf("NextCardNumber failed: %v", err)
	}
	if n != 1 {
		t.Errorf("NextCardNumber for untouched year = %d, want 1", n)
	}
}

func TestListCards_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, c := range []struct{ year, number int }{
		{2024, 1}, {2025, 2}, {2025, 1}, {2024, 7},
	} {
		if err := s.CreateCard(ctx, testCard(c.year, c.number, nil)); err != nil {
			t.Fatalf("CreateCard %d/%d failed: %v", c.number, c.year, err)
		}
	}

	cards, err := s.ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	want := []struct{ year, number int }{
		{2025, 2}, {2025, 1}, {2024, 7}, {2024, 1},
	}
	if len(cards) != len(want) {
		t.Fatalf("got %d cards, want %d", len(cards), len(want))
	}
	for i, w := range want {
		if cards[i].Year != w.year || cards[i].CardNumber != w.number {
			t.Errorf("cards[%d] = %d/%d, want %d/%d", i, cards[i].CardNumber, cards[i].Year, w.number, w.year)
		}
	}
}

func TestListCardsByExecutor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := mustCreateAccount(t, s, "alice", RoleUser)
	bob := mustCreateAccount(t, s, "bob", RoleUser)

	if err := s.CreateCard(ctx, testCard(2025, 1, &alice.ID)); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if err := s.CreateCard(ctx, testCard(2025, 2, &bob.ID)); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if err := s.CreateCard(ctx, testCard(2025, 3, &alice.ID)); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	cards, err := s.ListCardsByExecutor(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListCardsByExecutor failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("got %d cards for alice, want 2", len(cards))
	}
	if cards[0].CardNumber != 3 || cards[1].CardNumber != 1 {
		t.Errorf("got cards %d, %d; want 3, 1", cards[0].CardNumber, cards[1].CardNumber)
	}

	// No matches is an empty result, not an error.
	none, err := s.ListCardsByExecutor(ctx, 9999)
	if err != nil {
		t.Fatalf("ListCardsByExecutor with no matches failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d cards for unknown executor, want 0", len(none))
	}
}

func TestUpdateCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	card := testCard(2025, 1, nil)
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	card.Summary = "revised summary"
	card.Resolution = "resolved"
	card.ExtendedDeadline = "2025-09-01"
	if err := s.UpdateCard(ctx, card); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}

	got, err := s.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.Summary != "revised summary" {
		t.Errorf("Summary = %q, want %q", got.Summary, "revised summary")
	}
	if got.Resolution != "resolved" {
		t.Errorf("Resolution = %q, want %q", got.Resolution, "resolved")
	}
	if got.ExtendedDeadline != "2025-09-01" {
		t.Errorf("ExtendedDeadline = %q, want %q", got.ExtendedDeadline, "2025-09-01")
	}
}

func TestUpdateCard_NotFoundAndConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	missing := testCard(2025, 1, nil)
	missing.ID = 999
	if err := s.UpdateCard(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	first := testCard(2025, 1, nil)
	second := testCard(2025, 2, nil)
	if err := s.CreateCard(ctx, first); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}
	if err := s.CreateCard(ctx, second); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	second.CardNumber = 1
	if err := s.UpdateCard(ctx, second); !errors.Is(err, ErrDuplicateCard) {
		t.Errorf("expected ErrDuplicateCard, got %v", err)
	}
}

func TestDeleteCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	card := testCard(2025, 1, nil)
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	if err := s.DeleteCard(ctx, card.ID); err != nil {
		t.Fatalf("DeleteCard failed: %v", err)
	}
	if _, err := s.GetCard(ctx, card.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteCard(ctx, card.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeleteAccount_LeavesDanglingCardReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	executor := mustCreateAccount(t, s, "ivanov", RoleUser)
	card := testCard(2025, 1, &executor.ID)
	if err := s.CreateCard(ctx, card); err != nil {
		t.Fatalf("CreateCard failed: %v", err)
	}

	if err := s.DeleteAccount(ctx, executor.ID); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	// No cascade: the card keeps its now-dangling executor reference.
	got, err := s.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if got.ExecutorAccountID == nil || *got.ExecutorAccountID != executor.ID {
		t.Errorf("ExecutorAccountID = %v, want dangling %d", got.ExecutorAccountID, executor.ID)
	}
}
