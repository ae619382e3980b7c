// ABOUTME: Control card operations: create, read, update, delete with role scoping
// ABOUTME: Executor references must resolve to role=user, controllers to role=controller

package service

import (
	"context"
	"errors"
	"time"

	"github.com/controldesk/controldesk/internal/store"
)

// CardInput carries the caller-supplied fields for creating or updating a
// control card. The executor display name is not an input; it is
// denormalized from the resolved executor account at write time.
type CardInput struct {
	CardNumber        int    `json:"card_number"`
	Year              int    `json:"year"`
	ExecutorAccountID int64  `json:"executor_account_id"`
	Reporter          string `json:"reporter"`
	Summary           string `json:"summary"`
	DocumentReference string `json:"document_reference"`

	ReturnTo            string `json:"return_to,omitempty"`
	ExecutionDeadline   string `json:"execution_deadline,omitempty"`
	ExecutionPeriodType string `json:"execution_period_type,omitempty"`
	ExtendedDeadline    string `json:"extended_deadline,omitempty"`
	Resolution          string `json:"resolution,omitempty"`
	Department          string `json:"department,omitempty"`
	Controller          string `json:"controller,omitempty"`
	ControllerAccountID *int64 `json:"controller_account_id,omitempty"`
}

// NextCardNumber suggests the next sequential card number for a year. The
// result is a hint only; a concurrent create for the same pair is rejected
// by the (year, card_number) uniqueness constraint.
func (s *Service) NextCardNumber(ctx context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.store.NextCardNumber(ctx, year)
	if err != nil {
		return 0, storeError("getting next card number", err)
	}
	return n, nil
}

// CreateCard creates a control card. Admin and controller only. The
// executor reference must resolve to an account with role "user"; the
// controller reference, if present and resolvable, must have role
// "controller".
func (s *Service) CreateCard(ctx context.Context, in CardInput, token string) (int64, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return 0, err
	}
	if err := requireRole(claims, store.RoleAdmin, store.RoleController); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	executorName, err := s.resolveExecutorLocked(ctx, in.ExecutorAccountID)
	if err != nil {
		return 0, err
	}
	if err := s.checkControllerLocked(ctx, in.ControllerAccountID); err != nil {
		return 0, err
	}

	creator := claims.AccountID
	executorID := in.ExecutorAccountID
	card := &store.ControlCard{
		CardNumber:          in.CardNumber,
		Year:                in.Year,
		Executor:            executorName,
		Reporter:            in.Reporter,
		Summary:             in.Summary,
		DocumentReference:   in.DocumentReference,
		CreatedBy:           &creator,
		ExecutorAccountID:   &executorID,
		Controller:          in.Controller,
		ControllerAccountID: in.ControllerAccountID,
		ReturnTo:            in.ReturnTo,
		ExecutionDeadline:   in.ExecutionDeadline,
		ExecutionPeriodType: in.ExecutionPeriodType,
		ExtendedDeadline:    in.ExtendedDeadline,
		Resolution:          in.Resolution,
		Department:          in.Department,
		CreatedAt:           time.Now().UTC(),
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return 0, storeError("creating card", err)
	}
	return card.ID, nil
}

// GetCard returns a single card. Admin and controller see any card; a user
// sees a card only when they are its executor. A card with no executor
// assigned is unreachable by a user.
func (s *Service) GetCard(ctx context.Context, id int64, token string) (*store.ControlCard, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, storeError("getting card", err)
	}

	if claims.Role == store.RoleAdmin || claims.Role == store.RoleController {
		return card, nil
	}
	if card.ExecutorAccountID == nil || *card.ExecutorAccountID != claims.AccountID {
		return nil, errAuthorization("access denied: you can only view cards where you are the executor")
	}
	return card, nil
}

// ListCards returns all cards for admin and controller callers, and only
// the caller's own executor-assigned cards for users. Newest first by
// (year, card_number).
func (s *Service) ListCards(ctx context.Context, token string) ([]*store.ControlCard, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cards []*store.ControlCard
	if claims.Role == store.RoleAdmin || claims.Role == store.RoleController {
		cards, err = s.store.ListCards(ctx)
	} else {
		cards, err = s.store.ListCardsByExecutor(ctx, claims.AccountID)
	}
	if err != nil {
		return nil, storeError("listing cards", err)
	}
	return cards, nil
}

// UpdateCard overwrites a card in place. Admin and controller only; the
// same executor/controller reference rules as CreateCard apply, and the
// executor display name is re-snapshotted from the resolved account.
func (s *Service) UpdateCard(ctx context.Context, id int64, in CardInput, token string) error {
	claims, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if err := requireRole(claims, store.RoleAdmin, store.RoleController); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	executorName, err := s.resolveExecutorLocked(ctx, in.ExecutorAccountID)
	if err != nil {
		return err
	}
	if err := s.checkControllerLocked(ctx, in.ControllerAccountID); err != nil {
		return err
	}

	updater := claims.AccountID
	executorID := in.ExecutorAccountID
	card := &store.ControlCard{
		ID:                  id,
		CardNumber:          in.CardNumber,
		Year:                in.Year,
		Executor:            executorName,
		Reporter:            in.Reporter,
		Summary:             in.Summary,
		DocumentReference:   in.DocumentReference,
		CreatedBy:           &updater,
		ExecutorAccountID:   &executorID,
		Controller:          in.Controller,
		ControllerAccountID: in.ControllerAccountID,
		ReturnTo:            in.ReturnTo,
		ExecutionDeadline:   in.ExecutionDeadline,
		ExecutionPeriodType: in.ExecutionPeriodType,
		ExtendedDeadline:    in.ExtendedDeadline,
		Resolution:          in.Resolution,
		Department:          in.Department,
	}
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return storeError("updating card", err)
	}
	return nil
}

// DeleteCard removes a card. Admin and controller only.
func (s *Service) DeleteCard(ctx context.Context, id int64, token string) error {
	claims, err := s.authenticate(token)
	if err != nil {
		return err
	}
	if err := requireRole(claims, store.RoleAdmin, store.RoleController); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteCard(ctx, id); err != nil {
		return storeError("deleting card", err)
	}
	return nil
}

// resolveExecutorLocked verifies the executor account exists with role
// "user" and returns its username for the display snapshot. Caller must
// hold s.mu.
func (s *Service) resolveExecutorLocked(ctx context.Context, accountID int64) (string, error) {
	account, err := s.store.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errNotFound("executor account not found")
		}
		return "", storeError("looking up executor", err)
	}
	if account.Role != store.RoleUser {
		return "", errValidation("executor must be an account with role %q", store.RoleUser)
	}
	return account.Username, nil
}

// checkControllerLocked verifies a supplied controller reference has role
// "controller". A reference that doesn't resolve is tolerated: the lookup
// only probes an optional reference. Caller must hold s.mu.
func (s *Service) checkControllerLocked(ctx context.Context, accountID *int64) error {
	if accountID == nil {
		return nil
	}
	account, err := s.store.GetAccountByID(ctx, *accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return storeError("looking up controller", err)
	}
	if account.Role != store.RoleController {
		return errValidation("controller must be an account with role %q", store.RoleController)
	}
	return nil
}
