// ABOUTME: Store types, role enumeration, and sentinel errors for persistence
// ABOUTME: Defines Account and ControlCard records backed by the SQLite store

package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected is returned when an operation is invoked while the store
// has no open database connection.
var ErrNotConnected = errors.New("database not connected")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when creating or renaming an account to a
// username that another account already holds.
var ErrUsernameExists = errors.New("username already exists")

// ErrDuplicateCard is returned when an insert or update collides with an
// existing (year, card_number) pair.
var ErrDuplicateCard = errors.New("card number already exists for year")

// Role is the closed set of account roles. All policy checks operate on this
// type; raw strings are parsed at the boundary via ParseRole.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleUser       Role = "user"
	RoleController Role = "controller"
)

// ParseRole converts a raw string into a Role, rejecting anything outside
// the enumeration.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleController:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Account is a login account. PasswordHash never serializes outward.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ControlCard is the primary tracked record: an assigned task with a
// deadline/resolution workflow. Executor holds a snapshot of the executor
// account's username taken at write time; renaming the account later does
// not re-sync historical cards.
type ControlCard struct {
	ID                int64  `json:"id"`
	CardNumber        int    `json:"card_number"`
	Year              int    `json:"year"`
	Executor          string `json:"executor"`
	Reporter          string `json:"reporter"`
	Summary           string `json:"summary"`
	DocumentReference string `json:"document_reference"`

	CreatedBy           *int64 `json:"created_by,omitempty"`
	ExecutorAccountID   *int64 `json:"executor_account_id,omitempty"`
	Controller          string `json:"controller,omitempty"`
	ControllerAccountID *int64 `json:"controller_account_id,omitempty"`

	ReturnTo            string `json:"return_to,omitempty"`
	ExecutionDeadline   string `json:"execution_deadline,omitempty"`
	ExecutionPeriodType string `json:"execution_period_type,omitempty"`
	ExtendedDeadline    string `json:"extended_deadline,omitempty"`
	Resolution          string `json:"resolution,omitempty"`
	Department          string `json:"department,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
