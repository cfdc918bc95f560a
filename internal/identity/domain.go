package identity

import (
	"errors"
	"time"
)

// Role is the closed set of newsroom roles. The admin superuser flag is
// orthogonal and lives on the User, not in this enumeration.
type Role string

const (
	RoleReader     Role = "READER"
	RoleJournalist Role = "JOURNALIST"
	RoleEditor     Role = "EDITOR"
)

var (
	// ErrNotFound indicates the user record does not exist.
	ErrNotFound = errors.New("identity: not found")
	// ErrUnknownRole indicates a stored role outside the closed set.
	// Callers must treat the carrying user as having zero capabilities.
	ErrUnknownRole = errors.New("identity: unknown role")
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("identity: email already registered")
)

// ParseRole validates a raw role value against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleReader, RoleJournalist, RoleEditor:
		return Role(raw), nil
	}
	return "", ErrUnknownRole
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// User represents an authenticated principal and its assigned role.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Superuser    bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user carries the superuser flag. Admins
// satisfy every role predicate downstream.
func (u *User) IsAdmin() bool {
	return u != nil && u.Superuser
}

// IsReader reports whether the user holds the Reader role.
func (u *User) IsReader() bool {
	return u != nil && u.Role == RoleReader
}

// IsJournalist reports whether the user holds the Journalist role.
func (u *User) IsJournalist() bool {
	return u != nil && u.Role == RoleJournalist
}

// IsEditor reports whether the user holds the Editor role.
func (u *User) IsEditor() bool {
	return u != nil && u.Role == RoleEditor
}

// RoleKnown reports whether the stored role is a member of the closed set.
// A user with an unrecognized role fails closed: every predicate above
// already returns false for it, and the evaluator reports data integrity.
func (u *User) RoleKnown() bool {
	return u != nil && u.Role.Valid()
}
