package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of account roles. Free-form role strings are rejected
// at the boundary so the authorization gate can match exhaustively.
type Role string

const (
	RoleApplicant      Role = "applicant"
	RoleHardwareDealer Role = "hardware_dealer"
	RoleEngineer       Role = "engineer"
	RoleAdmin          Role = "admin"
)

// ParseRole normalizes and validates a role supplied by a client.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(raw))) {
	case RoleApplicant:
		return RoleApplicant, nil
	case RoleHardwareDealer:
		return RoleHardwareDealer, nil
	case RoleEngineer:
		return RoleEngineer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: role must be one of applicant, hardware_dealer, engineer, admin", ErrInvalidInput)
	}
}

// Status is the account status. Inactive accounts cannot authenticate.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// User is the identity record. The password hash and the one-time token slot
// are never serialized outward.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  Role   `json:"role"`

	PasswordHash string `json:"-"`
	Status       Status `json:"status"`

	// PasswordChangedAt invalidates session tokens issued before it.
	PasswordChangedAt time.Time `json:"-"`

	// One outstanding one-time token per user, shared between the email
	// verification and password reset purposes. Only the hash is stored.
	OneTimeTokenHash      string    `json:"-"`
	OneTimeTokenExpiresAt time.Time `json:"-"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Deleted reports whether the record carries a tombstone.
func (u *User) Deleted() bool { return u.DeletedAt != nil }

// FirstName is used when addressing the user in email templates.
func (u *User) FirstName() string {
	name := strings.TrimSpace(u.Name)
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
