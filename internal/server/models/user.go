// Package models holds the server-side domain records.
package models

import "time"

// User is the full account record as kept by the account directory.
// PasswordHash and TwoFactorSecret never leave the server.
//
// Two-factor state is derived from the pair (TwoFactorSecret, TwoFactorEnabled):
// no secret means disabled, a secret with the flag unset means enrollment is
// pending verification, and a secret with the flag set means enabled.
type User struct {
	ID               string
	Email            string
	PasswordHash     string
	TwoFactorSecret  *string
	TwoFactorEnabled bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TwoFactorState names where a user is in 2FA enrollment.
type TwoFactorState int

const (
	TwoFactorDisabled TwoFactorState = iota
	TwoFactorPendingVerification
	TwoFactorEnabled
)

func (s TwoFactorState) String() string {
	switch s {
	case TwoFactorPendingVerification:
		return "pending_verification"
	case TwoFactorEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// TwoFactorState derives the enrollment state from the stored fields.
func (u *User) TwoFactorState() TwoFactorState {
	switch {
	case u.Secret() == "":
		return TwoFactorDisabled
	case u.TwoFactorEnabled:
		return TwoFactorEnabled
	default:
		return TwoFactorPendingVerification
	}
}

// Secret returns the TOTP secret or "" when none is stored.
func (u *User) Secret() string {
	if u.TwoFactorSecret == nil {
		return ""
	}
	return *u.TwoFactorSecret
}

// Public projects the user to its read-facing shape.
func (u *User) Public() UserProjection {
	return UserProjection{
		ID:               u.ID,
		Email:            u.Email,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// UserProjection is what callers outside the server core may see of a user.
type UserProjection struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// UserUpdate is a partial update of credential fields. A nil field is left
// unchanged.
type UserUpdate struct {
	Email        *string
	PasswordHash *string
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.Email == nil && u.PasswordHash == nil
}
