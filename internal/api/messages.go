// Package api declares the wire messages shared by the REST endpoint, the
// gRPC service and the CLI client. The JSON field names are part of the
// public contract.
package api

import "time"

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6"`
	TwoFactorCode string `json:"twoFactorCode,omitempty" validate:"omitempty,min=6"`
}

// CredentialsRequest identifies an account by email and password. Used by
// delete-by-credentials and 2FA enable.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UpdateAccountRequest struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6,max=72"`
}

type UpdateByCredentialsRequest struct {
	CurrentEmail    string `json:"currentEmail" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required,min=6"`
	NewEmail        string `json:"newEmail,omitempty" validate:"omitempty,email"`
	NewPassword     string `json:"newPassword,omitempty" validate:"omitempty,min=6,max=72"`
}

// DeleteAccountRequest deletes the caller's own account when ID is empty.
type DeleteAccountRequest struct {
	ID string `json:"id,omitempty"`
}

type Verify2FARequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=6"`
}

type Disable2FARequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Code     string `json:"code" validate:"required,min=6"`
}

type Empty struct{}

type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type SessionResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserRef `json:"user"`
}

type MeResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	TwoFactorEnabled bool      `json:"twoFactorEnabled"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type ListUsersResponse struct {
	Users []User `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeleteResponse struct {
	Message string `json:"message"`
	Email   string `json:"email,omitempty"`
}

type UpdateResponse struct {
	Message string  `json:"message"`
	User    UserRef `json:"user"`
}

type Enable2FAResponse struct {
	Message string `json:"message"`
	Secret  string `json:"secret"`
	QRCode  string `json:"qrCode"`
}

// ErrorResponse is the REST error body.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}
