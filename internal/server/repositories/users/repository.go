// Package users implements the account directory: persistent user records
// keyed by id and by unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the account directory contract.
//
// Lookups of an absent user return common.ErrorNotFound. Writes that would
// break email uniqueness return common.ErrConstraintViolated. Every mutating
// method is a single atomic write; concurrent writers to the same row get
// last-write-wins.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	UpdateTwoFactor(ctx context.Context, id string, secret *string, enabled bool) (*models.User, error)
	Delete(ctx context.Context, id string) error
	// ListAll returns every user without password hash or 2FA secret,
	// oldest first.
	ListAll(ctx context.Context) ([]models.UserProjection, error)
}
