package users

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It backs the default
// development setup and the service tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[email]; taken {
		return nil, fmt.Errorf("email %w", common.ErrConstraintViolated)
	}

	now := r.now()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byID[u.ID] = u
	r.byEmail[email] = u.ID

	return clone(u), nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := r.byEmail[*upd.Email]; taken {
			return nil, fmt.Errorf("email %w", common.ErrConstraintViolated)
		}
		delete(r.byEmail, u.Email)
		u.Email = *upd.Email
		r.byEmail[u.Email] = u.ID
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = r.now()

	return clone(u), nil
}

func (r *MemoryRepository) UpdateTwoFactor(ctx context.Context, id string, secret *string, enabled bool) (*models.User, error) {
	if enabled && (secret == nil || *secret == "") {
		return nil, fmt.Errorf("2fa secret %w", common.ErrConstraintViolated)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	if secret == nil {
		u.TwoFactorSecret = nil
	} else {
		s := *secret
		u.TwoFactorSecret = &s
	}
	u.TwoFactorEnabled = enabled
	u.UpdatedAt = r.now()

	return clone(u), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) ListAll(ctx context.Context) ([]models.UserProjection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.UserProjection, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u.Public())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func clone(u *models.User) *models.User {
	c := *u
	if u.TwoFactorSecret != nil {
		s := *u.TwoFactorSecret
		c.TwoFactorSecret = &s
	}
	return &c
}
