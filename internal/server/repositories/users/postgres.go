package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the directory maps to sentinel errors.
const (
	pgUniqueViolation           = "23505"
	pgCheckViolation            = "23514"
	pgInvalidTextRepresentation = "22P02"
)

const userColumns = `id, email, password_hash, two_factor_secret, two_factor_enabled, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE email = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT ` + userColumns + ` FROM users
		 WHERE id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, email, passwordHash string) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING ` + userColumns

	return r.scanUser(r.db.QueryRowContext(ctx, query, uuid.NewString(), email, passwordHash))
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	query :=
		`UPDATE users
		 SET email = COALESCE($2, email),
		     password_hash = COALESCE($3, password_hash),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return r.scanUser(r.db.QueryRowContext(ctx, query, id, nullString(upd.Email), nullString(upd.PasswordHash)))
}

func (r *PostgresRepository) UpdateTwoFactor(ctx context.Context, id string, secret *string, enabled bool) (*models.User, error) {
	query :=
		`UPDATE users
		 SET two_factor_secret = $2,
		     two_factor_enabled = $3,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return r.scanUser(r.db.QueryRowContext(ctx, query, id, nullString(secret), enabled))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapDBErr(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.UserProjection, error) {
	query :=
		`SELECT id, email, two_factor_enabled, created_at, updated_at FROM users
		 ORDER BY created_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapDBErr(err)
	}
	defer rows.Close()

	out := make([]models.UserProjection, 0)
	for rows.Next() {
		var p models.UserProjection
		if err := rows.Scan(&p.ID, &p.Email, &p.TwoFactorEnabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	var (
		u      models.User
		secret sql.NullString
	)

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &secret, &u.TwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapDBErr(err)
	}
	if secret.Valid {
		u.TwoFactorSecret = &secret.String
	}
	return &u, nil
}

// mapDBErr turns driver errors into the directory's sentinel errors.
func mapDBErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgCheckViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, common.ErrConstraintViolated)
		case pgInvalidTextRepresentation:
			// a malformed uuid cannot name an existing row
			return common.ErrorNotFound
		}
	}

	return fmt.Errorf("db error: %w", err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
