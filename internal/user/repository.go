// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/defect-tracker/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateFullName(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// ListActive returns live accounts ordered by name. An empty role
	// matches every role.
	ListActive(ctx context.Context, role string) ([]User, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userColumns = `
	id, email, password_hash, full_name, role,
	created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, user, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`

	return r.getOne(ctx, "get user", query, id)
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`

	return r.getOne(ctx, "get user by email", query, email)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.TranslatePgError(err))
	}
	return &user, nil
}

func (r *repository) UpdateFullName(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET full_name = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query, user.ID, user.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user name: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user name: %w", core.TranslatePgError(err))
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("update password: %w", err)
	} else if rows == 0 {
		return fmt.Errorf("update password: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListActive(ctx context.Context, role string) ([]User, error) {
	query := `
		SELECT id, full_name, role
		FROM users
		WHERE deleted_at IS NULL
		  AND ($1::text = '' OR role = $1)
		ORDER BY full_name, id`

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}
