// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/dberr"
	"github.com/taibuivan/passage/internal/users/auth"
	"github.com/taibuivan/passage/pkg/pagination"
)

// PostgresRepository implements [Repository] over the users table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed account repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new account.

Description: The partial unique index on lower(email) for non-deleted rows
turns a racing duplicate registration into a CONFLICT.
*/
func (repository *PostgresRepository) Create(ctx context.Context, user *auth.User) error {
	const query = `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, gender, role, status,
			country, profile_image, date_of_birth, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13)`

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Gender,
		user.Role,
		user.Status,
		user.Country,
		user.ProfileImage,
		user.DateOfBirth,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_account_create_failed: %w", err)
	}
	return nil
}

// FindByID implements [Repository].
func (repository *PostgresRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	query := `SELECT ` + auth.UserColumns + ` FROM users WHERE id = $1 AND status <> 'DELETED'`

	user, err := auth.ScanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// EmailTaken implements [Repository].
func (repository *PostgresRepository) EmailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE lower(email) = lower($1) AND status <> 'DELETED' AND id::text <> $2
		)`

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, email, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("postgres_account_email_taken_failed: %w", err)
	}
	return taken, nil
}

// List implements [Repository].
func (repository *PostgresRepository) List(ctx context.Context, params pagination.Params, includeDeleted bool) ([]*auth.User, int, error) {
	const count = `SELECT COUNT(*) FROM users WHERE $1 OR status <> 'DELETED'`
	query := `
		SELECT ` + auth.UserColumns + `
		FROM users
		WHERE $1 OR status <> 'DELETED'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var total int
	if err := repository.pool.QueryRow(ctx, count, includeDeleted).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_count_failed: %w", err)
	}

	rows, err := repository.pool.Query(ctx, query, includeDeleted, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_scan_failed: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_rows_failed: %w", err)
	}
	return users, total, nil
}

// Update implements [Repository].
func (repository *PostgresRepository) Update(ctx context.Context, user *auth.User) error {
	const query = `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5, gender = $6,
			role = $7, country = $8, profile_image = NULLIF($9, ''), date_of_birth = $10, updated_at = $11
		WHERE id = $1 AND status <> 'DELETED'`

	tag, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Gender,
		user.Role,
		user.Country,
		user.ProfileImage,
		user.DateOfBirth,
		user.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Email is already registered")
		}
		return fmt.Errorf("postgres_account_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// SoftDelete implements [Repository].
func (repository *PostgresRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET status = 'DELETED', updated_at = $2
		WHERE id = $1 AND status <> 'DELETED'`

	tag, err := repository.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// SetProfileImage implements [Repository].
func (repository *PostgresRepository) SetProfileImage(ctx context.Context, id, url string) error {
	const query = `
		UPDATE users SET profile_image = $2, updated_at = $3
		WHERE id = $1 AND status <> 'DELETED'`

	tag, err := repository.pool.Exec(ctx, query, id, url, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_set_profile_image_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}
