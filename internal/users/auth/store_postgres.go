// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/passage/internal/platform/apperr"
	"github.com/taibuivan/passage/internal/platform/dberr"
	"github.com/taibuivan/passage/internal/platform/postgres"
)

// # User Repository

// UserColumns is the canonical select list for [ScanUser].
const UserColumns = `id, email, password_hash, first_name, last_name, gender, role, status,
	COALESCE(country, ''), COALESCE(profile_image, ''), date_of_birth, created_at, updated_at`

// ScanUser hydrates a [User] from a row selected with [UserColumns].
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Gender,
		&user.Role,
		&user.Status,
		&user.Country,
		&user.ProfileImage,
		&user.DateOfBirth,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// FindByID implements [UserRepository].
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE id = $1 AND status <> 'DELETED'`

	user, err := ScanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

/*
FindByEmail retrieves an account by email address.

Description: The comparison is case-insensitive and soft-deleted accounts are
skipped, so a deleted address may be registered again.
*/
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE lower(email) = lower($1) AND status <> 'DELETED'`

	user, err := ScanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// UpdatePassword implements [UserRepository].
func (repository *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, newHash string) error {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1 AND status <> 'DELETED'`

	tag, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// # Session Repository

const sessionColumns = `id, user_id, token_hash, device_fingerprint, ip_address, user_agent, is_active, expires_at, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.DeviceFingerprint,
		&session.IPAddress,
		&session.UserAgent,
		&session.IsActive,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// PostgresSessionRepository implements [SessionRepository] over user_sessions.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a PostgreSQL-backed session repository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
CreateExclusive replaces the user's active session with session.

Description: Runs deactivate and insert in one transaction. A transaction-scoped
advisory lock keyed by the user id serializes concurrent logins for the same
user, and the partial unique index on (user_id) WHERE is_active backs it up.

Parameters:
  - ctx: context.Context
  - session: *Session (IsActive is forced to true)

Returns:
  - error: Persistence failures
*/
func (repository *PostgresSessionRepository) CreateExclusive(ctx context.Context, session *Session) error {
	const lock = `SELECT pg_advisory_xact_lock(hashtext($1))`
	const deactivate = `UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`
	const insert = `
		INSERT INTO user_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)`

	session.IsActive = true

	err := postgres.InTx(ctx, repository.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lock, session.UserID); err != nil {
			return fmt.Errorf("postgres_session_lock_failed: %w", err)
		}
		if _, err := tx.Exec(ctx, deactivate, session.UserID); err != nil {
			return fmt.Errorf("postgres_session_deactivate_prior_failed: %w", err)
		}
		_, err := tx.Exec(ctx, insert,
			session.ID,
			session.UserID,
			session.TokenHash,
			session.DeviceFingerprint,
			session.IPAddress,
			session.UserAgent,
			session.ExpiresAt,
			session.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("postgres_session_insert_failed: %w", err)
		}
		return nil
	})
	return err
}

// FindActiveByTokenHash implements [SessionRepository].
func (repository *PostgresSessionRepository) FindActiveByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM user_sessions WHERE token_hash = $1 AND is_active`

	session, err := scanSession(repository.pool.QueryRow(ctx, query, tokenHash))
	if err != nil {
		return nil, dberr.Wrap(err, "Session")
	}
	return session, nil
}

// Deactivate implements [SessionRepository].
func (repository *PostgresSessionRepository) Deactivate(ctx context.Context, tokenHash string) error {
	const query = `UPDATE user_sessions SET is_active = FALSE WHERE token_hash = $1`

	if _, err := repository.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("postgres_session_deactivate_failed: %w", err)
	}
	return nil
}

// DeactivateAllForUser implements [SessionRepository].
func (repository *PostgresSessionRepository) DeactivateAllForUser(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE user_sessions SET is_active = FALSE WHERE user_id = $1 AND is_active`

	tag, err := repository.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_deactivate_all_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListActiveByUser implements [SessionRepository].
func (repository *PostgresSessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = $1 AND is_active
		ORDER BY created_at DESC`

	rows, err := repository.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_list_failed: %w", err)
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_session_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_rows_failed: %w", err)
	}
	return sessions, nil
}

// DeactivateExpired implements [SessionRepository].
func (repository *PostgresSessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `UPDATE user_sessions SET is_active = FALSE WHERE is_active AND expires_at <= $1`

	tag, err := repository.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("postgres_session_deactivate_expired_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// # OTP Repository

// PostgresOTPRepository implements [OTPRepository] over the otps table.
type PostgresOTPRepository struct {
	pool *pgxpool.Pool
}

// NewOTPRepository creates a PostgreSQL-backed one-time code repository.
func NewOTPRepository(pool *pgxpool.Pool) *PostgresOTPRepository {
	return &PostgresOTPRepository{pool: pool}
}

// Create implements [OTPRepository].
func (repository *PostgresOTPRepository) Create(ctx context.Context, otp *OTP) error {
	const query = `
		INSERT INTO otps (id, user_id, code_hash, purpose, expires_at, is_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repository.pool.Exec(ctx, query,
		otp.ID,
		otp.UserID,
		otp.CodeHash,
		otp.Purpose,
		otp.ExpiresAt,
		otp.IsUsed,
		otp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_otp_create_failed: %w", err)
	}
	return nil
}

// FindUnused implements [OTPRepository].
func (repository *PostgresOTPRepository) FindUnused(ctx context.Context, userID, codeHash string, purpose OTPPurpose) (*OTP, error) {
	const query = `
		SELECT id, user_id, code_hash, purpose, expires_at, is_used, created_at
		FROM otps
		WHERE user_id = $1 AND code_hash = $2 AND purpose = $3 AND NOT is_used
		ORDER BY created_at DESC
		LIMIT 1`

	otp := &OTP{}
	err := repository.pool.QueryRow(ctx, query, userID, codeHash, purpose).Scan(
		&otp.ID,
		&otp.UserID,
		&otp.CodeHash,
		&otp.Purpose,
		&otp.ExpiresAt,
		&otp.IsUsed,
		&otp.CreatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Verification code")
	}
	return otp, nil
}

// MarkUsed implements [OTPRepository].
func (repository *PostgresOTPRepository) MarkUsed(ctx context.Context, userID, codeHash string, purpose OTPPurpose) (int64, error) {
	const query = `
		UPDATE otps SET is_used = TRUE
		WHERE user_id = $1 AND code_hash = $2 AND purpose = $3 AND NOT is_used`

	tag, err := repository.pool.Exec(ctx, query, userID, codeHash, purpose)
	if err != nil {
		return 0, fmt.Errorf("postgres_otp_mark_used_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
