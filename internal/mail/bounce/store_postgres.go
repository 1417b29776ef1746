// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package bounce

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements [Store] over the blocked_emails table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed suppression store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Exists implements [Store].
func (store *PostgresStore) Exists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM blocked_emails WHERE email = $1)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_suppression_exists_failed: %w", err)
	}
	return exists, nil
}

/*
Insert writes a suppression row.

Description: The unique index on email plus ON CONFLICT DO NOTHING keeps the
list free of duplicates even when two writers race past the existence check.

Returns:
  - bool: true when a new row was written
  - error: Persistence failures
*/
func (store *PostgresStore) Insert(ctx context.Context, entry *Suppression) (bool, error) {
	const query = `
		INSERT INTO blocked_emails (id, email, reason, subject, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`

	tag, err := store.pool.Exec(ctx, query, entry.ID, entry.Email, entry.Reason, entry.Subject, entry.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("postgres_suppression_insert_failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List implements [Store].
func (store *PostgresStore) List(ctx context.Context) ([]*Suppression, error) {
	const query = `
		SELECT id, email, reason, subject, created_at
		FROM blocked_emails
		ORDER BY created_at DESC`

	rows, err := store.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_suppression_list_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]*Suppression, 0)
	for rows.Next() {
		entry := &Suppression{}
		if err := rows.Scan(&entry.ID, &entry.Email, &entry.Reason, &entry.Subject, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres_suppression_scan_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_suppression_rows_failed: %w", err)
	}
	return entries, nil
}

// Delete implements [Store].
func (store *PostgresStore) Delete(ctx context.Context, email string) (bool, error) {
	tag, err := store.pool.Exec(ctx, `DELETE FROM blocked_emails WHERE email = $1`, email)
	if err != nil {
		return false, fmt.Errorf("postgres_suppression_delete_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
