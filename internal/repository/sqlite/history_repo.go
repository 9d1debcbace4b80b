package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/brianking74/Property-Stage/internal/errs"
	"github.com/brianking74/Property-Stage/internal/model"
)

// HistoryRepo implements HistoryRepository using SQLite.
type HistoryRepo struct {
	db  *sql.DB
	cap int
}

// NewHistoryRepo constructs a history repository that retains at most
// capacity entries per account.
func NewHistoryRepo(db *sql.DB, capacity int) *HistoryRepo {
	if capacity <= 0 {
		capacity = 50
	}
	return &HistoryRepo{db: db, cap: capacity}
}

// Append inserts rec and evicts the account's oldest rows beyond the cap,
// both inside one transaction.
func (r *HistoryRepo) Append(ctx context.Context, rec *model.GenerationResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const ins = `
INSERT INTO history (id, account_id, original, transformed, style, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		rec.ID.String(), rec.AccountID.String(),
		rec.Original, rec.Transformed, rec.Style, rec.CreatedAt.UnixMilli()); err != nil {
		return err
	}

	const trim = `
DELETE FROM history
WHERE account_id = ?
  AND id NOT IN (
      SELECT id FROM history
      WHERE account_id = ?
      ORDER BY created_at DESC, rowid DESC
      LIMIT ?)`
	acct := rec.AccountID.String()
	if _, err := tx.ExecContext(ctx, trim, acct, acct, r.cap); err != nil {
		return err
	}
	return tx.Commit()
}

// List returns the account's entries, newest first.
func (r *HistoryRepo) List(ctx context.Context, accountID uuid.UUID) ([]model.GenerationResult, error) {
	const q = `
SELECT id, account_id, original, transformed, style, created_at
FROM history
WHERE account_id = ?
ORDER BY created_at DESC, rowid DESC`
	rows, err := r.db.QueryContext(ctx, q, accountID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.GenerationResult
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Get returns one entry by id.
func (r *HistoryRepo) Get(ctx context.Context, accountID, id uuid.UUID) (*model.GenerationResult, error) {
	const q = `
SELECT id, account_id, original, transformed, style, created_at
FROM history
WHERE account_id = ? AND id = ?`
	rec, err := scanResult(r.db.QueryRowContext(ctx, q, accountID.String(), id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanResult(row rowScanner) (*model.GenerationResult, error) {
	var (
		rec       model.GenerationResult
		id, acct  string
		createdMs int64
	)
	if err := row.Scan(&id, &acct, &rec.Original, &rec.Transformed, &rec.Style, &createdMs); err != nil {
		return nil, err
	}
	rid, err := uuid.FromString(id)
	if err != nil {
		return nil, err
	}
	aid, err := uuid.FromString(acct)
	if err != nil {
		return nil, err
	}
	rec.ID = rid
	rec.AccountID = aid
	rec.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &rec, nil
}
