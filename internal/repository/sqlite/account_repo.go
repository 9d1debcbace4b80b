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

// AccountRepo implements AccountRepository using SQLite.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo constructs an account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, email, name, secret_hash, secret_salt, plan, credits, joined_at, profile_image, is_admin`

// Create inserts a new account row.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	const q = `
INSERT INTO accounts (` + accountColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		a.ID.String(), model.NormalizeEmail(a.Email), a.Name,
		a.SecretHash, a.SecretSalt, string(a.Plan), a.Credits,
		a.JoinedAt.UnixMilli(), a.ProfileImage, boolInt(a.IsAdmin))
	if isUniqueViolation(err) {
		return errs.ErrDuplicateEmail
	}
	return err
}

// GetByEmail selects an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, model.NormalizeEmail(email)))
}

// GetByID selects an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id.String()))
}

// Update overwrites an existing account row.
func (r *AccountRepo) Update(ctx context.Context, a *model.Account) error {
	const q = `
UPDATE accounts
SET name = ?, secret_hash = ?, secret_salt = ?, plan = ?, credits = ?, profile_image = ?, is_admin = ?
WHERE email = ?`
	res, err := r.db.ExecContext(ctx, q,
		a.Name, a.SecretHash, a.SecretSalt, string(a.Plan), a.Credits,
		a.ProfileImage, boolInt(a.IsAdmin), model.NormalizeEmail(a.Email))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// All returns every registered account ordered by join date.
func (r *AccountRepo) All(ctx context.Context) ([]model.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounts ORDER BY joined_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *AccountRepo) scanOne(row *sql.Row) (*model.Account, error) {
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		a        model.Account
		id, plan string
		joinedMs int64
		admin    int64
	)
	if err := row.Scan(&id, &a.Email, &a.Name, &a.SecretHash, &a.SecretSalt,
		&plan, &a.Credits, &joinedMs, &a.ProfileImage, &admin); err != nil {
		return nil, err
	}
	uid, err := uuid.FromString(id)
	if err != nil {
		return nil, err
	}
	a.ID = uid
	a.Plan = model.PlanTier(plan)
	a.JoinedAt = time.UnixMilli(joinedMs).UTC()
	a.IsAdmin = admin != 0
	return &a, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
