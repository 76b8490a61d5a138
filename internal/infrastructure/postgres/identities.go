package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-accounts-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// IdentityRepo provides typed Postgres operations for the identity table.
type IdentityRepo struct {
	pool *pgxpool.Pool
}

func NewIdentityRepo(pool *pgxpool.Pool) *IdentityRepo {
	return &IdentityRepo{pool: pool}
}

func (r *IdentityRepo) Insert(ctx context.Context, i *domain.Identity) error {
	query := `INSERT INTO identity (id, email, password_hash, login_method, created_at, last_login, failed_attempts, lockout_until)
	          VALUES ($1, $2, $3, $4, $5, NULL, 0, NULL)`
	_, err := r.pool.Exec(ctx, query, i.ID, i.Email, i.PasswordHash, i.LoginMethod, i.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return storageErr("insert identity", err)
	}
	return nil
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	query := `SELECT id, email, password_hash, login_method, created_at, last_login, failed_attempts, lockout_until
	          FROM identity WHERE email = $1`
	i := &domain.Identity{}
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&i.ID, &i.Email, &i.PasswordHash, &i.LoginMethod,
		&i.CreatedAt, &i.LastLogin, &i.FailedAttempts, &i.LockoutUntil,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("identity: %w", domain.ErrNotFound)
		}
		return nil, storageErr("get identity", err)
	}
	return i, nil
}

func (r *IdentityRepo) UpdateFailedAttempts(ctx context.Context, email string, attempts int, lockoutUntil *time.Time) error {
	query := `UPDATE identity SET failed_attempts = $1, lockout_until = $2 WHERE email = $3`
	if _, err := r.pool.Exec(ctx, query, attempts, lockoutUntil, email); err != nil {
		return storageErr("update failed attempts", err)
	}
	return nil
}

// ClearExpiredLockout resets the counter and lockout in a single
// conditional update, so two concurrent logins cannot resurrect an
// already-cleared lockout. A no-op when the lockout is still active.
func (r *IdentityRepo) ClearExpiredLockout(ctx context.Context, email string) error {
	query := `UPDATE identity SET failed_attempts = 0, lockout_until = NULL
	          WHERE email = $1 AND lockout_until IS NOT NULL AND lockout_until <= now()`
	if _, err := r.pool.Exec(ctx, query, email); err != nil {
		return storageErr("clear lockout", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login and clears the failure
// counter and any lockout in the same statement.
func (r *IdentityRepo) UpdateLastLogin(ctx context.Context, email string) error {
	query := `UPDATE identity SET last_login = now(), failed_attempts = 0, lockout_until = NULL WHERE email = $1`
	if _, err := r.pool.Exec(ctx, query, email); err != nil {
		return storageErr("update last login", err)
	}
	return nil
}

func (r *IdentityRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	query := `UPDATE identity SET password_hash = $1, failed_attempts = 0, lockout_until = NULL WHERE email = $2`
	tag, err := r.pool.Exec(ctx, query, passwordHash, email)
	if err != nil {
		return storageErr("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("identity: %w", domain.ErrNotFound)
	}
	return nil
}

// ListIDs returns every identity id. The purge sweep hashes each one to
// match it against expired deleted profiles, since the only link between
// the tables is the one-way hash.
func (r *IdentityRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM identity`)
	if err != nil {
		return nil, storageErr("list identity ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan identity id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list identity ids", err)
	}
	return ids, nil
}

// DeleteByID removes an identity row. Reports whether a row was removed;
// deleting an absent row is not an error.
func (r *IdentityRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM identity WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete identity", err)
	}
	return tag.RowsAffected() > 0, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStorageUnavailable)
}
