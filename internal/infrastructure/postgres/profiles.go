package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-accounts-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepo provides typed Postgres operations for the profile and
// deleted_profile tables. Soft delete and restore are row moves inside a
// single transaction, never flag flips, so queries against the active
// table never filter a deleted flag.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Insert(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profile (user_id, username, avatar_link, bio) VALUES ($1, $2, $3, $4)`
	if _, err := r.pool.Exec(ctx, query, p.UserID, p.Username, p.AvatarLink, p.Bio); err != nil {
		return storageErr("insert profile", err)
	}
	return nil
}

func (r *ProfileRepo) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT user_id, username, avatar_link, bio FROM profile WHERE user_id = $1`
	p := &domain.Profile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Username, &p.AvatarLink, &p.Bio)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
		}
		return nil, storageErr("get profile", err)
	}
	return p, nil
}

func (r *ProfileRepo) GetDeletedByUserID(ctx context.Context, userID string) (*domain.DeletedProfile, error) {
	query := `SELECT user_id, username, avatar_link, bio, deleted_at FROM deleted_profile WHERE user_id = $1`
	d := &domain.DeletedProfile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&d.UserID, &d.Username, &d.AvatarLink, &d.Bio, &d.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("deleted profile: %w", domain.ErrNotFound)
		}
		return nil, storageErr("get deleted profile", err)
	}
	return d, nil
}

// UpdateNameAndBio updates whichever of username and bio are non-nil.
func (r *ProfileRepo) UpdateNameAndBio(ctx context.Context, userID string, username, bio *string) error {
	var sets []string
	var args []interface{}
	if username != nil {
		args = append(args, *username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if bio != nil {
		args = append(args, *bio)
		sets = append(sets, fmt.Sprintf("bio = $%d", len(args)))
	}
	if len(sets) == 0 {
		return fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE profile SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return storageErr("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *ProfileRepo) UpdateAvatar(ctx context.Context, userID, avatarLink string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profile SET avatar_link = $1 WHERE user_id = $2`, avatarLink, userID)
	if err != nil {
		return storageErr("update avatar", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return nil
}

// MoveToDeleted soft-deletes a profile: copies the row into
// deleted_profile stamped with the deletion time and removes it from the
// active table, both inside one transaction. The move is either fully
// visible or not visible at all.
func (r *ProfileRepo) MoveToDeleted(ctx context.Context, userID string) error {
	return r.moveRow(ctx, userID,
		`INSERT INTO deleted_profile (user_id, username, avatar_link, bio, deleted_at)
		 SELECT user_id, username, avatar_link, bio, now() FROM profile WHERE user_id = $1`,
		`DELETE FROM profile WHERE user_id = $1`)
}

// Restore moves a soft-deleted profile back to the active table. The
// durable fields come back byte-identical; the deletion timestamp is
// dropped. The caller enforces the reactivation window.
func (r *ProfileRepo) Restore(ctx context.Context, userID string) error {
	return r.moveRow(ctx, userID,
		`INSERT INTO profile (user_id, username, avatar_link, bio)
		 SELECT user_id, username, avatar_link, bio FROM deleted_profile WHERE user_id = $1`,
		`DELETE FROM deleted_profile WHERE user_id = $1`)
}

func (r *ProfileRepo) moveRow(ctx context.Context, userID, insertQuery, deleteQuery string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageErr("begin move", err)
	}
	defer tx.Rollback(ctx)

	inserted, err := tx.Exec(ctx, insertQuery, userID)
	if err != nil {
		return storageErr("move insert", err)
	}
	if inserted.RowsAffected() == 0 {
		return fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	if _, err := tx.Exec(ctx, deleteQuery, userID); err != nil {
		return storageErr("move delete", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit move", err)
	}
	return nil
}

// ListExpiredDeleted returns the user ids of deleted profiles older than
// the retention period.
func (r *ProfileRepo) ListExpiredDeleted(ctx context.Context, retentionDays int) ([]string, error) {
	query := `SELECT user_id FROM deleted_profile WHERE deleted_at < now() - ($1 * interval '1 day')`
	rows, err := r.pool.Query(ctx, query, retentionDays)
	if err != nil {
		return nil, storageErr("list expired deleted", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("scan expired deleted", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expired deleted", err)
	}
	return ids, nil
}

// DeleteFromDeleted removes a row from deleted_profile. Reports whether a
// row was removed; already-deleted rows are simply not matched again.
func (r *ProfileRepo) DeleteFromDeleted(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deleted_profile WHERE user_id = $1`, userID)
	if err != nil {
		return false, storageErr("delete from deleted", err)
	}
	return tag.RowsAffected() > 0, nil
}
