// Package photopg implements account and photo persistence on PostgreSQL.
package photopg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/wb-go/wbf/dbpg"
)

type PostgresRepo struct {
	DB *dbpg.DB
}

const ensureAccountQuery = `INSERT INTO accounts (user_id) VALUES ($1)
	ON CONFLICT (user_id) DO NOTHING`

func (p PostgresRepo) GetOrCreateAccount(ctx context.Context, userID string) (*model.Account, error) {
	// DO UPDATE (не DO NOTHING), чтобы RETURNING отдал и уже существующую строку
	query := `INSERT INTO accounts (user_id) VALUES ($1)
	ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	RETURNING user_id, used_bytes, updated_at`

	var acc model.Account
	if err := p.DB.Master.QueryRowContext(ctx, query, userID).Scan(&acc.UserID, &acc.UsedBytes, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (p PostgresRepo) AddUsage(ctx context.Context, userID string, delta, limit int64) (int64, bool, error) {
	if _, err := p.DB.Master.ExecContext(ctx, ensureAccountQuery, userID); err != nil {
		return 0, false, err
	}

	// условие в WHERE + блокировка строки делают проверку и запись атомарными для пользователя
	query := `UPDATE accounts SET used_bytes = used_bytes + $2, updated_at = now()
	WHERE user_id = $1 AND used_bytes + $2 <= $3
	RETURNING used_bytes`

	var used int64
	err := p.DB.Master.QueryRowContext(ctx, query, userID, delta, limit).Scan(&used)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, false, nil
		default:
			return 0, false, err
		}
	}
	return used, true, nil
}

func (p PostgresRepo) SubUsage(ctx context.Context, userID string, delta int64) (int64, error) {
	if _, err := p.DB.Master.ExecContext(ctx, ensureAccountQuery, userID); err != nil {
		return 0, err
	}

	query := `UPDATE accounts SET used_bytes = GREATEST(used_bytes - $2, 0), updated_at = now()
	WHERE user_id = $1
	RETURNING used_bytes`

	var used int64
	if err := p.DB.Master.QueryRowContext(ctx, query, userID, delta).Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

//---------------------

func (p PostgresRepo) CreatePhoto(ctx context.Context, n *model.Photo) error {
	query := `INSERT INTO photos (owner_id, object_key, content_type, size_bytes, polygons, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`
	return p.DB.Master.QueryRowContext(ctx, query, n.OwnerID, n.ObjectKey, n.ContentType, n.SizeBytes, n.Polygons, n.CreatedAt).Scan(&n.ID)
}

func (p PostgresRepo) GetOwnedPhoto(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
	query := `SELECT id, owner_id, object_key, content_type, size_bytes, polygons, created_at
	FROM photos
	WHERE id = $1 AND owner_id = $2`
	var photo model.Photo

	err := p.DB.QueryRowContext(ctx, query, id, ownerID).Scan(&photo.ID,
		&photo.OwnerID,
		&photo.ObjectKey,
		&photo.ContentType,
		&photo.SizeBytes,
		&photo.Polygons,
		&photo.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrPhotoNotFound
		default:
			return nil, err // 500
		}
	}
	return &photo, nil
}

func (p PostgresRepo) ListPhotos(ctx context.Context, ownerID string, limit int) ([]model.Photo, error) {
	query := `SELECT id, owner_id, object_key, content_type, size_bytes, polygons, created_at
	FROM photos
	WHERE owner_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

	rows, err := p.DB.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Error while closing *sql.Rows after scanning: %v", err)
		}
	}()

	photos := make([]model.Photo, 0, min(limit, 64))
	for rows.Next() {
		var photo model.Photo
		if err := rows.Scan(&photo.ID,
			&photo.OwnerID,
			&photo.ObjectKey,
			&photo.ContentType,
			&photo.SizeBytes,
			&photo.Polygons,
			&photo.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return photos, nil
}

// DeleteOwnedPhoto removes ownerID's photo id and gives its size back to the
// owner's account in one transaction. The photo row is locked first, so of two
// concurrent deletes only one finds it and releases the quota.
func (p PostgresRepo) DeleteOwnedPhoto(ctx context.Context, ownerID string, id int64) (_ *model.Photo, err error) {
	tx, err := p.DB.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("Failed to rollback photo delete tx: %v", rbErr)
			}
		}
	}()

	query := `SELECT id, owner_id, object_key, content_type, size_bytes, polygons, created_at
	FROM photos
	WHERE id = $1 AND owner_id = $2
	FOR UPDATE`
	var photo model.Photo
	err = tx.QueryRowContext(ctx, query, id, ownerID).Scan(&photo.ID,
		&photo.OwnerID,
		&photo.ObjectKey,
		&photo.ContentType,
		&photo.SizeBytes,
		&photo.Polygons,
		&photo.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, model.ErrPhotoNotFound // 404
		default:
			return nil, err
		}
	}

	if _, err = tx.ExecContext(ctx, ensureAccountQuery, ownerID); err != nil {
		return nil, err
	}
	release := `UPDATE accounts SET used_bytes = GREATEST(used_bytes - $2, 0), updated_at = now()
	WHERE user_id = $1`
	if _, err = tx.ExecContext(ctx, release, ownerID, photo.SizeBytes); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &photo, nil
}
