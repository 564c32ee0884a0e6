// Package catalog owns the (user, photo) records and keeps them consistent
// with the quota ledger and the blob store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
)

type PhotoStore interface {
	CreatePhoto(ctx context.Context, n *model.Photo) error
	GetOwnedPhoto(ctx context.Context, ownerID string, id int64) (*model.Photo, error)
	ListPhotos(ctx context.Context, ownerID string, limit int) ([]model.Photo, error)
	// DeleteOwnedPhoto releases the photo's size from the owner's account and
	// removes the record atomically; ErrPhotoNotFound when ownerID has no such photo.
	DeleteOwnedPhoto(ctx context.Context, ownerID string, id int64) (*model.Photo, error)
}

type QuotaLedger interface {
	Admit(ctx context.Context, userID string, delta int64) (bool, error)
	Release(ctx context.Context, userID string, delta int64) error
}

type BlobRemover interface {
	Delete(ctx context.Context, key string) error
}

// OrphanReporter receives keys of blobs that could not be removed
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, key string, reason string)
}

type Catalog struct {
	photos  PhotoStore
	ledger  QuotaLedger
	blobs   BlobRemover
	orphans OrphanReporter
	now     func() time.Time
}

func New(photos PhotoStore, ledger QuotaLedger, blobs BlobRemover, orphans OrphanReporter) *Catalog {
	return &Catalog{
		photos:  photos,
		ledger:  ledger,
		blobs:   blobs,
		orphans: orphans,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upload records an already stored object for ownerID when the ledger admits
// its size. admitted=false means the quota is exhausted; the object is left
// untouched and the caller must delete it.
func (c *Catalog) Upload(ctx context.Context, ownerID, objectKey, contentType string, size int64, polygons []model.Polygon) (*model.Photo, bool, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	ok, err := c.ledger.Admit(ctx, ownerID, size)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	photo := &model.Photo{
		OwnerID:     ownerID,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   size,
		Polygons:    polygons,
		CreatedAt:   c.now(),
	}
	if err := c.photos.CreatePhoto(ctx, photo); err != nil {
		// запись не создана - возвращаем квоту
		if rErr := c.ledger.Release(ctx, ownerID, size); rErr != nil {
			logger.Error().Err(rErr).Str("user_id", ownerID).Int64("size", size).Msg("Failed to release quota after failed photo insert")
		}
		return nil, false, fmt.Errorf("create photo: %w", err)
	}

	return photo, true, nil
}

// List returns ownerID's photos, newest first, at most maxResults of them.
func (c *Catalog) List(ctx context.Context, ownerID string, maxResults int) ([]model.Photo, error) {
	if maxResults <= 0 {
		return []model.Photo{}, nil
	}
	return c.photos.ListPhotos(ctx, ownerID, maxResults)
}

// Get returns the photo only when ownerID owns it.
func (c *Catalog) Get(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
	return c.photos.GetOwnedPhoto(ctx, ownerID, id)
}

// Delete removes ownerID's photo id: the quota release and the record removal
// commit together, then the blob goes. It returns false when ownerID has no
// such photo, including when a concurrent delete got there first. A failed blob
// removal is reported as an orphan and does not bring the record back.
func (c *Catalog) Delete(ctx context.Context, ownerID string, id int64) (bool, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	photo, err := c.photos.DeleteOwnedPhoto(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, model.ErrPhotoNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete photo %d: %w", id, err)
	}
	logger.Debug().Int64("photo_id", id).Int64("released", photo.SizeBytes).Msg("Photo record deleted, storage released")

	if err := c.blobs.Delete(ctx, photo.ObjectKey); err != nil {
		logger.Error().Err(err).Str("key", photo.ObjectKey).Int64("photo_id", id).Msg("Failed to delete photo blob, reporting orphan")
		c.orphans.ReportOrphan(ctx, photo.ObjectKey, "photo delete")
	}

	return true, nil
}
