// Package service provides business-logic for the app
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/imageproc"
	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/UnendingLoop/PhotoBlur/internal/mwlogger"
	"github.com/google/uuid"
)

type BlurService struct {
	detector  RegionDetector
	catalog   PhotoCatalog
	usage     UsageReader
	storage   BlobStorage
	orphans   OrphanReporter
	maxUpload int64
}

// RegionDetector - контракт агрегатора областей
type RegionDetector interface {
	DetectRegions(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error)
}

// PhotoCatalog - контракт каталога фотографий
type PhotoCatalog interface {
	Upload(ctx context.Context, ownerID, objectKey, contentType string, size int64, polygons []model.Polygon) (*model.Photo, bool, error)
	List(ctx context.Context, ownerID string, maxResults int) ([]model.Photo, error)
	Get(ctx context.Context, ownerID string, id int64) (*model.Photo, error)
	Delete(ctx context.Context, ownerID string, id int64) (bool, error)
}

type UsageReader interface {
	UsedBytes(ctx context.Context, userID string) (int64, error)
	Limit() int64
}

// BlobStorage - контракт для работы с хранилищем
type BlobStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type OrphanReporter interface {
	ReportOrphan(ctx context.Context, key string, reason string)
}

func NewBlurService(detector RegionDetector, catalog PhotoCatalog, usage UsageReader, strg BlobStorage, orphans OrphanReporter, maxUpload int64) *BlurService {
	if maxUpload <= 0 {
		maxUpload = model.StorageLimit
	}
	return &BlurService{
		detector:  detector,
		catalog:   catalog,
		usage:     usage,
		storage:   strg,
		orphans:   orphans,
		maxUpload: maxUpload,
	}
}

// DetectAndStore stores the upload, detects the requested regions and keeps the
// photo only for a logged-in viewer whose quota admits it. In every other case
// the stored object is removed again and only the polygons are returned.
func (s BlurService) DetectAndStore(ctx context.Context, viewer model.Viewer, data *model.UploadData) ([]model.Polygon, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if data == nil || data.Image == nil || data.Size <= 0 {
		return nil, model.ErrEmptyImage
	}
	if data.Size > s.maxUpload {
		return nil, model.ErrImageTooLarge
	}

	raw, err := io.ReadAll(io.LimitReader(data.Image, s.maxUpload+1))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read uploaded image")
		return nil, model.ErrCommon500
	}
	if len(raw) == 0 {
		return nil, model.ErrEmptyImage
	}
	if int64(len(raw)) > s.maxUpload {
		return nil, model.ErrImageTooLarge
	}

	cType := resolveContentType(data.ContentType, raw)
	if !model.InImageTypeMap[cType] {
		return nil, fmt.Errorf("%w: %q; supported types: %s", model.ErrUnsupportedFormat, cType, strings.Join(model.SupportedTypes(), ", "))
	}

	key := uuid.New().String() + model.GetImageFileExt[cType]
	size := int64(len(raw))
	if err := s.storage.Put(ctx, key, size, cType, bytes.NewReader(raw)); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to save image in Storage")
		return nil, model.ErrCommon500
	}

	polygons, err := s.detector.DetectRegions(ctx, raw, data.Categories)
	if err != nil {
		// ошибка провайдера не валит запрос - просто нет областей
		logger.Warn().Err(err).Str("categories", data.Categories.String()).Msg("Region detection failed, treating as no detections")
		polygons = []model.Polygon{}
	}

	user, ok := viewer.(model.Authenticated)
	if !ok {
		s.dropBlob(ctx, key, "anonymous upload")
		return polygons, nil
	}

	ctx = mwlogger.WithUser(ctx, user.ID)
	logger = mwlogger.LoggerFromContext(ctx)
	photo, admitted, err := s.catalog.Upload(ctx, user.ID, key, cType, size, polygons)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to record uploaded photo")
		s.dropBlob(ctx, key, "upload failed")
		return nil, model.ErrCommon500
	}
	if !admitted {
		logger.Info().Int64("size", size).Msg("Storage quota exhausted, upload dropped")
		s.dropBlob(ctx, key, "quota exceeded")
		return polygons, nil
	}

	logger.Info().Int64("photo_id", photo.ID).Int("regions", len(polygons)).Msg("Photo stored")
	return polygons, nil
}

func (s BlurService) List(ctx context.Context, viewer model.Viewer, maxPhotos string) ([]model.PhotoView, error) {
	user, ok := viewer.(model.Authenticated)
	if !ok {
		return nil, model.ErrNotLoggedIn
	}
	ctx = mwlogger.WithUser(ctx, user.ID)
	logger := mwlogger.LoggerFromContext(ctx)

	photos, err := s.catalog.List(ctx, user.ID, parseMaxPhotos(maxPhotos))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch photos list from DB")
		return nil, model.ErrCommon500
	}

	res := make([]model.PhotoView, 0, len(photos))
	for _, p := range photos {
		res = append(res, model.PhotoView{
			ID:             p.ID,
			UserID:         p.OwnerID,
			URL:            BlobURL(p.ObjectKey),
			BlurRectangles: nonNil(p.Polygons),
			DateCreated:    p.CreatedAt,
		})
	}
	return res, nil
}

func (s BlurService) Delete(ctx context.Context, viewer model.Viewer, photoID string) error {
	user, ok := viewer.(model.Authenticated)
	if !ok {
		return model.ErrNotLoggedIn
	}
	id, err := parsePhotoID(photoID)
	if err != nil {
		return err
	}
	ctx = mwlogger.WithUser(ctx, user.ID)

	deleted, err := s.catalog.Delete(ctx, user.ID, id)
	if err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Int64("photo_id", id).Msg("Failed to delete photo")
		return model.ErrCommon500
	}
	if !deleted {
		return model.ErrPhotoNotFound
	}
	return nil
}

// LoadBlob streams a stored object by its key.
func (s BlurService) LoadBlob(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if strings.TrimSpace(key) == "" {
		return nil, "", model.ErrMissingBlobKey
	}

	data, cType, err := s.storage.Get(ctx, key)
	if err != nil {
		if errors.Is(err, model.ErrBlobNotFound) {
			return nil, "", model.ErrBlobNotFound
		}
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("key", key).Msg("Failed to fetch blob from Storage")
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

// RenderBlurred returns the owner's photo with its regions blurred.
func (s BlurService) RenderBlurred(ctx context.Context, viewer model.Viewer, photoID string) (io.Reader, string, error) {
	user, ok := viewer.(model.Authenticated)
	if !ok {
		return nil, "", model.ErrNotLoggedIn
	}
	id, err := parsePhotoID(photoID)
	if err != nil {
		return nil, "", err
	}
	ctx = mwlogger.WithUser(ctx, user.ID)
	logger := mwlogger.LoggerFromContext(ctx)

	photo, err := s.catalog.Get(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, model.ErrPhotoNotFound) {
			return nil, "", model.ErrPhotoNotFound
		}
		logger.Error().Err(err).Int64("photo_id", id).Msg("Failed to fetch photo from DB")
		return nil, "", model.ErrCommon500
	}

	raw, err := s.storage.Fetch(ctx, photo.ObjectKey)
	if err != nil {
		logger.Error().Err(err).Str("key", photo.ObjectKey).Msg("Failed to fetch photo blob from Storage")
		return nil, "", model.ErrCommon500
	}

	format, ok := model.GetImagingFormat[photo.ContentType]
	if !ok {
		logger.Error().Str("content_type", photo.ContentType).Int64("photo_id", id).Msg("Stored photo has unsupported content type")
		return nil, "", model.ErrCommon500
	}

	out, _, err := imageproc.BlurRegions(bytes.NewReader(raw), photo.Polygons, format)
	if err != nil {
		logger.Error().Err(err).Int64("photo_id", id).Msg("Failed to blur photo")
		return nil, "", model.ErrCommon500
	}
	return out, photo.ContentType, nil
}

// UserInfo describes the viewer; for a logged-in one it also reports quota usage.
func (s BlurService) UserInfo(ctx context.Context, viewer model.Viewer) (*model.UserInfo, error) {
	switch v := viewer.(type) {
	case model.Authenticated:
		ctx = mwlogger.WithUser(ctx, v.ID)
		v, err := s.withUsage(ctx, v)
		if err != nil {
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Error().Err(err).Msg("Failed to read storage usage")
			return nil, model.ErrCommon500
		}
		return &model.UserInfo{
			LoggedIn:     true,
			ID:           v.ID,
			UsedSpace:    &v.UsedBytes,
			StorageLimit: s.usage.Limit(),
			LogoutURL:    v.LogoutURL,
		}, nil
	case model.Anonymous:
		return &model.UserInfo{LoginURL: v.LoginURL}, nil
	default:
		return &model.UserInfo{}, nil
	}
}

// withUsage fills UsedBytes from the ledger; the account is created on first read.
func (s BlurService) withUsage(ctx context.Context, v model.Authenticated) (model.Authenticated, error) {
	used, err := s.usage.UsedBytes(ctx, v.ID)
	if err != nil {
		return v, err
	}
	v.UsedBytes = used
	return v, nil
}

// ServerTime - текущее время сервера
func (s BlurService) ServerTime() time.Time {
	return time.Now()
}

func (s BlurService) dropBlob(ctx context.Context, key, reason string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Error().Err(err).Str("key", key).Str("reason", reason).Msg("Failed to delete dropped blob, reporting orphan")
		s.orphans.ReportOrphan(ctx, key, reason)
	}
}
