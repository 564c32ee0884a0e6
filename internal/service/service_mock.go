package service

import (
	"bytes"
	"context"
	"io"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
)

// MOCK DETECTOR

type mockDetector struct {
	detectFn func(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error)
}

func (m *mockDetector) DetectRegions(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error) {
	return m.detectFn(ctx, img, mask)
}

// MOCK CATALOG

type mockCatalog struct {
	uploadFn func(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error)
	listFn   func(ctx context.Context, ownerID string, max int) ([]model.Photo, error)
	getFn    func(ctx context.Context, ownerID string, id int64) (*model.Photo, error)
	deleteFn func(ctx context.Context, ownerID string, id int64) (bool, error)
}

func (m *mockCatalog) Upload(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error) {
	return m.uploadFn(ctx, ownerID, key, ct, size, polys)
}

func (m *mockCatalog) List(ctx context.Context, ownerID string, max int) ([]model.Photo, error) {
	return m.listFn(ctx, ownerID, max)
}

func (m *mockCatalog) Get(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
	return m.getFn(ctx, ownerID, id)
}

func (m *mockCatalog) Delete(ctx context.Context, ownerID string, id int64) (bool, error) {
	return m.deleteFn(ctx, ownerID, id)
}

// MOCK USAGE

type mockUsage struct {
	usedFn func(ctx context.Context, userID string) (int64, error)
}

func (m *mockUsage) UsedBytes(ctx context.Context, userID string) (int64, error) {
	return m.usedFn(ctx, userID)
}

func (m *mockUsage) Limit() int64 { return model.StorageLimit }

// MOCK STORAGE

type mockStorage struct {
	putFn    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	fetchFn  func(ctx context.Context, key string) ([]byte, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Fetch(ctx context.Context, key string) ([]byte, error) {
	return m.fetchFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK ORPHANS

type mockOrphans struct {
	keys []string
}

func (m *mockOrphans) ReportOrphan(ctx context.Context, key string, reason string) {
	m.keys = append(m.keys, key)
}

// MOCK для multipart.File
type fakeMultipartFile struct {
	*bytes.Reader
}

func (f *fakeMultipartFile) Close() error {
	return nil
}

func newFakeFile(data []byte) *fakeMultipartFile {
	return &fakeMultipartFile{Reader: bytes.NewReader(data)}
}
