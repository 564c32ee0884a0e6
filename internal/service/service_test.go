package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

var (
	alice = model.Authenticated{ID: "alice", LogoutURL: "/logout"}
	anon  = model.Anonymous{LoginURL: "/login"}
	face  = model.Polygon{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 5, Y: 5}, {X: 1, Y: 5}}
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func upload(data []byte, ct string, mask model.Category) *model.UploadData {
	return &model.UploadData{
		Image:       newFakeFile(data),
		ContentType: ct,
		Size:        int64(len(data)),
		Categories:  mask,
	}
}

func okStorage(putKeys, deleted *[]string) *mockStorage {
	return &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			*putKeys = append(*putKeys, key)
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error {
			*deleted = append(*deleted, key)
			return nil
		},
	}
}

func faceDetector(t *testing.T) *mockDetector {
	return &mockDetector{detectFn: func(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error) {
		require.Equal(t, model.CategoryFace, mask)
		return []model.Polygon{face}, nil
	}}
}

// DETECT - ANONYMOUS
func TestBlurService_DetectAndStore_Anonymous(t *testing.T) {
	var put, deleted []string
	svc := NewBlurService(faceDetector(t), &mockCatalog{}, &mockUsage{}, okStorage(&put, &deleted), &mockOrphans{}, 0)

	res, err := svc.DetectAndStore(context.Background(), anon, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.NoError(t, err)
	require.Equal(t, []model.Polygon{face}, res)

	// объект положили и тут же удалили, в каталог ничего не попало
	require.Len(t, put, 1)
	require.Equal(t, put, deleted)
	require.True(t, strings.HasSuffix(put[0], ".jpg"))
}

// DETECT - ADMITTED
func TestBlurService_DetectAndStore_Admitted(t *testing.T) {
	var put, deleted []string
	cat := &mockCatalog{
		uploadFn: func(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error) {
			require.Equal(t, "alice", ownerID)
			require.Equal(t, model.JPEG, ct)
			require.EqualValues(t, 10, size)
			require.Equal(t, []model.Polygon{face}, polys)
			return &model.Photo{ID: 1, ObjectKey: key}, true, nil
		},
	}
	svc := NewBlurService(faceDetector(t), cat, &mockUsage{}, okStorage(&put, &deleted), &mockOrphans{}, 0)

	res, err := svc.DetectAndStore(context.Background(), alice, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, put, 1)
	require.Empty(t, deleted)
}

// DETECT - QUOTA EXCEEDED (молча отбрасываем)
func TestBlurService_DetectAndStore_QuotaExceeded(t *testing.T) {
	var put, deleted []string
	cat := &mockCatalog{
		uploadFn: func(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error) {
			return nil, false, nil
		},
	}
	svc := NewBlurService(faceDetector(t), cat, &mockUsage{}, okStorage(&put, &deleted), &mockOrphans{}, 0)

	res, err := svc.DetectAndStore(context.Background(), alice, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.NoError(t, err)
	require.Equal(t, []model.Polygon{face}, res)
	require.Equal(t, put, deleted)
}

// DETECT - DROP FAILS -> ORPHAN
func TestBlurService_DetectAndStore_OrphanReported(t *testing.T) {
	orphans := &mockOrphans{}
	strg := &mockStorage{
		putFn:    func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil },
		deleteFn: func(ctx context.Context, key string) error { return errors.New("storage down") },
	}
	svc := NewBlurService(faceDetector(t), &mockCatalog{}, &mockUsage{}, strg, orphans, 0)

	_, err := svc.DetectAndStore(context.Background(), anon, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.NoError(t, err)
	require.Len(t, orphans.keys, 1)
}

// DETECT - PROVIDER ERROR
func TestBlurService_DetectAndStore_ProviderErrorIsRecovered(t *testing.T) {
	var put, deleted []string
	stored := false
	det := &mockDetector{detectFn: func(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error) {
		return nil, model.ErrProvider
	}}
	cat := &mockCatalog{
		uploadFn: func(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error) {
			require.Empty(t, polys)
			stored = true
			return &model.Photo{ID: 1}, true, nil
		},
	}
	svc := NewBlurService(det, cat, &mockUsage{}, okStorage(&put, &deleted), &mockOrphans{}, 0)

	res, err := svc.DetectAndStore(context.Background(), alice, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace|model.CategoryLogo))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Empty(t, res)
	require.True(t, stored)
}

// DETECT - VALIDATION
func TestBlurService_DetectAndStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		data    *model.UploadData
		wantErr error
	}{
		{"nil data", nil, model.ErrEmptyImage},
		{"no file", &model.UploadData{ContentType: model.JPEG, Size: 10}, model.ErrEmptyImage},
		{"zero size", upload([]byte{}, model.JPEG, model.CategoryFace), model.ErrEmptyImage},
		{"too large", upload(bytes.Repeat([]byte("a"), 33), model.JPEG, model.CategoryFace), model.ErrImageTooLarge},
		{"unsupported type", upload([]byte("GIF89a"), "image/gif", model.CategoryFace), model.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// нулевые моки: любое обращение к хранилищу или провайдеру упадет
			svc := NewBlurService(&mockDetector{}, &mockCatalog{}, &mockUsage{}, &mockStorage{}, &mockOrphans{}, 32)

			_, err := svc.DetectAndStore(context.Background(), alice, tt.data)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBlurService_DetectAndStore_UnsupportedTypeMessage(t *testing.T) {
	svc := NewBlurService(&mockDetector{}, &mockCatalog{}, &mockUsage{}, &mockStorage{}, &mockOrphans{}, 0)

	_, err := svc.DetectAndStore(context.Background(), anon, upload([]byte("GIF89a"), "image/gif", model.CategoryFace))
	require.ErrorContains(t, err, "image/gif")
	require.ErrorContains(t, err, model.JPEG)
	require.ErrorContains(t, err, model.PNG)
}

// DETECT - SNIFFING
func TestBlurService_DetectAndStore_SniffsMissingType(t *testing.T) {
	var gotCT, gotKey string
	strg := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			gotKey, gotCT = key, ct
			return nil
		},
		deleteFn: func(ctx context.Context, key string) error { return nil },
	}
	det := &mockDetector{detectFn: func(ctx context.Context, img []byte, mask model.Category) ([]model.Polygon, error) {
		return []model.Polygon{}, nil
	}}
	svc := NewBlurService(det, &mockCatalog{}, &mockUsage{}, strg, &mockOrphans{}, 0)

	_, err := svc.DetectAndStore(context.Background(), anon, upload(pngBytes(t, 4, 4), "application/octet-stream", model.CategoryNone))
	require.NoError(t, err)
	require.Equal(t, model.PNG, gotCT)
	require.True(t, strings.HasSuffix(gotKey, ".png"))
}

// DETECT - STORAGE PUT FAIL
func TestBlurService_DetectAndStore_StorageError(t *testing.T) {
	strg := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			return errors.New("storage is down")
		},
	}
	svc := NewBlurService(&mockDetector{}, &mockCatalog{}, &mockUsage{}, strg, &mockOrphans{}, 0)

	_, err := svc.DetectAndStore(context.Background(), alice, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.ErrorIs(t, err, model.ErrCommon500)
}

// DETECT - CATALOG FAIL
func TestBlurService_DetectAndStore_CatalogError(t *testing.T) {
	var put, deleted []string
	cat := &mockCatalog{
		uploadFn: func(ctx context.Context, ownerID, key, ct string, size int64, polys []model.Polygon) (*model.Photo, bool, error) {
			return nil, false, errors.New("db down")
		},
	}
	svc := NewBlurService(faceDetector(t), cat, &mockUsage{}, okStorage(&put, &deleted), &mockOrphans{}, 0)

	_, err := svc.DetectAndStore(context.Background(), alice, upload([]byte("jpeg-bytes"), model.JPEG, model.CategoryFace))
	require.ErrorIs(t, err, model.ErrCommon500)
	require.Equal(t, put, deleted)
}

// LIST
func TestBlurService_List(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		viewer  model.Viewer
		max     string
		wantMax int
		wantErr error
	}{
		{name: "anonymous", viewer: anon, wantErr: model.ErrNotLoggedIn},
		{name: "no limit", viewer: alice, max: "", wantMax: model.NoLimit},
		{name: "garbage", viewer: alice, max: "abc", wantMax: model.NoLimit},
		{name: "negative", viewer: alice, max: "-3", wantMax: 0},
		{name: "explicit", viewer: alice, max: "5", wantMax: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := &mockCatalog{
				listFn: func(ctx context.Context, ownerID string, max int) ([]model.Photo, error) {
					require.Equal(t, "alice", ownerID)
					require.Equal(t, tt.wantMax, max)
					return []model.Photo{{ID: 7, OwnerID: "alice", ObjectKey: "k 1.jpg", CreatedAt: created}}, nil
				},
			}
			svc := NewBlurService(&mockDetector{}, cat, &mockUsage{}, &mockStorage{}, &mockOrphans{}, 0)

			res, err := svc.List(context.Background(), tt.viewer, tt.max)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []model.PhotoView{{
				ID:             7,
				UserID:         "alice",
				URL:            "/photo?blob-key=k+1.jpg",
				BlurRectangles: model.Polygons{},
				DateCreated:    created,
			}}, res)
		})
	}
}

func TestBlurService_List_DBError(t *testing.T) {
	cat := &mockCatalog{
		listFn: func(ctx context.Context, ownerID string, max int) ([]model.Photo, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewBlurService(&mockDetector{}, cat, &mockUsage{}, &mockStorage{}, &mockOrphans{}, 0)

	_, err := svc.List(context.Background(), alice, "")
	require.ErrorIs(t, err, model.ErrCommon500)
}

// DELETE
func TestBlurService_Delete(t *testing.T) {
	tests := []struct {
		name     string
		viewer   model.Viewer
		id       string
		deleteFn func(ctx context.Context, ownerID string, id int64) (bool, error)
		wantErr  error
	}{
		{name: "logged out", viewer: anon, id: "1", wantErr: model.ErrNotLoggedIn},
		{name: "bad id", viewer: alice, id: "abc", wantErr: model.ErrIncorrectID},
		{
			name: "deleted", viewer: alice, id: "42",
			deleteFn: func(ctx context.Context, ownerID string, id int64) (bool, error) {
				require.EqualValues(t, 42, id)
				return true, nil
			},
		},
		{
			name: "not found", viewer: alice, id: "42",
			deleteFn: func(ctx context.Context, ownerID string, id int64) (bool, error) { return false, nil },
			wantErr:  model.ErrPhotoNotFound,
		},
		{
			name: "store error", viewer: alice, id: "42",
			deleteFn: func(ctx context.Context, ownerID string, id int64) (bool, error) { return false, errors.New("db down") },
			wantErr:  model.ErrCommon500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewBlurService(&mockDetector{}, &mockCatalog{deleteFn: tt.deleteFn}, &mockUsage{}, &mockStorage{}, &mockOrphans{}, 0)

			err := svc.Delete(context.Background(), tt.viewer, tt.id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

// LOAD BLOB
func TestBlurService_LoadBlob(t *testing.T) {
	strg := &mockStorage{
		getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			switch key {
			case "ok":
				return io.NopCloser(strings.NewReader("data")), model.JPEG, nil
			case "gone":
				return nil, "", model.ErrBlobNotFound
			default:
				return nil, "", errors.New("storage down")
			}
		},
	}
	svc := NewBlurService(&mockDetector{}, &mockCatalog{}, &mockUsage{}, strg, &mockOrphans{}, 0)
	ctx := context.Background()

	_, _, err := svc.LoadBlob(ctx, " ")
	require.ErrorIs(t, err, model.ErrMissingBlobKey)

	_, _, err = svc.LoadBlob(ctx, "gone")
	require.ErrorIs(t, err, model.ErrBlobNotFound)

	_, _, err = svc.LoadBlob(ctx, "broken")
	require.ErrorIs(t, err, model.ErrCommon500)

	rc, ct, err := svc.LoadBlob(ctx, "ok")
	require.NoError(t, err)
	require.Equal(t, model.JPEG, ct)
	body, _ := io.ReadAll(rc)
	require.Equal(t, "data", string(body))
}

// RENDER BLURRED
func TestBlurService_RenderBlurred(t *testing.T) {
	raw := pngBytes(t, 20, 20)
	cat := &mockCatalog{
		getFn: func(ctx context.Context, ownerID string, id int64) (*model.Photo, error) {
			if id != 1 {
				return nil, model.ErrPhotoNotFound
			}
			return &model.Photo{ID: 1, OwnerID: ownerID, ObjectKey: "k.png", ContentType: model.PNG, Polygons: model.Polygons{face}}, nil
		},
	}
	strg := &mockStorage{
		fetchFn: func(ctx context.Context, key string) ([]byte, error) {
			require.Equal(t, "k.png", key)
			return raw, nil
		},
	}
	svc := NewBlurService(&mockDetector{}, cat, &mockUsage{}, strg, &mockOrphans{}, 0)
	ctx := context.Background()

	r, ct, err := svc.RenderBlurred(ctx, alice, "1")
	require.NoError(t, err)
	require.Equal(t, model.PNG, ct)
	img, err := imaging.Decode(r)
	require.NoError(t, err)
	require.Equal(t, 20, img.Bounds().Dx())

	_, _, err = svc.RenderBlurred(ctx, alice, "2")
	require.ErrorIs(t, err, model.ErrPhotoNotFound)

	_, _, err = svc.RenderBlurred(ctx, anon, "1")
	require.ErrorIs(t, err, model.ErrNotLoggedIn)

	_, _, err = svc.RenderBlurred(ctx, alice, "x")
	require.ErrorIs(t, err, model.ErrIncorrectID)
}

// USER INFO
func TestBlurService_UserInfo(t *testing.T) {
	usage := &mockUsage{usedFn: func(ctx context.Context, userID string) (int64, error) {
		require.Equal(t, "alice", userID)
		return 1234, nil
	}}
	svc := NewBlurService(&mockDetector{}, &mockCatalog{}, usage, &mockStorage{}, &mockOrphans{}, 0)
	ctx := context.Background()

	info, err := svc.UserInfo(ctx, anon)
	require.NoError(t, err)
	require.Equal(t, &model.UserInfo{LoginURL: "/login"}, info)

	info, err = svc.UserInfo(ctx, alice)
	require.NoError(t, err)
	require.True(t, info.LoggedIn)
	require.Equal(t, "alice", info.ID)
	require.EqualValues(t, 1234, *info.UsedSpace)
	require.Equal(t, model.StorageLimit, info.StorageLimit)
	require.Equal(t, "/logout", info.LogoutURL)

	usage.usedFn = func(ctx context.Context, userID string) (int64, error) { return 0, errors.New("db down") }
	_, err = svc.UserInfo(ctx, alice)
	require.ErrorIs(t, err, model.ErrCommon500)
}

func TestBlurService_WithUsage(t *testing.T) {
	svc := NewBlurService(&mockDetector{}, &mockCatalog{}, &mockUsage{usedFn: func(ctx context.Context, userID string) (int64, error) {
		return 777, nil
	}}, &mockStorage{}, &mockOrphans{}, 0)

	stale := model.Authenticated{ID: "alice", UsedBytes: 1, LogoutURL: "/logout"}
	v, err := svc.withUsage(context.Background(), stale)
	require.NoError(t, err)
	require.Equal(t, model.Authenticated{ID: "alice", UsedBytes: 777, LogoutURL: "/logout"}, v)
}
