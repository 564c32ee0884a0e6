package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/gin-gonic/gin"
)

type mockBlurService struct {
	detectFn   func(ctx context.Context, v model.Viewer, d *model.UploadData) ([]model.Polygon, error)
	listFn     func(ctx context.Context, v model.Viewer, max string) ([]model.PhotoView, error)
	deleteFn   func(ctx context.Context, v model.Viewer, id string) error
	loadBlobFn func(ctx context.Context, key string) (io.ReadCloser, string, error)
	renderFn   func(ctx context.Context, v model.Viewer, id string) (io.Reader, string, error)
	userInfoFn func(ctx context.Context, v model.Viewer) (*model.UserInfo, error)
	now        time.Time
}

func (m *mockBlurService) DetectAndStore(ctx context.Context, v model.Viewer, d *model.UploadData) ([]model.Polygon, error) {
	return m.detectFn(ctx, v, d)
}

func (m *mockBlurService) List(ctx context.Context, v model.Viewer, max string) ([]model.PhotoView, error) {
	return m.listFn(ctx, v, max)
}

func (m *mockBlurService) Delete(ctx context.Context, v model.Viewer, id string) error {
	return m.deleteFn(ctx, v, id)
}

func (m *mockBlurService) LoadBlob(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.loadBlobFn(ctx, key)
}

func (m *mockBlurService) RenderBlurred(ctx context.Context, v model.Viewer, id string) (io.Reader, string, error) {
	return m.renderFn(ctx, v, id)
}

func (m *mockBlurService) UserInfo(ctx context.Context, v model.Viewer) (*model.UserInfo, error) {
	return m.userInfoFn(ctx, v)
}

func (m *mockBlurService) ServerTime() time.Time {
	return m.now
}

// всегда один и тот же зритель
type staticViewer struct {
	v model.Viewer
}

func (s staticViewer) CurrentUser(r *http.Request) model.Viewer {
	return s.v
}

func init() {
	gin.SetMode(gin.TestMode)
}
