// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type BlurHandler struct {
	service  BlurService
	identity ViewerResolver
}

type BlurService interface {
	DetectAndStore(ctx context.Context, viewer model.Viewer, data *model.UploadData) ([]model.Polygon, error)
	List(ctx context.Context, viewer model.Viewer, maxPhotos string) ([]model.PhotoView, error)
	Delete(ctx context.Context, viewer model.Viewer, photoID string) error
	LoadBlob(ctx context.Context, key string) (io.ReadCloser, string, error)
	RenderBlurred(ctx context.Context, viewer model.Viewer, photoID string) (io.Reader, string, error)
	UserInfo(ctx context.Context, viewer model.Viewer) (*model.UserInfo, error)
	ServerTime() time.Time
}

// ViewerResolver - кто делает запрос
type ViewerResolver interface {
	CurrentUser(r *http.Request) model.Viewer
}

func NewBlurHandler(svc BlurService, identity ViewerResolver) *BlurHandler {
	return &BlurHandler{
		service:  svc,
		identity: identity,
	}
}

func (h BlurHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// BlurAreas - POST /blur-areas: картинка + чекбоксы категорий, в ответ полигоны
func (h BlurHandler) BlurAreas(ctx *ginext.Context) {
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": model.ErrEmptyImage.Error()})
		return
	}
	defer closeFileFlow(imageFile)

	data := &model.UploadData{
		Image:       imageFile,
		ContentType: imageHeader.Header.Get("Content-Type"),
		Size:        imageHeader.Size,
		Categories:  model.CategoriesFromForm(ctx.PostForm),
	}

	res, err := h.service.DetectAndStore(ctx.Request.Context(), h.identity.CurrentUser(ctx.Request), data)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h BlurHandler) ListPhotos(ctx *ginext.Context) {
	res, err := h.service.List(ctx.Request.Context(), h.identity.CurrentUser(ctx.Request), ctx.Query("max-photos"))
	if err != nil {
		if errors.Is(err, model.ErrNotLoggedIn) {
			ctx.Redirect(http.StatusFound, "/")
			return
		}
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

// DeletePhoto accepts the id either as ?photo-id= or as a path parameter.
func (h BlurHandler) DeletePhoto(ctx *ginext.Context) {
	id := ctx.Param("id")
	if id == "" {
		id = ctx.Query("photo-id")
	}

	if err := h.service.Delete(ctx.Request.Context(), h.identity.CurrentUser(ctx.Request), id); err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.Status(204)
}

func (h BlurHandler) ServeBlob(ctx *ginext.Context) {
	key := ctx.Query("blob-key")

	res, cType, err := h.service.LoadBlob(ctx.Request.Context(), key)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}
	defer closeFileFlow(res)

	writeImage(ctx, res, cType, key)
}

func (h BlurHandler) RenderBlurred(ctx *ginext.Context) {
	id := ctx.Param("id")

	res, cType, err := h.service.RenderBlurred(ctx.Request.Context(), h.identity.CurrentUser(ctx.Request), id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	writeImage(ctx, res, cType, id)
}

func (h BlurHandler) UserInfo(ctx *ginext.Context) {
	res, err := h.service.UserInfo(ctx.Request.Context(), h.identity.CurrentUser(ctx.Request))
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h BlurHandler) ServerTime(ctx *ginext.Context) {
	ctx.JSON(200, map[string]time.Time{"serverTime": h.service.ServerTime()})
}

func writeImage(ctx *ginext.Context, res io.Reader, cType, ref string) {
	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, res); err != nil {
		log.Printf("Failed to write response at byte %d for %q: %v", n, ref, err)
	}
}
