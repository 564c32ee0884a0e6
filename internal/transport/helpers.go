package transport

import (
	"errors"
	"io"
	"log"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrNotLoggedIn):
		return 403
	case errors.Is(err, model.ErrPhotoNotFound),
		errors.Is(err, model.ErrBlobNotFound):
		return 404
	case errors.Is(err, model.ErrImageTooLarge):
		return 413
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrEmptyImage),
		errors.Is(err, model.ErrMissingBlobKey),
		errors.Is(err, model.ErrUnsupportedFormat):
		return 400
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
