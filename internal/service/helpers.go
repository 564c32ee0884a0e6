package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/gabriel-vasile/mimetype"
)

// BlobURL - адрес, по которому фронтенд забирает сохраненную картинку
func BlobURL(key string) string {
	return "/photo?blob-key=" + url.QueryEscape(key)
}

// parseMaxPhotos: пусто или мусор - без ограничения, отрицательное - ноль
func parseMaxPhotos(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return model.NoLimit
	}
	if n < 0 {
		return 0
	}
	return n
}

func parsePhotoID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, model.ErrIncorrectID
	}
	return id, nil
}

// resolveContentType trusts the declared type unless it is missing or generic.
func resolveContentType(declared string, raw []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(raw).String()
}

func nonNil(p model.Polygons) model.Polygons {
	if p == nil {
		return model.Polygons{}
	}
	return p
}
