// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"math"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
)

// StorageLimit - сколько байт фотографий может хранить один пользователь
const StorageLimit int64 = 50 * 1024 * 1024

// NoLimit is used by listing when max-photos is absent or unparseable
const NoLimit = math.MaxInt32

//---------------------

type Photo struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"userId"`
	ObjectKey   string    `json:"-"`
	ContentType string    `json:"-"`
	SizeBytes   int64     `json:"-"`
	Polygons    Polygons  `json:"blurRectangles"`
	CreatedAt   time.Time `json:"dateCreated"`
}

type Account struct {
	UserID    string
	UsedBytes int64
	UpdatedAt time.Time
}

// PhotoView - то, что отдается фронтенду в списке фотографий
type PhotoView struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"userId"`
	URL            string    `json:"url"`
	BlurRectangles Polygons  `json:"blurRectangles"`
	DateCreated    time.Time `json:"dateCreated"`
}

type UploadData struct {
	Image       multipart.File
	ContentType string
	Size        int64
	Categories  Category
}

// UserInfo describes the current viewer for the frontend
type UserInfo struct {
	LoggedIn     bool   `json:"loggedIn"`
	ID           string `json:"id,omitempty"`
	UsedSpace    *int64 `json:"usedSpace,omitempty"`
	StorageLimit int64  `json:"storageLimit,omitempty"`
	LoginURL     string `json:"loginURL,omitempty"`
	LogoutURL    string `json:"logoutURL,omitempty"`
}

// OrphanEvent is published when a blob could not be removed
type OrphanEvent struct {
	Key    string    `json:"key"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later")      // 500
	ErrIncorrectQuery    error = errors.New("incorrect query parameters")                 // 400
	ErrIncorrectID       error = errors.New("parameter photo-id must be a number")        // 400
	ErrEmptyImage        error = errors.New("please upload an image file")                // 400
	ErrUnsupportedFormat error = errors.New("image type not supported")                   // 400
	ErrImageTooLarge     error = errors.New("uploaded image is too large")                // 413
	ErrMissingBlobKey    error = errors.New("please provide the blob-key parameter")      // 400
	ErrNotLoggedIn       error = errors.New("you must be logged in")                      // 403
	ErrPhotoNotFound     error = errors.New("the current user has no photo with this id") // 404
	ErrBlobNotFound      error = errors.New("requested blob doesn't exist")               // 404
	ErrNegativeDelta     error = errors.New("storage delta must not be negative")         // 500
	ErrProvider          error = errors.New("annotation provider failure")                // recovered
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
}

// InImageTypeMap - допустимые типы загружаемых картинок
var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
}

var GetImagingFormat = map[string]imaging.Format{
	JPEG: imaging.JPEG,
	PNG:  imaging.PNG,
}

func SupportedTypes() []string {
	return []string{JPEG, PNG}
}
