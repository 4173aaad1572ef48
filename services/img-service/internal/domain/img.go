package domain

import (
	"context"
	"errors"
	"io"
)

// UploadsPrefix is the public path under which stored images are served.
const UploadsPrefix = "/uploads/"

var (
	ErrNotImage    = errors.New("payload is not a supported image")
	ErrTooLarge    = errors.New("image exceeds the upload size limit")
	ErrInvalidName = errors.New("invalid image name")
	ErrNotFound    = errors.New("image not found")
)

type Image struct {
	Name        string `json:"filename"`
	URL         string `json:"imageUrl"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Object is a stored image opened for reading. Size is -1 when unknown.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

type ImgRepository interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Open(ctx context.Context, name string) (*Object, error)
	// Delete succeeds when the image is already gone.
	Delete(ctx context.Context, name string) error
}

type ImgService interface {
	UploadImage(ctx context.Context, r io.Reader) (*Image, error)
	OpenImage(ctx context.Context, name string) (*Object, error)
	DeleteImage(ctx context.Context, path string) error
}
