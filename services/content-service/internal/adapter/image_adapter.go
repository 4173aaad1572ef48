package adapter

import (
	"context"
	"io"

	"agencysite.io/cms/services/content-service/internal/model"
)

// ImageAdapter talks to img-service. Upload satisfies inlineimg.Uploader.
type ImageAdapter interface {
	Upload(ctx context.Context, data []byte, subtype string) (string, error)
	UploadFile(ctx context.Context, filename string, r io.Reader) (*model.UploadImageResponse, error)
	Delete(ctx context.Context, url string) error
	// HostedPath reports whether url points at img-service and returns its /uploads/ path.
	HostedPath(url string) (string, bool)
}
