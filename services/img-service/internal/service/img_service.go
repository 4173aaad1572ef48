package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/services/img-service/internal/domain"
)

const jpegQuality = 85

// stored names are generated here, so anything else is rejected
var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*(\.[A-Za-z0-9]+)?$`)

type Options struct {
	Backend        string
	MaxUploadBytes int64
	MaxWidth       int
}

type imgService struct {
	repo domain.ImgRepository
	opts Options
	log  *zap.SugaredLogger
}

func NewImgService(repo domain.ImgRepository, opts Options, log *zap.SugaredLogger) domain.ImgService {
	return &imgService{repo: repo, opts: opts, log: log}
}

// UploadImage checks the payload is an image, down-scales wide raster images
// and stores the result under a random name.
func (s *imgService) UploadImage(ctx context.Context, r io.Reader) (*domain.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, domain.ErrTooLarge
	}
	if len(data) == 0 {
		return nil, domain.ErrNotImage
	}

	mt := mimetype.Detect(data)
	contentType := mt.String()
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: detected %s", domain.ErrNotImage, contentType)
	}

	data, err = s.downscale(data, contentType)
	if err != nil {
		return nil, err
	}

	name := uuid.New().String() + mt.Extension()
	if err := s.repo.Save(ctx, name, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	metrics.ImagesStored.WithLabelValues(s.opts.Backend).Inc()
	s.log.Infow("image stored", "name", name, "content_type", contentType, "size", len(data))

	return &domain.Image{
		Name:        name,
		URL:         domain.UploadsPrefix + name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// downscale re-encodes JPEG and PNG images wider than MaxWidth. Other
// formats are stored as uploaded.
func (s *imgService) downscale(data []byte, contentType string) ([]byte, error) {
	if s.opts.MaxWidth <= 0 || (contentType != "image/jpeg" && contentType != "image/png") {
		return data, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotImage, err)
	}
	if cfg.Width <= s.opts.MaxWidth {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotImage, err)
	}
	b := src.Bounds()
	h := b.Dy() * s.opts.MaxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, s.opts.MaxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if contentType == "image/png" {
		err = png.Encode(&buf, dst)
	} else {
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}
	s.log.Debugw("image down-scaled", "from_width", b.Dx(), "to_width", s.opts.MaxWidth)
	return buf.Bytes(), nil
}

func (s *imgService) OpenImage(ctx context.Context, name string) (*domain.Object, error) {
	if !validName.MatchString(name) {
		return nil, domain.ErrInvalidName
	}
	return s.repo.Open(ctx, name)
}

// DeleteImage accepts either a bare name or an /uploads/ path.
func (s *imgService) DeleteImage(ctx context.Context, path string) error {
	name := strings.TrimPrefix(strings.TrimSpace(path), domain.UploadsPrefix)
	if !validName.MatchString(name) {
		return domain.ErrInvalidName
	}
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.log.Infow("image deleted", "name", name)
	return nil
}
