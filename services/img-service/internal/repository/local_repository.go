package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/gabriel-vasile/mimetype"

	"agencysite.io/cms/services/img-service/internal/domain"
)

type localRepository struct {
	dir string
}

// NewLocalRepository stores images as files in dir. All access goes through
// os.Root, so names cannot escape the directory.
func NewLocalRepository(dir string) (domain.ImgRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &localRepository{dir: dir}, nil
}

func (r *localRepository) Save(_ context.Context, name string, data []byte, _ string) error {
	root, err := os.OpenRoot(r.dir)
	if err != nil {
		return err
	}
	defer root.Close()
	f, err := root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return f.Close()
}

func (r *localRepository) Open(_ context.Context, name string) (*domain.Object, error) {
	f, err := os.OpenInRoot(r.dir, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, domain.ErrNotFound
	}
	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &domain.Object{Body: f, ContentType: mt.String(), Size: info.Size()}, nil
}

func (r *localRepository) Delete(_ context.Context, name string) error {
	root, err := os.OpenRoot(r.dir)
	if err != nil {
		return err
	}
	defer root.Close()
	if err := root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}
