package repository

import (
	"context"
	"errors"
	"io"
	"testing"

	"agencysite.io/cms/services/img-service/internal/domain"
)

// smallest valid GIF
var gif1x1 = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func TestLocalRepositoryRoundTrip(t *testing.T) {
	repo, err := NewLocalRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := repo.Save(ctx, "pixel.gif", gif1x1, "image/gif"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	obj, err := repo.Open(ctx, "pixel.gif")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(gif1x1) {
		t.Fatal("content mismatch")
	}
	if obj.ContentType != "image/gif" || obj.Size != int64(len(gif1x1)) {
		t.Fatalf("object = %q %d", obj.ContentType, obj.Size)
	}
}

func TestLocalRepositoryDoesNotOverwrite(t *testing.T) {
	repo, err := NewLocalRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := repo.Save(ctx, "a.gif", gif1x1, "image/gif"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(ctx, "a.gif", gif1x1, "image/gif"); err == nil {
		t.Fatal("second save with the same name succeeded")
	}
}

func TestLocalRepositoryMissingAndDelete(t *testing.T) {
	repo, err := NewLocalRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := repo.Open(ctx, "missing.png"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Open missing err = %v", err)
	}
	if err := repo.Delete(ctx, "missing.png"); err != nil {
		t.Fatalf("Delete missing err = %v", err)
	}
	if err := repo.Save(ctx, "gone.gif", gif1x1, "image/gif"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "gone.gif"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.Open(ctx, "gone.gif"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Open after delete err = %v", err)
	}
}

func TestLocalRepositoryStaysInRoot(t *testing.T) {
	repo, err := NewLocalRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := repo.Save(ctx, "../escape.gif", gif1x1, "image/gif"); err == nil {
		t.Fatal("save escaped the upload dir")
	}
	if _, err := repo.Open(ctx, "../../etc/passwd"); err == nil {
		t.Fatal("open escaped the upload dir")
	}
}
