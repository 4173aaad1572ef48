package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"agencysite.io/cms/services/content-service/internal/config"
)

func TestUploadSendsMultipartAndKeepsRelativePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/images" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "abc" {
			t.Errorf("body = %q", data)
		}
		if header.Filename != "inline.jpg" {
			t.Errorf("filename = %q, want inline.jpg", header.Filename)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "imageUrl": "/uploads/1.jpg", "filename": "1.jpg"})
	}))
	defer srv.Close()

	a := NewImageAdapter(&config.ContentConfig{ImageServiceURL: srv.URL, PublicBaseURL: "https://cdn.example.com"})
	url, err := a.Upload(context.Background(), []byte("abc"), "jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "/uploads/1.jpg" {
		t.Fatalf("url = %q, want the relative path img-service returned", url)
	}
	if path, ok := a.HostedPath(url); !ok || path != "/uploads/1.jpg" {
		t.Fatalf("HostedPath(%q) = %q, %v", url, path, ok)
	}
}

func TestUploadFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewImageAdapter(&config.ContentConfig{ImageServiceURL: srv.URL})
	if _, err := a.Upload(context.Background(), []byte("abc"), "png"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestDeleteOnlyHostedImages(t *testing.T) {
	var deleted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		deleted = append(deleted, req.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewImageAdapter(&config.ContentConfig{ImageServiceURL: srv.URL, PublicBaseURL: "https://site.io"})
	for _, u := range []string{"https://site.io/uploads/a.png", "/uploads/b.png", "https://elsewhere.com/uploads/c.png", "data:image/png;base64,AAAA"} {
		if err := a.Delete(context.Background(), u); err != nil {
			t.Fatalf("Delete(%q): %v", u, err)
		}
	}
	if len(deleted) != 2 || deleted[0] != "/uploads/a.png" || deleted[1] != "/uploads/b.png" {
		t.Fatalf("deleted = %v", deleted)
	}
}

func TestExtension(t *testing.T) {
	for in, want := range map[string]string{"jpeg": "jpg", "PNG": "png", "svg+xml": "svg", "webp": "webp"} {
		if got := extension(in); got != want {
			t.Errorf("extension(%q) = %q, want %q", in, got, want)
		}
	}
}
