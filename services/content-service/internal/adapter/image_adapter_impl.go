package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"agencysite.io/cms/services/content-service/internal/config"
	"agencysite.io/cms/services/content-service/internal/model"
)

const uploadsPrefix = "/uploads/"

// subtypeExt maps data URI subtypes onto file extensions img-service accepts.
var subtypeExt = map[string]string{
	"jpeg":    "jpg",
	"pjpeg":   "jpg",
	"svg+xml": "svg",
	"x-icon":  "ico",
}

type imageAdapterImpl struct {
	imageServiceURL string
	publicBaseURL   string
	client          *http.Client
}

func NewImageAdapter(cfg *config.ContentConfig) ImageAdapter {
	return &imageAdapterImpl{
		imageServiceURL: cfg.ImageServiceURL,
		publicBaseURL:   cfg.PublicBaseURL,
		client:          &http.Client{Timeout: 15 * time.Second},
	}
}

// Upload stores raw image bytes and returns the site-relative path of the
// copy, as reported by img-service.
func (a *imageAdapterImpl) Upload(ctx context.Context, data []byte, subtype string) (string, error) {
	resp, err := a.UploadFile(ctx, "inline."+extension(subtype), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}

// UploadFile streams one file to img-service as multipart field "image".
func (a *imageAdapterImpl) UploadFile(ctx context.Context, filename string, r io.Reader) (*model.UploadImageResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to buffer image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.imageServiceURL+"/images", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach img-service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("img-service returned status %d", resp.StatusCode)
	}
	var imgResp model.UploadImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return nil, fmt.Errorf("failed to decode img-service response: %w", err)
	}
	if imgResp.ImageURL == "" {
		return nil, fmt.Errorf("img-service returned no image url")
	}
	return &imgResp, nil
}

// Delete removes a hosted image. URLs that do not belong to img-service are ignored.
func (a *imageAdapterImpl) Delete(ctx context.Context, url string) error {
	path, ok := a.HostedPath(url)
	if !ok {
		return nil
	}
	jsonData, err := json.Marshal(model.DeleteImageRequest{Path: path})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.imageServiceURL+"/images", bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach img-service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("img-service returned status %d", resp.StatusCode)
	}
	return nil
}

func (a *imageAdapterImpl) HostedPath(url string) (string, bool) {
	path := url
	if a.publicBaseURL != "" {
		path = strings.TrimPrefix(path, a.publicBaseURL)
	}
	if !strings.HasPrefix(path, uploadsPrefix) || len(path) == len(uploadsPrefix) {
		return "", false
	}
	return path, true
}

func extension(subtype string) string {
	subtype = strings.ToLower(subtype)
	if ext, ok := subtypeExt[subtype]; ok {
		return ext
	}
	return subtype
}
