package model

import "agencysite.io/cms/services/content-service/internal/domain"

// UploadImageResponse is the img-service reply to an upload.
type UploadImageResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
	Filename string `json:"filename"`
}

// DeleteImageRequest represents the request payload for deleting an image from img-service
type DeleteImageRequest struct {
	Path string `json:"path"`
}

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type BlogResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message,omitempty"`
	Blog    *domain.BlogPost `json:"blog"`
}

type BlogListResponse struct {
	Success    bool               `json:"success"`
	Blogs      []*domain.BlogPost `json:"blogs"`
	Pagination *domain.Pagination `json:"pagination"`
}

type ServiceResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Service *domain.Service `json:"service"`
}

type ServiceListResponse struct {
	Success    bool               `json:"success"`
	Services   []*domain.Service  `json:"services"`
	Pagination *domain.Pagination `json:"pagination"`
}

type StatsResponse struct {
	Success bool `json:"success"`
	Stats   any  `json:"stats"`
}

type TaxonomyResponse struct {
	Success bool `json:"success"`
	*domain.Taxonomy
}

type BulkUpdateResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ModifiedCount int64  `json:"modified_count"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
