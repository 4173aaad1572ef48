package domain

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
)

const (
	ServiceStatusActive   = "active"
	ServiceStatusInactive = "inactive"
	ServiceStatusDraft    = "draft"
)

// Service is an offering shown on the public services page.
type Service struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"size:200;not null"`
	Slug             string         `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Description      string         `json:"description" gorm:"size:500;not null"`
	Content          string         `json:"content,omitempty" gorm:"type:text;not null"`
	ShortDescription string         `json:"short_description" gorm:"size:200;not null"`
	Icon             string         `json:"icon"`
	Image            string         `json:"image"`
	Category         string         `json:"category" gorm:"not null;index"`
	Tags             pq.StringArray `json:"tags" gorm:"type:text[]"`
	Status           string         `json:"status" gorm:"size:20;not null;default:draft;index"`
	Featured         bool           `json:"featured" gorm:"not null;default:false;index"`
	MetaTitle        string         `json:"meta_title,omitempty" gorm:"size:60"`
	MetaDescription  string         `json:"meta_description,omitempty" gorm:"size:160"`
	MetaKeywords     pq.StringArray `json:"meta_keywords" gorm:"type:text[]"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	ImageURL string `json:"image_url,omitempty" gorm:"-"`
	IconURL  string `json:"icon_url,omitempty" gorm:"-"`
}

// ResolveURLs fills ImageURL and IconURL, prefixing relative paths with baseURL.
func (s *Service) ResolveURLs(baseURL string) {
	s.ImageURL = absoluteURL(baseURL, s.Image)
	s.IconURL = absoluteURL(baseURL, s.Icon)
}

func absoluteURL(baseURL, path string) string {
	if path == "" || baseURL == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return baseURL + path
}

type CreateServiceRequest struct {
	Title            string   `json:"title" binding:"required,max=200"`
	Description      string   `json:"description" binding:"required,max=500"`
	Content          string   `json:"content" binding:"required"`
	ShortDescription string   `json:"short_description" binding:"required,max=200"`
	Icon             string   `json:"icon" binding:"required"`
	Image            string   `json:"image" binding:"required"`
	Category         string   `json:"category" binding:"required"`
	Tags             []string `json:"tags"`
	Status           string   `json:"status" binding:"omitempty,oneof=active inactive draft"`
	Featured         bool     `json:"featured"`
	MetaTitle        string   `json:"meta_title" binding:"omitempty,max=60"`
	MetaDescription  string   `json:"meta_description" binding:"omitempty,max=160"`
	MetaKeywords     []string `json:"meta_keywords"`
}

type UpdateServiceRequest struct {
	Title            *string   `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description      *string   `json:"description,omitempty" binding:"omitempty,max=500"`
	Content          *string   `json:"content,omitempty"`
	ShortDescription *string   `json:"short_description,omitempty" binding:"omitempty,max=200"`
	Icon             *string   `json:"icon,omitempty"`
	Image            *string   `json:"image,omitempty"`
	Category         *string   `json:"category,omitempty"`
	Tags             *[]string `json:"tags,omitempty"`
	Status           *string   `json:"status,omitempty" binding:"omitempty,oneof=active inactive draft"`
	Featured         *bool     `json:"featured,omitempty"`
	MetaTitle        *string   `json:"meta_title,omitempty" binding:"omitempty,max=60"`
	MetaDescription  *string   `json:"meta_description,omitempty" binding:"omitempty,max=160"`
	MetaKeywords     *[]string `json:"meta_keywords,omitempty"`
}

// BulkServiceUpdate lists the fields a bulk update may touch.
type BulkServiceUpdate struct {
	Status   *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive draft"`
	Featured *bool   `json:"featured,omitempty"`
	Category *string `json:"category,omitempty"`
}

func (u BulkServiceUpdate) Empty() bool {
	return u.Status == nil && u.Featured == nil && u.Category == nil
}

type BulkUpdateRequest struct {
	ServiceIDs []uint            `json:"service_ids" binding:"required,min=1"`
	Update     BulkServiceUpdate `json:"update"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

type ServiceStats struct {
	Total      int64           `json:"total"`
	Active     int64           `json:"active"`
	Draft      int64           `json:"draft"`
	Featured   int64           `json:"featured"`
	Categories []CategoryCount `json:"categories"`
}

type ServiceRepository interface {
	Create(ctx context.Context, svc *Service) error
	GetByID(ctx context.Context, id uint) (*Service, error)
	GetBySlug(ctx context.Context, slug string) (*Service, error)
	List(ctx context.Context, q ListQuery) ([]*Service, int64, error)
	Update(ctx context.Context, svc *Service) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	BulkUpdate(ctx context.Context, ids []uint, update BulkServiceUpdate) (int64, error)
	Stats(ctx context.Context) (*ServiceStats, error)
	Taxonomy(ctx context.Context) (*Taxonomy, error)
}

// CatalogService manages the services collection.
type CatalogService interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (*Service, error)
	GetActiveBySlug(ctx context.Context, slug string) (*Service, error)
	GetService(ctx context.Context, id uint) (*Service, error)
	ListServices(ctx context.Context, q ListQuery) ([]*Service, *Pagination, error)
	UpdateService(ctx context.Context, id uint, req UpdateServiceRequest) (*Service, error)
	DeleteService(ctx context.Context, id uint) error
	BulkUpdate(ctx context.Context, req BulkUpdateRequest) (int64, error)
	RecordInquiry(ctx context.Context, slug string) error
	Stats(ctx context.Context) (*ServiceStats, error)
	Taxonomy(ctx context.Context) (*Taxonomy, error)
}
