package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
	BlogStatusArchived  = "archived"
)

type BlogPost struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Title           string          `json:"title" gorm:"size:200;not null"`
	Slug            string          `json:"slug" gorm:"size:255;not null;uniqueIndex"`
	Content         string          `json:"content,omitempty" gorm:"type:text;not null"`
	Excerpt         string          `json:"excerpt" gorm:"size:300;not null"`
	FeaturedImage   string          `json:"featured_image,omitempty"`
	AuthorID        uint            `json:"author_id" gorm:"index"`
	AuthorName      string          `json:"author_name,omitempty"`
	Status          string          `json:"status" gorm:"size:20;not null;default:draft;index"`
	PublishedAt     *time.Time      `json:"published_at,omitempty" gorm:"index"`
	MetaTitle       string          `json:"meta_title,omitempty" gorm:"size:60"`
	MetaDescription string          `json:"meta_description,omitempty" gorm:"size:160"`
	MetaKeywords    pq.StringArray  `json:"meta_keywords" gorm:"type:text[]"`
	Categories      pq.StringArray  `json:"categories" gorm:"type:text[]"`
	Tags            pq.StringArray  `json:"tags" gorm:"type:text[]"`
	Views           int64           `json:"views" gorm:"not null;default:0"`
	Likes           int64           `json:"likes" gorm:"not null;default:0"`
	ReadingTime     int             `json:"reading_time"` // minutes
	StructuredData  json.RawMessage `json:"structured_data,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CreateBlogRequest struct {
	Title           string          `json:"title" binding:"required,max=200"`
	Content         string          `json:"content" binding:"required"`
	Excerpt         string          `json:"excerpt" binding:"required,max=300"`
	FeaturedImage   string          `json:"featured_image"`
	Status          string          `json:"status" binding:"omitempty,oneof=draft published archived"`
	MetaTitle       string          `json:"meta_title" binding:"omitempty,max=60"`
	MetaDescription string          `json:"meta_description" binding:"omitempty,max=160"`
	MetaKeywords    []string        `json:"meta_keywords"`
	Categories      []string        `json:"categories"`
	Tags            []string        `json:"tags"`
	StructuredData  json.RawMessage `json:"structured_data"`
}

type UpdateBlogRequest struct {
	Title           *string          `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Content         *string          `json:"content,omitempty"`
	Excerpt         *string          `json:"excerpt,omitempty" binding:"omitempty,max=300"`
	FeaturedImage   *string          `json:"featured_image,omitempty"`
	Status          *string          `json:"status,omitempty" binding:"omitempty,oneof=draft published archived"`
	MetaTitle       *string          `json:"meta_title,omitempty" binding:"omitempty,max=60"`
	MetaDescription *string          `json:"meta_description,omitempty" binding:"omitempty,max=160"`
	MetaKeywords    *[]string        `json:"meta_keywords,omitempty"`
	Categories      *[]string        `json:"categories,omitempty"`
	Tags            *[]string        `json:"tags,omitempty"`
	StructuredData  *json.RawMessage `json:"structured_data,omitempty"`
}

type BlogStats struct {
	TotalBlogs     int64       `json:"total_blogs"`
	PublishedBlogs int64       `json:"published_blogs"`
	DraftBlogs     int64       `json:"draft_blogs"`
	TotalViews     int64       `json:"total_views"`
	PopularBlogs   []*BlogPost `json:"popular_blogs"`
	RecentBlogs    []*BlogPost `json:"recent_blogs"`
}

type BlogRepository interface {
	Create(ctx context.Context, post *BlogPost) error
	GetByID(ctx context.Context, id uint) (*BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*BlogPost, error)
	List(ctx context.Context, q ListQuery) ([]*BlogPost, int64, error)
	Update(ctx context.Context, post *BlogPost) error
	Delete(ctx context.Context, id uint) error
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	IncrementViews(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*BlogStats, error)
	Taxonomy(ctx context.Context) (*Taxonomy, error)
}

type BlogService interface {
	CreateBlog(ctx context.Context, req CreateBlogRequest, authorID uint, authorName string) (*BlogPost, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*BlogPost, error)
	GetBlog(ctx context.Context, id uint) (*BlogPost, error)
	ListBlogs(ctx context.Context, q ListQuery) ([]*BlogPost, *Pagination, error)
	UpdateBlog(ctx context.Context, id uint, req UpdateBlogRequest) (*BlogPost, error)
	DeleteBlog(ctx context.Context, id uint) error
	Stats(ctx context.Context) (*BlogStats, error)
	Taxonomy(ctx context.Context) (*Taxonomy, error)
}
