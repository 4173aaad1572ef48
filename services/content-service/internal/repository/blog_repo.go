package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"agencysite.io/cms/services/content-service/internal/domain"
)

var blogList = listSpec{
	searchColumns: []string{"title", "excerpt", "content"},
	sortColumns: map[string]string{
		"publishedAt":  "published_at",
		"published_at": "published_at",
		"createdAt":    "created_at",
		"created_at":   "created_at",
		"updatedAt":    "updated_at",
		"updated_at":   "updated_at",
		"title":        "title",
		"views":        "views",
		"likes":        "likes",
	},
	defaultSort:    "published_at",
	categoryClause: "? = ANY(categories)",
}

type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new BlogRepository with the given GORM DB instance.
func NewBlogRepository(db *gorm.DB) domain.BlogRepository {
	return &blogRepository{db: db}
}

// Create inserts a new post. A slug collision surfaces as domain.ErrSlugTaken.
func (r *blogRepository) Create(ctx context.Context, post *domain.BlogPost) error {
	return translate(r.db.WithContext(ctx).Create(post).Error, "create blog post")
}

// GetByID retrieves a post by its ID from the database.
func (r *blogRepository) GetByID(ctx context.Context, id uint) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err, "get blog post")
	}
	return &post, nil
}

// GetBySlug retrieves a post by slug regardless of status.
func (r *blogRepository) GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, translate(err, "get blog post")
	}
	return &post, nil
}

// List returns one page of posts without their content and the total match count.
func (r *blogRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.BlogPost, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&domain.BlogPost{})
	if err := blogList.filter(base, q).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count blog posts")
	}
	var posts []*domain.BlogPost
	err := blogList.filter(r.db.WithContext(ctx).Model(&domain.BlogPost{}), q).
		Omit("content").
		Order(blogList.order(q)).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&posts).Error
	if err != nil {
		return nil, 0, translate(err, "list blog posts")
	}
	return posts, total, nil
}

// Update writes every editable column of post.
func (r *blogRepository) Update(ctx context.Context, post *domain.BlogPost) error {
	post.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(post).Updates(map[string]interface{}{
		"title":            post.Title,
		"slug":             post.Slug,
		"content":          post.Content,
		"excerpt":          post.Excerpt,
		"featured_image":   post.FeaturedImage,
		"status":           post.Status,
		"published_at":     post.PublishedAt,
		"meta_title":       post.MetaTitle,
		"meta_description": post.MetaDescription,
		"meta_keywords":    post.MetaKeywords,
		"categories":       post.Categories,
		"tags":             post.Tags,
		"reading_time":     post.ReadingTime,
		"structured_data":  post.StructuredData,
		"updated_at":       post.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error, "update blog post")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a post by its ID from the database.
func (r *blogRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.BlogPost{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete blog post")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SlugExists reports whether another post already holds slug.
func (r *blogRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BlogPost{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check blog slug")
	}
	return count > 0, nil
}

// IncrementViews bumps the view counter in a single statement.
func (r *blogRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&domain.BlogPost{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	return translate(err, "increment blog views")
}

// Stats aggregates the admin dashboard numbers.
func (r *blogRepository) Stats(ctx context.Context) (*domain.BlogStats, error) {
	db := r.db.WithContext(ctx).Model(&domain.BlogPost{})
	var stats domain.BlogStats
	row := struct {
		Total     int64
		Published int64
		Drafts    int64
		Views     int64
	}{}
	err := db.Select(
		"COUNT(*) AS total, "+
			"COUNT(*) FILTER (WHERE status = ?) AS published, "+
			"COUNT(*) FILTER (WHERE status = ?) AS drafts, "+
			"COALESCE(SUM(views), 0) AS views",
		domain.BlogStatusPublished, domain.BlogStatusDraft,
	).Scan(&row).Error
	if err != nil {
		return nil, translate(err, "aggregate blog stats")
	}
	stats.TotalBlogs = row.Total
	stats.PublishedBlogs = row.Published
	stats.DraftBlogs = row.Drafts
	stats.TotalViews = row.Views

	summary := []string{"id", "title", "slug", "views", "published_at", "author_name"}
	if err := r.db.WithContext(ctx).Select(summary).
		Where("status = ?", domain.BlogStatusPublished).
		Order("views DESC, id DESC").Limit(5).
		Find(&stats.PopularBlogs).Error; err != nil {
		return nil, translate(err, "list popular blog posts")
	}
	if err := r.db.WithContext(ctx).Select(summary).
		Where("status = ?", domain.BlogStatusPublished).
		Order("published_at DESC NULLS LAST, id DESC").Limit(5).
		Find(&stats.RecentBlogs).Error; err != nil {
		return nil, translate(err, "list recent blog posts")
	}
	return &stats, nil
}

// Taxonomy lists categories and tags used by published posts.
func (r *blogRepository) Taxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	return newTaxonomyRepository(r.db, "blog_posts").distinct(ctx,
		"unnest(categories)", "unnest(tags)",
		"status = ?", domain.BlogStatusPublished)
}
