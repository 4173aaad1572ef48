package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/slug"
	"agencysite.io/cms/services/content-service/internal/adapter"
	"agencysite.io/cms/services/content-service/internal/config"
	"agencysite.io/cms/services/content-service/internal/domain"
)

const blogCollection = "blog"

type blogService struct {
	repo    domain.BlogRepository
	slugs   *slug.Resolver
	content *contentPipeline
	log     *zap.SugaredLogger
}

// NewBlogService creates a new BlogService with the given repository.
func NewBlogService(repo domain.BlogRepository, images adapter.ImageAdapter, cfg *config.ContentConfig, log *zap.SugaredLogger) domain.BlogService {
	return &blogService{
		repo:    repo,
		slugs:   slug.NewResolver(repo),
		content: newContentPipeline(images, cfg.ImageUploadConcurrency, log),
		log:     log,
	}
}

// CreateBlog stores a new post. Inline images are uploaded before the slug is
// chosen; a client-supplied slug is never used.
func (s *blogService) CreateBlog(ctx context.Context, req domain.CreateBlogRequest, authorID uint, authorName string) (*domain.BlogPost, error) {
	title := strings.TrimSpace(req.Title)
	if err := checkTitle(title); err != nil {
		return nil, err
	}
	post := &domain.BlogPost{
		Title:           title,
		Content:         s.content.prepareHTML(ctx, req.Content),
		Excerpt:         strings.TrimSpace(req.Excerpt),
		FeaturedImage:   s.content.externalize(ctx, req.FeaturedImage),
		AuthorID:        authorID,
		AuthorName:      authorName,
		Status:          req.Status,
		MetaTitle:       strings.TrimSpace(req.MetaTitle),
		MetaDescription: strings.TrimSpace(req.MetaDescription),
		MetaKeywords:    pq.StringArray(stringsOrEmpty(req.MetaKeywords)),
		Categories:      pq.StringArray(stringsOrEmpty(req.Categories)),
		Tags:            pq.StringArray(stringsOrEmpty(req.Tags)),
		StructuredData:  req.StructuredData,
	}
	if post.Status == "" {
		post.Status = domain.BlogStatusDraft
	}
	applyBlogDefaults(post, true)

	_, err := persistWithSlug(ctx, s.slugs, blogCollection, post.Title, 0, func(sl string) error {
		post.ID = 0
		post.Slug = sl
		return s.repo.Create(ctx, post)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}
	s.log.Infow("blog post created", "id", post.ID, "slug", post.Slug, "status", post.Status)
	return post, nil
}

// GetPublishedBySlug returns a published post and counts the view.
func (s *blogService) GetPublishedBySlug(ctx context.Context, postSlug string) (*domain.BlogPost, error) {
	post, err := s.repo.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post.Status != domain.BlogStatusPublished {
		return nil, domain.ErrNotFound
	}
	if err := s.repo.IncrementViews(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("failed to count view: %w", err)
	}
	post.Views++
	return post, nil
}

// GetBlog returns any post by id for editing.
func (s *blogService) GetBlog(ctx context.Context, id uint) (*domain.BlogPost, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *blogService) ListBlogs(ctx context.Context, q domain.ListQuery) ([]*domain.BlogPost, *domain.Pagination, error) {
	q.Normalize()
	posts, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get blog posts: %w", err)
	}
	return posts, domain.NewPagination(q, total), nil
}

// UpdateBlog applies a partial update. The slug is re-resolved only when the
// title actually changes, excluding the post's own id.
func (s *blogService) UpdateBlog(ctx context.Context, id uint, req domain.UpdateBlogRequest) (*domain.BlogPost, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := s.content.hostedImages([]string{post.FeaturedImage}, post.Content)

	titleChanged := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := checkTitle(title); err != nil {
			return nil, err
		}
		titleChanged = title != post.Title
		post.Title = title
	}
	contentChanged := false
	if req.Content != nil {
		post.Content = s.content.prepareHTML(ctx, *req.Content)
		contentChanged = true
	}
	if req.Excerpt != nil {
		post.Excerpt = strings.TrimSpace(*req.Excerpt)
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = s.content.externalize(ctx, *req.FeaturedImage)
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.MetaTitle != nil {
		post.MetaTitle = strings.TrimSpace(*req.MetaTitle)
	}
	if req.MetaDescription != nil {
		post.MetaDescription = strings.TrimSpace(*req.MetaDescription)
	}
	if req.MetaKeywords != nil {
		post.MetaKeywords = stringsOrEmpty(*req.MetaKeywords)
	}
	if req.Categories != nil {
		post.Categories = stringsOrEmpty(*req.Categories)
	}
	if req.Tags != nil {
		post.Tags = stringsOrEmpty(*req.Tags)
	}
	if req.StructuredData != nil {
		post.StructuredData = *req.StructuredData
	}
	applyBlogDefaults(post, contentChanged)

	if titleChanged {
		_, err = persistWithSlug(ctx, s.slugs, blogCollection, post.Title, post.ID, func(sl string) error {
			post.Slug = sl
			return s.repo.Update(ctx, post)
		})
	} else {
		err = s.repo.Update(ctx, post)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update blog post: %w", err)
	}

	after := s.content.hostedImages([]string{post.FeaturedImage}, post.Content)
	s.content.removeOrphans(ctx, before, after)
	return post, nil
}

// DeleteBlog removes a post and then, best effort, the images it hosted.
func (s *blogService) DeleteBlog(ctx context.Context, id uint) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.content.removeImages(ctx, s.content.hostedImages([]string{post.FeaturedImage}, post.Content))
	s.log.Infow("blog post deleted", "id", id, "slug", post.Slug)
	return nil
}

func (s *blogService) Stats(ctx context.Context) (*domain.BlogStats, error) {
	return s.repo.Stats(ctx)
}

func (s *blogService) Taxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	return s.repo.Taxonomy(ctx)
}

// applyBlogDefaults fills the derived fields the editor may leave empty.
func applyBlogDefaults(post *domain.BlogPost, contentChanged bool) {
	if post.MetaTitle == "" {
		post.MetaTitle = truncate(post.Title, 60)
	}
	if post.MetaDescription == "" {
		post.MetaDescription = truncate(post.Excerpt, 160)
	}
	if contentChanged {
		post.ReadingTime = readingTime(post.Content)
	}
	if post.Status == domain.BlogStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	if len(post.StructuredData) == 0 {
		post.StructuredData = json.RawMessage("{}")
	}
	if post.MetaKeywords == nil {
		post.MetaKeywords = pq.StringArray{}
	}
	if post.Categories == nil {
		post.Categories = pq.StringArray{}
	}
	if post.Tags == nil {
		post.Tags = pq.StringArray{}
	}
}
