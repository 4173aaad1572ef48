package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"agencysite.io/cms/pkg/slug"
	"agencysite.io/cms/services/content-service/internal/adapter"
	"agencysite.io/cms/services/content-service/internal/config"
	"agencysite.io/cms/services/content-service/internal/domain"
)

const serviceCollection = "services"

type catalogService struct {
	repo    domain.ServiceRepository
	slugs   *slug.Resolver
	content *contentPipeline
	baseURL string
	log     *zap.SugaredLogger
}

func NewCatalogService(repo domain.ServiceRepository, images adapter.ImageAdapter, cfg *config.ContentConfig, log *zap.SugaredLogger) domain.CatalogService {
	return &catalogService{
		repo:    repo,
		slugs:   slug.NewResolver(repo),
		content: newContentPipeline(images, cfg.ImageUploadConcurrency, log),
		baseURL: cfg.PublicBaseURL,
		log:     log,
	}
}

func (s *catalogService) CreateService(ctx context.Context, req domain.CreateServiceRequest) (*domain.Service, error) {
	title := strings.TrimSpace(req.Title)
	if err := checkTitle(title); err != nil {
		return nil, err
	}
	svc := &domain.Service{
		Title:            title,
		Description:      strings.TrimSpace(req.Description),
		Content:          s.content.prepareHTML(ctx, req.Content),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Icon:             s.content.externalize(ctx, req.Icon),
		Image:            s.content.externalize(ctx, req.Image),
		Category:         strings.TrimSpace(req.Category),
		Tags:             pq.StringArray(stringsOrEmpty(req.Tags)),
		Status:           req.Status,
		Featured:         req.Featured,
		MetaTitle:        strings.TrimSpace(req.MetaTitle),
		MetaDescription:  strings.TrimSpace(req.MetaDescription),
		MetaKeywords:     pq.StringArray(stringsOrEmpty(req.MetaKeywords)),
	}
	if svc.Status == "" {
		svc.Status = domain.ServiceStatusDraft
	}

	_, err := persistWithSlug(ctx, s.slugs, serviceCollection, svc.Title, 0, func(sl string) error {
		svc.ID = 0
		svc.Slug = sl
		return s.repo.Create(ctx, svc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	s.log.Infow("service created", "id", svc.ID, "slug", svc.Slug)
	svc.ResolveURLs(s.baseURL)
	return svc, nil
}

// GetActiveBySlug returns a service visible on the public site.
func (s *catalogService) GetActiveBySlug(ctx context.Context, serviceSlug string) (*domain.Service, error) {
	svc, err := s.repo.GetBySlug(ctx, serviceSlug)
	if err != nil {
		return nil, err
	}
	if svc.Status != domain.ServiceStatusActive {
		return nil, domain.ErrNotFound
	}
	svc.ResolveURLs(s.baseURL)
	return svc, nil
}

func (s *catalogService) GetService(ctx context.Context, id uint) (*domain.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.ResolveURLs(s.baseURL)
	return svc, nil
}

func (s *catalogService) ListServices(ctx context.Context, q domain.ListQuery) ([]*domain.Service, *domain.Pagination, error) {
	q.Normalize()
	services, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get services: %w", err)
	}
	for _, svc := range services {
		svc.ResolveURLs(s.baseURL)
	}
	return services, domain.NewPagination(q, total), nil
}

func (s *catalogService) UpdateService(ctx context.Context, id uint, req domain.UpdateServiceRequest) (*domain.Service, error) {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := s.content.hostedImages([]string{svc.Icon, svc.Image}, svc.Content)

	titleChanged := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := checkTitle(title); err != nil {
			return nil, err
		}
		titleChanged = title != svc.Title
		svc.Title = title
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
	}
	if req.Content != nil {
		svc.Content = s.content.prepareHTML(ctx, *req.Content)
	}
	if req.ShortDescription != nil {
		svc.ShortDescription = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Icon != nil {
		svc.Icon = s.content.externalize(ctx, *req.Icon)
	}
	if req.Image != nil {
		svc.Image = s.content.externalize(ctx, *req.Image)
	}
	if req.Category != nil {
		svc.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		svc.Tags = stringsOrEmpty(*req.Tags)
	}
	if req.Status != nil {
		svc.Status = *req.Status
	}
	if req.Featured != nil {
		svc.Featured = *req.Featured
	}
	if req.MetaTitle != nil {
		svc.MetaTitle = strings.TrimSpace(*req.MetaTitle)
	}
	if req.MetaDescription != nil {
		svc.MetaDescription = strings.TrimSpace(*req.MetaDescription)
	}
	if req.MetaKeywords != nil {
		svc.MetaKeywords = stringsOrEmpty(*req.MetaKeywords)
	}

	if titleChanged {
		_, err = persistWithSlug(ctx, s.slugs, serviceCollection, svc.Title, svc.ID, func(sl string) error {
			svc.Slug = sl
			return s.repo.Update(ctx, svc)
		})
	} else {
		err = s.repo.Update(ctx, svc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}

	s.content.removeOrphans(ctx, before, s.content.hostedImages([]string{svc.Icon, svc.Image}, svc.Content))
	svc.ResolveURLs(s.baseURL)
	return svc, nil
}

func (s *catalogService) DeleteService(ctx context.Context, id uint) error {
	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.content.removeImages(ctx, s.content.hostedImages([]string{svc.Icon, svc.Image}, svc.Content))
	s.log.Infow("service deleted", "id", id, "slug", svc.Slug)
	return nil
}

// BulkUpdate changes status, featured flag or category of many services at once.
func (s *catalogService) BulkUpdate(ctx context.Context, req domain.BulkUpdateRequest) (int64, error) {
	if len(req.ServiceIDs) == 0 {
		return 0, fmt.Errorf("%w: service ids are required", domain.ErrBadRequest)
	}
	if req.Update.Empty() {
		return 0, fmt.Errorf("%w: nothing to update", domain.ErrBadRequest)
	}
	n, err := s.repo.BulkUpdate(ctx, req.ServiceIDs, req.Update)
	if err != nil {
		return 0, err
	}
	s.log.Infow("services bulk updated", "requested", len(req.ServiceIDs), "modified", n)
	return n, nil
}

// RecordInquiry acknowledges interest in a service. Only existence is checked.
func (s *catalogService) RecordInquiry(ctx context.Context, serviceSlug string) error {
	svc, err := s.repo.GetBySlug(ctx, serviceSlug)
	if err != nil {
		return err
	}
	s.log.Infow("service inquiry", "service_id", svc.ID, "slug", svc.Slug)
	return nil
}

func (s *catalogService) Stats(ctx context.Context) (*domain.ServiceStats, error) {
	return s.repo.Stats(ctx)
}

func (s *catalogService) Taxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	return s.repo.Taxonomy(ctx)
}
