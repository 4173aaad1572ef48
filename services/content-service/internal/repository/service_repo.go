package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"agencysite.io/cms/services/content-service/internal/domain"
)

var serviceList = listSpec{
	searchColumns: []string{"title", "short_description", "description"},
	sortColumns: map[string]string{
		"createdAt":  "created_at",
		"created_at": "created_at",
		"updatedAt":  "updated_at",
		"updated_at": "updated_at",
		"title":      "title",
		"category":   "category",
		"featured":   "featured",
	},
	defaultSort:    "created_at",
	categoryClause: "category = ?",
	hasFeatured:    true,
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) domain.ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, svc *domain.Service) error {
	return translate(r.db.WithContext(ctx).Create(svc).Error, "create service")
}

func (r *serviceRepository) GetByID(ctx context.Context, id uint) (*domain.Service, error) {
	var svc domain.Service
	if err := r.db.WithContext(ctx).First(&svc, id).Error; err != nil {
		return nil, translate(err, "get service")
	}
	return &svc, nil
}

func (r *serviceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Service, error) {
	var svc domain.Service
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&svc).Error; err != nil {
		return nil, translate(err, "get service")
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context, q domain.ListQuery) ([]*domain.Service, int64, error) {
	var total int64
	if err := serviceList.filter(r.db.WithContext(ctx).Model(&domain.Service{}), q).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count services")
	}
	var services []*domain.Service
	err := serviceList.filter(r.db.WithContext(ctx).Model(&domain.Service{}), q).
		Omit("content").
		Order(serviceList.order(q)).
		Limit(q.Limit).
		Offset(q.Offset()).
		Find(&services).Error
	if err != nil {
		return nil, 0, translate(err, "list services")
	}
	return services, total, nil
}

func (r *serviceRepository) Update(ctx context.Context, svc *domain.Service) error {
	svc.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(svc).Updates(map[string]interface{}{
		"title":             svc.Title,
		"slug":              svc.Slug,
		"description":       svc.Description,
		"content":           svc.Content,
		"short_description": svc.ShortDescription,
		"icon":              svc.Icon,
		"image":             svc.Image,
		"category":          svc.Category,
		"tags":              svc.Tags,
		"status":            svc.Status,
		"featured":          svc.Featured,
		"meta_title":        svc.MetaTitle,
		"meta_description":  svc.MetaDescription,
		"meta_keywords":     svc.MetaKeywords,
		"updated_at":        svc.UpdatedAt,
	})
	if result.Error != nil {
		return translate(result.Error, "update service")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *serviceRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Service{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete service")
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *serviceRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Service{}).
		Where("slug = ? AND id <> ?", slug, excludeID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "check service slug")
	}
	return count > 0, nil
}

// BulkUpdate applies the set fields of update to every listed service and
// returns the number of rows changed.
func (r *serviceRepository) BulkUpdate(ctx context.Context, ids []uint, update domain.BulkServiceUpdate) (int64, error) {
	values := map[string]interface{}{"updated_at": time.Now()}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.Featured != nil {
		values["featured"] = *update.Featured
	}
	if update.Category != nil {
		values["category"] = *update.Category
	}
	result := r.db.WithContext(ctx).Model(&domain.Service{}).Where("id IN ?", ids).Updates(values)
	if result.Error != nil {
		return 0, translate(result.Error, "bulk update services")
	}
	return result.RowsAffected, nil
}

func (r *serviceRepository) Stats(ctx context.Context) (*domain.ServiceStats, error) {
	row := struct {
		Total    int64
		Active   int64
		Draft    int64
		Featured int64
	}{}
	err := r.db.WithContext(ctx).Model(&domain.Service{}).Select(
		"COUNT(*) AS total, "+
			"COUNT(*) FILTER (WHERE status = ?) AS active, "+
			"COUNT(*) FILTER (WHERE status = ?) AS draft, "+
			"COUNT(*) FILTER (WHERE featured) AS featured",
		domain.ServiceStatusActive, domain.ServiceStatusDraft,
	).Scan(&row).Error
	if err != nil {
		return nil, translate(err, "aggregate service stats")
	}

	stats := &domain.ServiceStats{
		Total:    row.Total,
		Active:   row.Active,
		Draft:    row.Draft,
		Featured: row.Featured,
	}
	err = r.db.WithContext(ctx).Model(&domain.Service{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("count DESC, category").
		Scan(&stats.Categories).Error
	if err != nil {
		return nil, translate(err, "count services per category")
	}
	return stats, nil
}

func (r *serviceRepository) Taxonomy(ctx context.Context) (*domain.Taxonomy, error) {
	return newTaxonomyRepository(r.db, "services").distinct(ctx, "category", "unnest(tags)", "")
}
