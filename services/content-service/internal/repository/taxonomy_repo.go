package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"agencysite.io/cms/services/content-service/internal/domain"
)

// taxonomyRepository reads the distinct categories and tags of one table.
// Both collections store tags as text[] so no join table is involved.
type taxonomyRepository struct {
	db    *gorm.DB
	table string
}

func newTaxonomyRepository(db *gorm.DB, table string) *taxonomyRepository {
	return &taxonomyRepository{db: db, table: table}
}

// distinct runs one DISTINCT query per expression. where may be empty.
func (r *taxonomyRepository) distinct(ctx context.Context, categoryExpr, tagExpr, where string, args ...any) (*domain.Taxonomy, error) {
	categories, err := r.values(ctx, categoryExpr, where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	tags, err := r.values(ctx, tagExpr, where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return &domain.Taxonomy{Categories: categories, Tags: tags}, nil
}

func (r *taxonomyRepository) values(ctx context.Context, expr, where string, args ...any) ([]string, error) {
	sql := fmt.Sprintf("SELECT DISTINCT v FROM (SELECT %s AS v FROM %s", expr, r.table)
	if where != "" {
		sql += " WHERE " + where
	}
	sql += ") t WHERE v IS NOT NULL ORDER BY v"

	var out []string
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&out).Error; err != nil {
		return nil, err
	}
	return cleanStrings(out), nil
}
