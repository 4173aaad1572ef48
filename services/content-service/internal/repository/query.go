package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"agencysite.io/cms/services/content-service/internal/domain"
)

const pgUniqueViolation = "23505"

// translate maps storage errors onto domain sentinels and wraps the rest.
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("failed to %s: %w", action, domain.ErrSlugTaken)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// listSpec describes how a collection maps the generic ListQuery onto columns.
type listSpec struct {
	searchColumns []string
	sortColumns   map[string]string
	defaultSort   string
	// categoryClause filters by one category; blog posts hold an array.
	categoryClause string
	hasFeatured    bool
}

// filter applies the WHERE part of q. It is shared by the count and the page query.
func (s listSpec) filter(db *gorm.DB, q domain.ListQuery) *gorm.DB {
	if q.Status != "" && q.Status != domain.StatusAll {
		db = db.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		db = db.Where(s.categoryClause, q.Category)
	}
	if q.Tag != "" {
		db = db.Where("? = ANY(tags)", q.Tag)
	}
	if q.Featured != nil && s.hasFeatured {
		db = db.Where("featured = ?", *q.Featured)
	}
	if q.Search != "" && len(s.searchColumns) > 0 {
		like := "%" + escapeLike(q.Search) + "%"
		conds := make([]string, len(s.searchColumns))
		args := make([]any, len(s.searchColumns))
		for i, col := range s.searchColumns {
			conds[i] = col + " ILIKE ?"
			args[i] = like
		}
		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	return db
}

// order returns a whitelisted ORDER BY expression for q.
func (s listSpec) order(q domain.ListQuery) string {
	col, ok := s.sortColumns[q.SortBy]
	if !ok {
		col = s.defaultSort
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	return col + " " + dir + " NULLS LAST, id DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// cleanStrings drops blank entries from a distinct-values query.
func cleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
