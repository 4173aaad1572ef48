package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrSlugTaken  = errors.New("slug already in use")
	ErrBadRequest = errors.New("bad request")
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100

	// StatusAll disables the status filter.
	StatusAll = "all"
)

// ListQuery is the typed filter/sort/paginate contract for both collections.
// SortBy names are checked against a per-collection whitelist by the
// repository; unknown names fall back to the collection default.
type ListQuery struct {
	Status   string
	Category string
	Tag      string
	Search   string
	Featured *bool
	SortBy   string
	Desc     bool
	Page     int
	Limit    int
}

// Normalize clamps paging values and trims text filters.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	q.Status = strings.TrimSpace(q.Status)
	q.Category = strings.TrimSpace(q.Category)
	q.Tag = strings.TrimSpace(q.Tag)
	q.Search = strings.TrimSpace(q.Search)
	if q.Category == StatusAll {
		q.Category = ""
	}
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination describes page q.Page of a result set of total rows.
func NewPagination(q ListQuery, total int64) *Pagination {
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &Pagination{
		CurrentPage: q.Page,
		TotalPages:  pages,
		Total:       total,
		HasNext:     int64(q.Offset()+q.Limit) < total,
		HasPrev:     q.Page > 1,
	}
}

// Taxonomy lists the distinct categories and tags in use.
type Taxonomy struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}
