package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"agencysite.io/cms/pkg/logger"
	"agencysite.io/cms/services/content-service/internal/config"
	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/model"
)

var testConfig = &config.ContentConfig{ImageUploadConcurrency: 2, PublicBaseURL: "https://site.test"}

var testLog = logger.Nop()

// fakeImages stands in for img-service.
type fakeImages struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	fail    bool
}

func (f *fakeImages) Upload(_ context.Context, _ []byte, subtype string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("img-service down")
	}
	f.uploads++
	return fmt.Sprintf("/uploads/img-%d.%s", f.uploads, subtype), nil
}

func (f *fakeImages) UploadFile(ctx context.Context, _ string, r io.Reader) (*model.UploadImageResponse, error) {
	data, _ := io.ReadAll(r)
	url, err := f.Upload(ctx, data, "png")
	if err != nil {
		return nil, err
	}
	return &model.UploadImageResponse{Success: true, ImageURL: url, Filename: strings.TrimPrefix(url, "/uploads/")}, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

func (f *fakeImages) HostedPath(url string) (string, bool) {
	if strings.HasPrefix(url, "/uploads/") {
		return url, true
	}
	return "", false
}

func (f *fakeImages) deletedSorted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.deleted...)
	sort.Strings(out)
	return out
}

// memBlogRepo is an in-memory BlogRepository with a unique slug index.
type memBlogRepo struct {
	mu     sync.Mutex
	posts  map[uint]*domain.BlogPost
	nextID uint
	// blindChecks makes SlugExists answer false this many times, as if
	// another writer committed between the check and the insert.
	blindChecks int
	// conflictAlways makes every write fail with ErrSlugTaken.
	conflictAlways bool
	checks         int
}

func newMemBlogRepo() *memBlogRepo {
	return &memBlogRepo{posts: make(map[uint]*domain.BlogPost)}
}

func (r *memBlogRepo) slugTakenLocked(slug string, excludeID uint) bool {
	for id, p := range r.posts {
		if p.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *memBlogRepo) Create(_ context.Context, post *domain.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictAlways || r.slugTakenLocked(post.Slug, 0) {
		return fmt.Errorf("failed to create blog post: %w", domain.ErrSlugTaken)
	}
	r.nextID++
	post.ID = r.nextID
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memBlogRepo) GetByID(_ context.Context, id uint) (*domain.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memBlogRepo) GetBySlug(_ context.Context, slug string) (*domain.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memBlogRepo) List(_ context.Context, q domain.ListQuery) ([]*domain.BlogPost, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*domain.BlogPost
	for _, p := range r.posts {
		if q.Status != "" && q.Status != domain.StatusAll && p.Status != q.Status {
			continue
		}
		cp := *p
		cp.Content = ""
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := q.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memBlogRepo) Update(_ context.Context, post *domain.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.conflictAlways || r.slugTakenLocked(post.Slug, post.ID) {
		return fmt.Errorf("failed to update blog post: %w", domain.ErrSlugTaken)
	}
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *memBlogRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *memBlogRepo) SlugExists(_ context.Context, slug string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks++
	if r.blindChecks > 0 {
		r.blindChecks--
		return false, nil
	}
	return r.slugTakenLocked(slug, excludeID), nil
}

func (r *memBlogRepo) IncrementViews(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Views++
	return nil
}

func (r *memBlogRepo) Stats(context.Context) (*domain.BlogStats, error) {
	return &domain.BlogStats{}, nil
}

func (r *memBlogRepo) Taxonomy(context.Context) (*domain.Taxonomy, error) {
	return &domain.Taxonomy{}, nil
}

// memServiceRepo is the services counterpart of memBlogRepo.
type memServiceRepo struct {
	mu       sync.Mutex
	services map[uint]*domain.Service
	nextID   uint
}

func newMemServiceRepo() *memServiceRepo {
	return &memServiceRepo{services: make(map[uint]*domain.Service)}
}

func (r *memServiceRepo) takenLocked(slug string, excludeID uint) bool {
	for id, s := range r.services {
		if s.Slug == slug && id != excludeID {
			return true
		}
	}
	return false
}

func (r *memServiceRepo) Create(_ context.Context, svc *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.takenLocked(svc.Slug, 0) {
		return domain.ErrSlugTaken
	}
	r.nextID++
	svc.ID = r.nextID
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

func (r *memServiceRepo) GetByID(_ context.Context, id uint) (*domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memServiceRepo) GetBySlug(_ context.Context, slug string) (*domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.services {
		if s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memServiceRepo) List(_ context.Context, q domain.ListQuery) ([]*domain.Service, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Service
	for _, s := range r.services {
		if q.Status != "" && q.Status != domain.StatusAll && s.Status != q.Status {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memServiceRepo) Update(_ context.Context, svc *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[svc.ID]; !ok {
		return domain.ErrNotFound
	}
	if r.takenLocked(svc.Slug, svc.ID) {
		return domain.ErrSlugTaken
	}
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

func (r *memServiceRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *memServiceRepo) SlugExists(_ context.Context, slug string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.takenLocked(slug, excludeID), nil
}

func (r *memServiceRepo) BulkUpdate(_ context.Context, ids []uint, u domain.BulkServiceUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		s, ok := r.services[id]
		if !ok {
			continue
		}
		if u.Status != nil {
			s.Status = *u.Status
		}
		if u.Featured != nil {
			s.Featured = *u.Featured
		}
		if u.Category != nil {
			s.Category = *u.Category
		}
		n++
	}
	return n, nil
}

func (r *memServiceRepo) Stats(context.Context) (*domain.ServiceStats, error) {
	return &domain.ServiceStats{}, nil
}

func (r *memServiceRepo) Taxonomy(context.Context) (*domain.Taxonomy, error) {
	return &domain.Taxonomy{}, nil
}
