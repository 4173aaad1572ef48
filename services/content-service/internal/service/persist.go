package service

import (
	"context"
	"errors"
	"strings"

	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/pkg/slug"
	"agencysite.io/cms/services/content-service/internal/domain"
)

// checkTitle rejects titles that cannot produce a slug before any image is
// uploaded for the record.
func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return slug.ErrEmptyTitle
	}
	if slug.Normalize(title) == "" {
		return slug.ErrEmptySlug
	}
	return nil
}

// persistWithSlug resolves a slug for title and hands it to write. The
// resolver's existence check races with concurrent writers, so the unique
// index has the final say: on domain.ErrSlugTaken the slug is resolved again
// and the write retried once. A second conflict is returned to the caller.
func persistWithSlug(ctx context.Context, resolver *slug.Resolver, collection, title string, excludeID uint, write func(slug string) error) (string, error) {
	base := slug.Normalize(title)
	for attempt := 0; ; attempt++ {
		s, err := resolver.Resolve(ctx, title, excludeID)
		if err != nil {
			return "", err
		}
		if s != base {
			metrics.SlugCollisions.WithLabelValues(collection).Inc()
		}
		err = write(s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrSlugTaken) || attempt > 0 {
			return "", err
		}
		metrics.SlugConflictRetries.WithLabelValues(collection).Inc()
	}
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}

func stringsOrEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
