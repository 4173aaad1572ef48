package service

import (
	"context"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"agencysite.io/cms/pkg/inlineimg"
	"agencysite.io/cms/pkg/metrics"
	"agencysite.io/cms/services/content-service/internal/adapter"
)

const wordsPerMinute = 200

// contentPipeline prepares editor HTML for storage and tracks the hosted
// images a record references.
type contentPipeline struct {
	rewriter *inlineimg.Rewriter
	images   adapter.ImageAdapter
	policy   *bluemonday.Policy
	log      *zap.SugaredLogger
}

func newContentPipeline(images adapter.ImageAdapter, concurrency int, log *zap.SugaredLogger) *contentPipeline {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()
	return &contentPipeline{
		rewriter: &inlineimg.Rewriter{Concurrency: concurrency, Logger: log},
		images:   images,
		policy:   policy,
		log:      log,
	}
}

// prepareHTML moves inline images to img-service, then sanitises the result.
func (p *contentPipeline) prepareHTML(ctx context.Context, raw string) string {
	out, rep := p.rewriter.RewriteReport(ctx, raw, p.images)
	if rep.Found > 0 {
		metrics.InlineImages.WithLabelValues("uploaded").Add(float64(rep.Uploaded))
		metrics.InlineImages.WithLabelValues("failed").Add(float64(len(rep.Failures)))
	}
	// images whose upload failed stay embedded, so hide their data URIs
	// from the sanitizer and put them back afterwards
	masked, restore := inlineimg.Preserve(out)
	return restore(p.policy.Sanitize(masked))
}

// externalize uploads a data URI field value. On failure the original value
// is kept, matching how inline images degrade.
func (p *contentPipeline) externalize(ctx context.Context, value string) string {
	value = strings.TrimSpace(value)
	url, err := inlineimg.ExternalizeDataURI(ctx, value, p.images)
	if err != nil {
		metrics.InlineImages.WithLabelValues("failed").Inc()
		p.log.Warnw("image field left embedded", "error", err)
		return value
	}
	if url != value {
		metrics.InlineImages.WithLabelValues("uploaded").Inc()
	}
	return url
}

// hostedImages lists the img-service images referenced by the given fields
// and HTML bodies.
func (p *contentPipeline) hostedImages(fields []string, bodies ...string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(u string) {
		if _, ok := p.images.HostedPath(u); ok && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	for _, f := range fields {
		add(f)
	}
	for _, b := range bodies {
		for _, src := range inlineimg.ImageSources(b) {
			add(src)
		}
	}
	return out
}

// removeImages deletes hosted images. Failures are logged only; the record
// change has already been committed.
func (p *contentPipeline) removeImages(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := p.images.Delete(ctx, u); err != nil {
			p.log.Warnw("failed to delete hosted image", "url", u, "error", err)
		}
	}
}

// removeOrphans deletes images present in before but not in after.
func (p *contentPipeline) removeOrphans(ctx context.Context, before, after []string) {
	keep := make(map[string]bool, len(after))
	for _, u := range after {
		keep[u] = true
	}
	var gone []string
	for _, u := range before {
		if !keep[u] {
			gone = append(gone, u)
		}
	}
	p.removeImages(ctx, gone)
}

// readingTime estimates minutes to read an HTML body at 200 words a minute.
// Only text nodes are counted.
func readingTime(body string) int {
	words := 0
	z := html.NewTokenizer(strings.NewReader(body))
	for tt := z.Next(); tt != html.ErrorToken; tt = z.Next() {
		if tt == html.TextToken {
			words += len(strings.Fields(string(z.Text())))
		}
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}
