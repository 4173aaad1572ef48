package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"agencysite.io/cms/pkg/slug"
	"agencysite.io/cms/services/content-service/internal/domain"
)

const inlinePNG = `<img src="data:image/png;base64,AAAA">`

func newBlogFixture() (domain.BlogService, *memBlogRepo, *fakeImages) {
	repo := newMemBlogRepo()
	images := &fakeImages{}
	return NewBlogService(repo, images, testConfig, testLog), repo, images
}

func createReq(title string) domain.CreateBlogRequest {
	return domain.CreateBlogRequest{Title: title, Content: "<p>body</p>", Excerpt: "short"}
}

func TestCreateBlogRewritesInlineImages(t *testing.T) {
	svc, _, images := newBlogFixture()
	req := createReq("Pictures")
	req.Content = "<p>Hi</p>" + inlinePNG
	req.FeaturedImage = "data:image/jpeg;base64,AAAA"

	post, err := svc.CreateBlog(context.Background(), req, 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if strings.Contains(post.Content, "data:image/") {
		t.Fatalf("content still embeds images: %q", post.Content)
	}
	if !strings.Contains(post.Content, `src="/uploads/img-`) {
		t.Fatalf("content not pointing at hosted image: %q", post.Content)
	}
	if !strings.HasPrefix(post.FeaturedImage, "/uploads/") {
		t.Fatalf("featured image = %q", post.FeaturedImage)
	}
	if images.uploads != 2 {
		t.Fatalf("uploads = %d, want 2", images.uploads)
	}
}

func TestCreateBlogKeepsImagesWhenUploadFails(t *testing.T) {
	svc, _, images := newBlogFixture()
	images.fail = true
	req := createReq("Offline")
	req.Content = "<p>Hi</p>" + inlinePNG

	post, err := svc.CreateBlog(context.Background(), req, 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if !strings.Contains(post.Content, "data:image/png;base64,AAAA") {
		t.Fatalf("embedded image lost: %q", post.Content)
	}
}

func TestCreateBlogKeepsUndecodableImagesThroughSanitizer(t *testing.T) {
	svc, repo, images := newBlogFixture()
	images.fail = true
	req := createReq("Broken pictures")
	req.Content = `<p>a</p><img src="data:image/png;base64,@@@"><p>b</p>` + inlinePNG +
		`<img src="data:image/png;base64,AA AA" alt="wrapped"><script>alert(1)</script>`

	post, err := svc.CreateBlog(context.Background(), req, 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	stored := repo.posts[post.ID].Content
	for _, want := range []string{
		`src="data:image/png;base64,@@@"`,
		`src="data:image/png;base64,AAAA"`,
		`src="data:image/png;base64,AA AA"`,
		`alt="wrapped"`,
	} {
		if !strings.Contains(stored, want) {
			t.Errorf("stored content lost %s: %q", want, stored)
		}
	}
	if strings.Contains(stored, "<script") || strings.Contains(stored, "/inline-image/") {
		t.Fatalf("sanitizer output not clean: %q", stored)
	}
}

func TestCreateBlogSlugSuffix(t *testing.T) {
	svc, _, _ := newBlogFixture()
	ctx := context.Background()

	want := []string{"my-post", "my-post-1", "my-post-2"}
	for _, w := range want {
		post, err := svc.CreateBlog(ctx, createReq("My Post"), 1, "editor")
		if err != nil {
			t.Fatalf("CreateBlog: %v", err)
		}
		if post.Slug != w {
			t.Fatalf("slug = %q, want %q", post.Slug, w)
		}
	}
}

func TestCreateBlogIgnoresUnusableTitle(t *testing.T) {
	svc, repo, images := newBlogFixture()
	req := createReq("!!!")
	req.Content = inlinePNG

	_, err := svc.CreateBlog(context.Background(), req, 1, "editor")
	if !slug.IsValidation(err) {
		t.Fatalf("err = %v, want slug validation error", err)
	}
	if images.uploads != 0 {
		t.Fatalf("images uploaded for rejected post")
	}
	if repo.checks != 0 || len(repo.posts) != 0 {
		t.Fatalf("repository touched for rejected post")
	}
}

func TestCreateBlogRetriesOnceOnSlugConflict(t *testing.T) {
	svc, repo, _ := newBlogFixture()
	ctx := context.Background()
	if _, err := svc.CreateBlog(ctx, createReq("Race Post"), 1, "a"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// the next existence check misses the committed row
	repo.blindChecks = 1
	repo.checks = 0
	post, err := svc.CreateBlog(ctx, createReq("Race Post"), 2, "b")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if post.Slug != "race-post-1" {
		t.Fatalf("slug = %q, want race-post-1", post.Slug)
	}
	if repo.checks != 3 {
		t.Fatalf("existence checks = %d, want 3", repo.checks)
	}
}

func TestCreateBlogGivesUpAfterSecondConflict(t *testing.T) {
	svc, repo, _ := newBlogFixture()
	repo.conflictAlways = true

	_, err := svc.CreateBlog(context.Background(), createReq("Contended"), 1, "a")
	if !errors.Is(err, domain.ErrSlugTaken) {
		t.Fatalf("err = %v, want ErrSlugTaken", err)
	}
}

func TestCreateBlogDefaults(t *testing.T) {
	svc, _, _ := newBlogFixture()
	title := strings.Repeat("Long title ", 8)
	req := createReq(title)
	req.Excerpt = strings.Repeat("é", 200)
	req.Status = domain.BlogStatusPublished
	req.Content = "<p>" + strings.Repeat("word ", 450) + "</p>"

	post, err := svc.CreateBlog(context.Background(), req, 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if n := utf8.RuneCountInString(post.MetaTitle); n == 0 || n > 60 {
		t.Errorf("meta title has %d runes", n)
	}
	if n := utf8.RuneCountInString(post.MetaDescription); n != 160 {
		t.Errorf("meta description has %d runes, want 160", n)
	}
	if post.PublishedAt == nil {
		t.Error("published_at not set for published post")
	}
	if post.ReadingTime != 3 {
		t.Errorf("reading time = %d, want 3", post.ReadingTime)
	}
	if string(post.StructuredData) != "{}" {
		t.Errorf("structured data = %s", post.StructuredData)
	}
}

func TestDraftHasNoPublishedAt(t *testing.T) {
	svc, _, _ := newBlogFixture()
	post, err := svc.CreateBlog(context.Background(), createReq("Draft"), 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	if post.Status != domain.BlogStatusDraft || post.PublishedAt != nil {
		t.Fatalf("status %q published_at %v", post.Status, post.PublishedAt)
	}
}

func TestUpdateBlogSlugOnlyOnTitleChange(t *testing.T) {
	svc, repo, _ := newBlogFixture()
	ctx := context.Background()
	post, err := svc.CreateBlog(ctx, createReq("Original"), 1, "editor")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}

	repo.checks = 0
	excerpt := "new excerpt"
	updated, err := svc.UpdateBlog(ctx, post.ID, domain.UpdateBlogRequest{Excerpt: &excerpt})
	if err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	if updated.Slug != "original" || repo.checks != 0 {
		t.Fatalf("slug %q, checks %d; want unchanged slug and no checks", updated.Slug, repo.checks)
	}

	// a new title that normalises to the same slug keeps it: the post's own id is excluded
	same := "Original!"
	updated, err = svc.UpdateBlog(ctx, post.ID, domain.UpdateBlogRequest{Title: &same})
	if err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	if updated.Slug != "original" {
		t.Fatalf("slug = %q, want original", updated.Slug)
	}

	renamed := "Renamed Post"
	updated, err = svc.UpdateBlog(ctx, post.ID, domain.UpdateBlogRequest{Title: &renamed})
	if err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	if updated.Slug != "renamed-post" {
		t.Fatalf("slug = %q, want renamed-post", updated.Slug)
	}
}

func TestUpdateBlogRenameIntoTakenSlug(t *testing.T) {
	svc, _, _ := newBlogFixture()
	ctx := context.Background()
	if _, err := svc.CreateBlog(ctx, createReq("Taken"), 1, "a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	post, err := svc.CreateBlog(ctx, createReq("Other"), 1, "a")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	title := "Taken"
	updated, err := svc.UpdateBlog(ctx, post.ID, domain.UpdateBlogRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	if updated.Slug != "taken-1" {
		t.Fatalf("slug = %q, want taken-1", updated.Slug)
	}
}

func TestUpdateBlogRemovesOrphanedImages(t *testing.T) {
	svc, _, images := newBlogFixture()
	ctx := context.Background()
	req := createReq("With Image")
	req.Content = inlinePNG
	post, err := svc.CreateBlog(ctx, req, 1, "a")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}
	old := post.Content

	content := "<p>no images now</p>"
	if _, err := svc.UpdateBlog(ctx, post.ID, domain.UpdateBlogRequest{Content: &content}); err != nil {
		t.Fatalf("UpdateBlog: %v", err)
	}
	deleted := images.deletedSorted()
	if len(deleted) != 1 || !strings.Contains(old, deleted[0]) {
		t.Fatalf("deleted = %v, old content %q", deleted, old)
	}
}

func TestDeleteBlogRemovesHostedImages(t *testing.T) {
	svc, repo, images := newBlogFixture()
	ctx := context.Background()
	req := createReq("Gallery")
	req.Content = inlinePNG + `<img src="https://elsewhere.example/x.png">`
	req.FeaturedImage = "data:image/png;base64,AAAA"
	post, err := svc.CreateBlog(ctx, req, 1, "a")
	if err != nil {
		t.Fatalf("CreateBlog: %v", err)
	}

	if err := svc.DeleteBlog(ctx, post.ID); err != nil {
		t.Fatalf("DeleteBlog: %v", err)
	}
	if len(repo.posts) != 0 {
		t.Fatal("post still stored")
	}
	if got := images.deletedSorted(); len(got) != 2 {
		t.Fatalf("deleted = %v, want the two hosted images", got)
	}
	if err := svc.DeleteBlog(ctx, post.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestGetPublishedBySlug(t *testing.T) {
	svc, _, _ := newBlogFixture()
	ctx := context.Background()
	if _, err := svc.CreateBlog(ctx, createReq("Hidden"), 1, "a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.GetPublishedBySlug(ctx, "hidden"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("draft err = %v, want ErrNotFound", err)
	}

	req := createReq("Visible")
	req.Status = domain.BlogStatusPublished
	if _, err := svc.CreateBlog(ctx, req, 1, "a"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	first, err := svc.GetPublishedBySlug(ctx, "visible")
	if err != nil {
		t.Fatalf("GetPublishedBySlug: %v", err)
	}
	second, err := svc.GetPublishedBySlug(ctx, "visible")
	if err != nil {
		t.Fatalf("GetPublishedBySlug: %v", err)
	}
	if first.Views != 1 || second.Views != 2 {
		t.Fatalf("views = %d, %d; want 1, 2", first.Views, second.Views)
	}
}

func TestListBlogsPagination(t *testing.T) {
	svc, _, _ := newBlogFixture()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if _, err := svc.CreateBlog(ctx, createReq(fmt.Sprintf("Post %d", i)), 1, "a"); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	posts, page, err := svc.ListBlogs(ctx, domain.ListQuery{Status: domain.StatusAll, Page: 3, Limit: 10})
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if len(posts) != 5 {
		t.Fatalf("len = %d, want 5", len(posts))
	}
	want := domain.Pagination{CurrentPage: 3, TotalPages: 3, Total: 25, HasNext: false, HasPrev: true}
	if *page != want {
		t.Fatalf("pagination = %+v, want %+v", *page, want)
	}

	_, page, err = svc.ListBlogs(ctx, domain.ListQuery{Status: domain.StatusAll})
	if err != nil {
		t.Fatalf("ListBlogs: %v", err)
	}
	if page.CurrentPage != 1 || !page.HasNext || page.HasPrev {
		t.Fatalf("default pagination = %+v", *page)
	}
}
