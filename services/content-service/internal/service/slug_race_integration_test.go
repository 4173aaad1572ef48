//go:build integration

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/repository"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "cms",
			"POSTGRES_PASSWORD": "cms",
			"POSTGRES_DB":       "cms",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() { c.Terminate(ctx) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}
	dsn := fmt.Sprintf("host=%s port=%s user=cms password=cms dbname=cms sslmode=disable", host, port.Port())

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}
	if err := db.AutoMigrate(&domain.BlogPost{}, &domain.Service{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

func TestConcurrentCreatesGetDistinctSlugs(t *testing.T) {
	db := setupPostgres(t)
	svc := NewBlogService(repository.NewBlogRepository(db), &fakeImages{}, testConfig, testLog)
	ctx := context.Background()

	const writers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs = make(map[string]int)
		errs  []error
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			post, err := svc.CreateBlog(ctx, createReq("Launch Announcement"), 1, "editor")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			slugs[post.Slug]++
		}()
	}
	close(start)
	wg.Wait()

	for _, err := range errs {
		if !errors.Is(err, domain.ErrSlugTaken) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	for s, n := range slugs {
		if n != 1 {
			t.Fatalf("slug %q stored %d times", s, n)
		}
	}
	if len(slugs)+len(errs) != writers {
		t.Fatalf("%d stored + %d conflicts != %d writers", len(slugs), len(errs), writers)
	}
	if slugs["launch-announcement"] != 1 {
		t.Fatalf("base slug not used: %v", slugs)
	}
}

func TestTwoConcurrentCreatesBothSucceed(t *testing.T) {
	db := setupPostgres(t)
	svc := NewBlogService(repository.NewBlogRepository(db), &fakeImages{}, testConfig, testLog)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]string, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post, err := svc.CreateBlog(ctx, createReq("Twin"), 1, "editor")
			if err == nil {
				results[i] = post.Slug
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("CreateBlog: %v", err)
		}
	}
	got := map[string]bool{results[0]: true, results[1]: true}
	if !got["twin"] || !got["twin-1"] {
		t.Fatalf("slugs = %v, want twin and twin-1", results)
	}
}
