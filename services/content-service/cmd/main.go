package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/logger"
	"agencysite.io/cms/pkg/middleware"
	"agencysite.io/cms/services/content-service/internal/adapter"
	"agencysite.io/cms/services/content-service/internal/config"
	"agencysite.io/cms/services/content-service/internal/domain"
	"agencysite.io/cms/services/content-service/internal/handler"
	"agencysite.io/cms/services/content-service/internal/repository"
	"agencysite.io/cms/services/content-service/internal/service"
)

func main() {
	conf := config.LoadContentConfig()
	zlog := logger.New("content-service", conf.LogLevel, conf.LogFile)
	defer zlog.Sync()

	db, err := gorm.Open(postgres.Open(conf.PostgreConnectionString), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	if conf.AutoMigrate {
		if err := db.AutoMigrate(&domain.BlogPost{}, &domain.Service{}); err != nil {
			log.Fatalf("failed to migrate db: %v", err)
		}
	}

	images := adapter.NewImageAdapter(conf)
	blogs := service.NewBlogService(repository.NewBlogRepository(db), images, conf, zlog)
	catalog := service.NewCatalogService(repository.NewServiceRepository(db), images, conf, zlog)

	// the gateway already refreshed the token; only validation happens here
	tokenManager := jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)

	r := handler.NewRouter(
		handler.NewBlogHandler(blogs),
		handler.NewServiceHandler(catalog),
		handler.NewUploadHandler(images),
		middleware.AuthMiddleware(tokenManager),
		zlog,
	)

	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		zlog.Infow("content-service listening", "port", conf.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("graceful shutdown failed", "error", err)
	}
}
