package main

import (
	"context"
	"log"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/logger"
	"agencysite.io/cms/pkg/middleware"
	"agencysite.io/cms/services/img-service/internal/config"
	"agencysite.io/cms/services/img-service/internal/domain"
	"agencysite.io/cms/services/img-service/internal/handler"
	"agencysite.io/cms/services/img-service/internal/repository"
	"agencysite.io/cms/services/img-service/internal/service"
)

func handleError(err error) {
	if err != nil {
		log.Fatal(err.Error())
	}
}

func newRepository(ctx context.Context, conf *config.ImgConfig) (domain.ImgRepository, error) {
	switch conf.StorageBackend {
	case config.BackendAzure:
		return repository.NewAzureRepository(ctx, conf.AzureStorageConnectionString, conf.BlobContainerName)
	case config.BackendS3:
		return repository.NewS3Repository(repository.S3Options{
			Endpoint:  conf.S3Endpoint,
			Region:    conf.S3Region,
			Bucket:    conf.S3Bucket,
			AccessKey: conf.S3AccessKey,
			SecretKey: conf.S3SecretKey,
		}), nil
	default:
		return repository.NewLocalRepository(conf.LocalDir)
	}
}

func main() {
	conf := config.LoadImgConfig()
	zlog := logger.New("img-service", conf.LogLevel, conf.LogFile)
	defer zlog.Sync()

	imageRepo, err := newRepository(context.Background(), conf)
	handleError(err)
	imageService := service.NewImgService(imageRepo, service.Options{
		Backend:        conf.StorageBackend,
		MaxUploadBytes: conf.MaxUploadBytes,
		MaxWidth:       conf.MaxWidth,
	}, zlog)
	imageHandler := handler.NewImageHandler(imageService, conf.MaxUploadBytes)

	tokenManager := jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	r := handler.NewRouter(imageHandler, middleware.AuthMiddleware(tokenManager), zlog)

	zlog.Infow("img-service listening", "port", conf.ServerPort, "backend", conf.StorageBackend)
	if err := r.Run(":" + conf.ServerPort); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
