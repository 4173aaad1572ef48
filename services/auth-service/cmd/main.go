package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/logger"
	"agencysite.io/cms/pkg/middleware"
	"agencysite.io/cms/services/auth-service/internal/config"
	"agencysite.io/cms/services/auth-service/internal/domain"
	"agencysite.io/cms/services/auth-service/internal/handler"
	"agencysite.io/cms/services/auth-service/internal/repository"
	"agencysite.io/cms/services/auth-service/internal/service"
)

func main() {
	conf := config.LoadAuthConfig()
	zlog := logger.New("auth-service", conf.LogLevel, conf.LogFile)
	defer zlog.Sync()

	db, err := gorm.Open(postgres.Open(conf.PostgreConnectionString), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	// Auto-migrate User model
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%s", conf.RedisDBURL, conf.RedisDBPort),
		Password:   conf.RedisDBPassword,
		DB:         0, // use default DB
		MaxRetries: conf.RedisMaxRetries,
		PoolSize:   conf.RedisPoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zlog.Warnw("redis unreachable, refresh token revocation will fail", "error", err)
	}
	cancel()

	tokenManager := jwt.NewTokenManager(conf.JWTSecretKey, redisClient)
	svc := service.NewAuthService(repository.NewUserRepository(db), tokenManager, service.Options{
		AccessTokenTTL:  time.Duration(conf.AccessTokenTTL) * time.Minute,
		RefreshTokenTTL: time.Duration(conf.RefreshTokenTTL) * time.Minute,
	}, zlog)
	h := handler.NewAuthHandler(svc, conf.RefreshTokenTTL*60, conf.SecureCookies)

	limiter := middleware.NewIPRateLimiter(context.Background(), conf.LoginRatePerMinute, conf.LoginBurst, 10*time.Minute)
	r := handler.NewRouter(h, middleware.AuthMiddleware(tokenManager), limiter.Middleware(), zlog)

	zlog.Infow("auth-service listening", "port", conf.ServerPort)
	if err := r.Run(":" + conf.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
