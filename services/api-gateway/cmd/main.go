package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agencysite.io/cms/pkg/jwt"
	"agencysite.io/cms/pkg/logger"
	"agencysite.io/cms/services/api-gateway/internal/client"
	"agencysite.io/cms/services/api-gateway/internal/config"
	"agencysite.io/cms/services/api-gateway/internal/handler"
	internalmw "agencysite.io/cms/services/api-gateway/internal/middleware"
	"agencysite.io/cms/services/api-gateway/internal/proxy"
)

func main() {
	conf := config.LoadGatewayConfig()
	zlog := logger.New("api-gateway", conf.LogLevel, conf.LogFile)
	defer zlog.Sync()

	table, err := proxy.NewTable([]proxy.Route{
		{Prefix: "/api/blog", Target: conf.ContentServiceURL, Rewrite: "/blog"},
		{Prefix: "/api/services", Target: conf.ContentServiceURL, Rewrite: "/services"},
		{Prefix: "/api/auth", Target: conf.AuthServiceURL},
		{Prefix: "/uploads", Target: conf.ImgServiceURL, Rewrite: "/uploads"},
	}, zlog)
	if err != nil {
		log.Fatalf("failed to build routing table: %v", err)
	}

	tokenManager := jwt.NewTokenManagerWithoutRedis(conf.JWTSecretKey)
	refresh := internalmw.AuthOrRefreshMiddleware(tokenManager, client.NewAuthClient(conf.AuthServiceURL, 3*time.Second), internalmw.RefreshOptions{
		AccessTokenTTL:  time.Duration(conf.AccessTokenTTL) * time.Minute,
		RefreshTokenTTL: time.Duration(conf.RefreshTokenTTL) * time.Minute,
		SecureCookies:   conf.SecureCookies,
	}, zlog)
	r := handler.NewRouter(table, refresh, conf.CORSOrigins, zlog)

	srv := &http.Server{
		Addr:              ":" + conf.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Infow("api-gateway listening", "port", conf.ServerPort)
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
