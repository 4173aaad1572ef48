package config

import (
	"log"
	"strings"

	"agencysite.io/cms/pkg/config"
)

// GatewayConfig extends GlobalConfig with the upstream service addresses.
type GatewayConfig struct {
	config.GlobalConfig
	AuthServiceURL    string   `validate:"required,url"`
	ContentServiceURL string   `validate:"required,url"`
	ImgServiceURL     string   `validate:"required,url"`
	JWTSecretKey      string   `validate:"required"`
	CORSOrigins       []string `validate:"dive,url"`
	SecureCookies     bool
}

func LoadGatewayConfig() *GatewayConfig {
	// Load .env file for local development
	if err := config.LoadDotEnv(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	conf := &GatewayConfig{
		GlobalConfig:      *config.LoadGlobalConfig(),
		AuthServiceURL:    config.GetEnv("AUTH_SERVICE_URL"),
		ContentServiceURL: config.GetEnv("CONTENT_SERVICE_URL"),
		ImgServiceURL:     config.GetEnv("IMG_SERVICE_URL"),
		JWTSecretKey:      config.GetEnv("JWT_SECRET_KEY"),
		CORSOrigins:       splitList(config.GetEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
		SecureCookies:     config.GetEnvOrDefault("SECURE_COOKIES", "true") == "true",
	}
	if err := config.Validate(conf); err != nil {
		log.Fatalf("invalid api-gateway config: %v", err)
	}
	return conf
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
