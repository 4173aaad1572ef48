package config

import (
	"log"
	"strings"

	"agencysite.io/cms/pkg/config"
)

type ContentConfig struct {
	config.GlobalConfig
	PostgreConnectionString string `validate:"required"`
	ImageServiceURL         string `validate:"required,url"`  // internal img-service base URL
	PublicBaseURL           string `validate:"omitempty,url"` // prefix for relative image paths in responses
	JWTSecretKey            string `validate:"required"`
	ImageUploadConcurrency  int    `validate:"min=1,max=32"`
	AutoMigrate             bool
}

func LoadContentConfig() *ContentConfig {
	// Load .env file for local development
	if err := config.LoadDotEnv(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	conf := &ContentConfig{
		GlobalConfig:            *config.LoadGlobalConfig(),
		PostgreConnectionString: config.GetEnv("POSTGRE_CONNECTION_STRING"),
		ImageServiceURL:         strings.TrimRight(config.GetEnv("IMAGE_SERVICE_URL"), "/"),
		PublicBaseURL:           strings.TrimRight(config.GetEnvOrDefault("PUBLIC_BASE_URL", ""), "/"),
		JWTSecretKey:            config.GetEnv("JWT_SECRET_KEY"),
		ImageUploadConcurrency:  config.GetEnvInt("IMAGE_UPLOAD_CONCURRENCY", 4),
		AutoMigrate:             config.GetEnvOrDefault("DB_AUTO_MIGRATE", "true") == "true",
	}
	if err := config.Validate(conf); err != nil {
		log.Fatalf("invalid content-service config: %v", err)
	}
	return conf
}
