package config

import (
	"log"

	"agencysite.io/cms/pkg/config"
)

const (
	BackendLocal = "local"
	BackendAzure = "azure"
	BackendS3    = "s3"
)

type ImgConfig struct {
	config.GlobalConfig
	StorageBackend string `validate:"required,oneof=local azure s3"`
	JWTSecretKey   string `validate:"required"`
	MaxUploadBytes int64  `validate:"min=1"`
	MaxWidth       int    `validate:"min=0"` // 0 disables down-scaling

	LocalDir string `validate:"required_if=StorageBackend local"`

	AzureStorageConnectionString string `validate:"required_if=StorageBackend azure"`
	BlobContainerName            string `validate:"required_if=StorageBackend azure"`

	S3Endpoint  string `validate:"omitempty,url"`
	S3Region    string `validate:"required_if=StorageBackend s3"`
	S3Bucket    string `validate:"required_if=StorageBackend s3"`
	S3AccessKey string `validate:"required_if=StorageBackend s3"`
	S3SecretKey string `validate:"required_if=StorageBackend s3"`
}

func LoadImgConfig() *ImgConfig {
	// Load .env file for local development
	if err := config.LoadDotEnv(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	conf := &ImgConfig{
		GlobalConfig:   *config.LoadGlobalConfig(),
		StorageBackend: config.GetEnvOrDefault("IMG_STORAGE_BACKEND", BackendLocal),
		JWTSecretKey:   config.GetEnv("JWT_SECRET_KEY"),
		MaxUploadBytes: config.GetEnvInt64("IMG_MAX_UPLOAD_BYTES", 10<<20),
		MaxWidth:       config.GetEnvInt("IMG_MAX_WIDTH", 1920),

		LocalDir: config.GetEnvOrDefault("IMG_LOCAL_DIR", "./uploads"),

		AzureStorageConnectionString: config.GetEnvOrDefault("AZURE_STORAGE_CONNECTION_STRING", ""),
		BlobContainerName:            config.GetEnvOrDefault("BLOB_CONTAINER_NAME", ""),

		S3Endpoint:  config.GetEnvOrDefault("S3_ENDPOINT", ""),
		S3Region:    config.GetEnvOrDefault("S3_REGION", ""),
		S3Bucket:    config.GetEnvOrDefault("S3_BUCKET", ""),
		S3AccessKey: config.GetEnvOrDefault("S3_ACCESS_KEY", ""),
		S3SecretKey: config.GetEnvOrDefault("S3_SECRET_KEY", ""),
	}
	if err := config.Validate(conf); err != nil {
		log.Fatalf("invalid img-service config: %v", err)
	}
	return conf
}
