package config

import (
	"log"

	"agencysite.io/cms/pkg/config"
)

// AuthConfig extends GlobalConfig with any auth-service specific configurations.
type AuthConfig struct {
	config.GlobalConfig
	JWTSecretKey            string `validate:"required,min=16"`
	PostgreConnectionString string `validate:"required"`
	RedisDBURL              string `validate:"required"`
	RedisDBPort             string `validate:"required,numeric"`
	RedisDBPassword         string
	RedisMaxRetries         int
	RedisPoolSize           int
	LoginRatePerMinute      int  `validate:"min=1"`
	LoginBurst              int  `validate:"min=1"`
	SecureCookies           bool // set the Secure flag on the refresh cookie
}

func LoadAuthConfig() *AuthConfig {
	// Load .env file for local development
	if err := config.LoadDotEnv(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	conf := &AuthConfig{
		GlobalConfig:            *config.LoadGlobalConfig(),
		JWTSecretKey:            config.GetEnv("JWT_SECRET_KEY"),
		PostgreConnectionString: config.GetEnv("POSTGRE_CONNECTION_STRING"),
		RedisDBURL:              config.GetEnv("REDIS_DB_URL"),
		RedisDBPort:             config.GetEnv("REDIS_DB_PORT"),
		RedisDBPassword:         config.GetEnvOrDefault("REDIS_DB_PASSWORD", ""),
		RedisMaxRetries:         3,
		RedisPoolSize:           10,
		LoginRatePerMinute:      config.GetEnvInt("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:              config.GetEnvInt("LOGIN_BURST", 5),
		SecureCookies:           config.GetEnvOrDefault("SECURE_COOKIES", "true") == "true",
	}
	if err := config.Validate(conf); err != nil {
		log.Fatalf("invalid auth-service config: %v", err)
	}
	return conf
}
