package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type GlobalConfig struct {
	AccessTokenTTL  int    // in minutes
	RefreshTokenTTL int    // in minutes
	ServerPort      string `validate:"required,numeric"`
	LogLevel        string `validate:"omitempty,oneof=debug info warn error"`
	LogFile         string // optional rotating file sink
}

func LoadGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		AccessTokenTTL:  GetEnvInt("ACCESS_TOKEN_TTL_MINUTES", 30),
		RefreshTokenTTL: GetEnvInt("REFRESH_TOKEN_TTL_MINUTES", 1440), // 1 day
		ServerPort:      GetEnv("SERVER_PORT"),
		LogLevel:        GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:         GetEnvOrDefault("LOG_FILE", ""),
	}
}

// LoadDotEnv loads a .env file for local development. The returned error only
// tells the caller that no file was found; process env still applies.
func LoadDotEnv() error {
	return godotenv.Load()
}

// Validate checks `validate` struct tags on a loaded config.
func Validate(cfg any) error {
	return validate.Struct(cfg)
}

// GetEnv retrieves the value of the environment variable named by the key.
func GetEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	panic("critical config missing: " + key)
}

// GetEnvOrDefault retrieves the value or returns default if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic("invalid integer config " + key + ": " + value)
	}
	return n
}

func GetEnvInt64(key string, defaultValue int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic("invalid integer config " + key + ": " + value)
	}
	return n
}
