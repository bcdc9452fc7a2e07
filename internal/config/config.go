package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	// ErrMissingSecret is returned when SECRET_KEY is not configured.
	ErrMissingSecret = errors.New("SECRET_KEY must be set")
	// ErrInvalidInt is returned when an integer setting does not parse.
	ErrInvalidInt = errors.New("invalid integer setting")
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort     string
	MySQLDSN       string
	DBMaxOpenConns int
	DBMaxIdleConns int
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	// SecretKey signs access tokens. Never log it.
	SecretKey       string
	AccessTokenTTL  time.Duration
	HashConcurrency int
	LogLevel        string
	LogFormat       string
	SwaggerHost     string
	ResetDB         bool
}

// Load builds Config from the environment (and an optional .env file) with
// sensible defaults. It fails when the signing secret is missing so the
// process never runs with an empty key.
func Load() (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var parseErrs []error
	intEnv := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		return v
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		MySQLDSN:        getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/poketeams?charset=utf8mb4&parseTime=True&loc=UTC"),
		DBMaxOpenConns:  intEnv("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  intEnv("DB_MAX_IDLE_CONNS", 5),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         intEnv("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		SecretKey:       os.Getenv("SECRET_KEY"),
		AccessTokenTTL:  time.Duration(intEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		HashConcurrency: intEnv("HASH_CONCURRENCY", 0),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		SwaggerHost:     os.Getenv("SWAGGER_HOST"),
		ResetDB:         os.Getenv("RESET_DB") == "true",
	}

	if err := errors.Join(parseErrs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %s", c.AccessTokenTTL)
	}
	if c.HashConcurrency < 0 {
		return fmt.Errorf("HASH_CONCURRENCY must not be negative, got %d", c.HashConcurrency)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%w: %s=%q", ErrInvalidInt, key, v)
	}
	return parsed, nil
}
