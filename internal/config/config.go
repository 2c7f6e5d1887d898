package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/workforce/internal/auth"
	"github.com/dennisdiepolder/workforce/internal/storage"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the server
type Config struct {
	Port           string
	AllowedOrigins []string
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	LogLevel       string
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Env "development" accepts unsigned JWTs. Anything else verifies them.
	Env            string
	StoreBackend   storage.Backend
	DiskPath       string
	DatabaseURL    string
	RedisAddr      string // empty disables fanout
	ResyncInterval time.Duration
	InstanceID     string

	SkipAuth           bool
	OIDCIssuer         string
	VerifyJWTSignature bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Env:            getEnv("ENV", "production"),
		DiskPath:       getEnv("DISK_PATH", "./data"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		InstanceID:     getEnv("INSTANCE_ID", uuid.NewString()),
		OIDCIssuer:     getEnv("OIDC_ISSUER", ""),
		SkipAuth:       getEnv("SKIP_AUTH", "false") == "true",

		VerifyJWTSignature: getEnv("VERIFY_JWT_SIGNATURE", "false") == "true",
	}

	backend := storage.Backend(getEnv("STORE_BACKEND", string(storage.BackendMemory)))
	switch backend {
	case storage.BackendMemory, storage.BackendDisk, storage.BackendDynamo, storage.BackendPostgres:
		config.StoreBackend = backend
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}
	if backend == storage.BackendPostgres && config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	resync, err := strconv.Atoi(getEnv("RESYNC_INTERVAL", "60"))
	if err != nil || resync <= 0 {
		return nil, fmt.Errorf("invalid RESYNC_INTERVAL: %q", os.Getenv("RESYNC_INTERVAL"))
	}
	config.ResyncInterval = time.Duration(resync) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// StoreOptions maps the config onto the record store factory
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Backend:     c.StoreBackend,
		DiskPath:    c.DiskPath,
		DatabaseURL: c.DatabaseURL,
		Dynamo:      storage.LoadDynamoConfig(),
	}
}

// AuthConfig maps the config onto token verification settings
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		SkipAuth:        c.SkipAuth,
		Env:             c.Env,
		VerifySignature: c.VerifyJWTSignature,
		Issuer:          c.OIDCIssuer,
	}
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
