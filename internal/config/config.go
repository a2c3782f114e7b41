package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MinSecretBytes is the shortest signing secret accepted at startup.
const MinSecretBytes = 32

// Argon2 bounds. Hashes above MaxArgon2MemoryKB are refused on verification.
const (
	MinArgon2MemoryKB = 8 * 1024
	MaxArgon2MemoryKB = 4 * 1024 * 1024
	maxArgon2Time     = 1024
	maxArgon2Threads  = math.MaxUint8
	maxArgon2Length   = 1024
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Audit     AuditConfig
	Bootstrap BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	APIPrefix             string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token signing and password hashing parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTAlgorithm          string
	AccessTokenTTLMinutes int
	Argon2                Argon2Config

	// GeneratedSecret is set when no secret was configured and one was
	// generated for this process.
	GeneratedSecret bool
}

// Argon2Config holds Argon2id cost parameters.
type Argon2Config struct {
	MemoryKB   uint32
	Time       uint32
	Threads    uint8
	SaltLength uint32
	KeyLength  uint32
}

// AuditConfig controls where audit events are streamed.
type AuditConfig struct {
	Stream             string
	MaxLength          int64
	QueueSize          int
	WriteTimeoutMillis int
}

// BootstrapConfig describes the superuser created at startup.
type BootstrapConfig struct {
	SuperuserEmail    string
	SuperuserPassword string
	SuperuserFullName string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	argon2Cfg, err := loadArgon2()
	if err != nil {
		return nil, fmt.Errorf("argon2 parameters: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "contacts-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			APIPrefix:             strings.TrimRight(getEnv("API_V1_STR", "/api/v1"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			JWTAlgorithm:          strings.ToUpper(getEnv("AUTH_JWT_ALGORITHM", "HS256")),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60*24*8),
			Argon2:                argon2Cfg,
		},
		Audit: AuditConfig{
			Stream:             getEnv("AUDIT_STREAM", "auth:audit"),
			MaxLength:          int64(getEnvAsInt("AUDIT_STREAM_MAX_LENGTH", 10000)),
			QueueSize:          getEnvAsInt("AUDIT_QUEUE_SIZE", 256),
			WriteTimeoutMillis: getEnvAsInt("AUDIT_WRITE_TIMEOUT_MS", 500),
		},
		Bootstrap: BootstrapConfig{
			SuperuserEmail:    getEnv("FIRST_SUPERUSER", "admin@example.com"),
			SuperuserPassword: os.Getenv("FIRST_SUPERUSER_PASSWORD"),
			SuperuserFullName: getEnv("FIRST_SUPERUSER_FULL_NAME", "Administrator"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret(MinSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate AUTH_JWT_SECRET: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		cfg.Auth.GeneratedSecret = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot safely start with.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < MinSecretBytes {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinSecretBytes)
	}
	switch c.Auth.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported AUTH_JWT_ALGORITHM %q", c.Auth.JWTAlgorithm)
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		return errors.New("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	a := c.Auth.Argon2
	if a.MemoryKB < MinArgon2MemoryKB || a.Time < 1 || a.Threads < 1 {
		return errors.New("argon2 parameters below minimum (memory >= 8192 KB, time >= 1, threads >= 1)")
	}
	if a.MemoryKB > MaxArgon2MemoryKB {
		return fmt.Errorf("argon2 memory must be <= %d KB", MaxArgon2MemoryKB)
	}
	if a.SaltLength < 16 || a.KeyLength < 16 {
		return errors.New("argon2 salt and key length must be >= 16 bytes")
	}
	if !strings.HasPrefix(c.App.APIPrefix, "/") {
		return fmt.Errorf("API_V1_STR must start with '/': %q", c.App.APIPrefix)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// WriteTimeout bounds a single audit stream write.
func (a AuditConfig) WriteTimeout() time.Duration {
	if a.WriteTimeoutMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(a.WriteTimeoutMillis) * time.Millisecond
}

// AccessTokenTTL returns the default token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// loadArgon2 range-checks the raw values before narrowing them.
func loadArgon2() (Argon2Config, error) {
	memory, err := getEnvInRange("AUTH_ARGON2_MEMORY_KB", 64*1024, MinArgon2MemoryKB, MaxArgon2MemoryKB)
	if err != nil {
		return Argon2Config{}, err
	}
	iterations, err := getEnvInRange("AUTH_ARGON2_TIME", 3, 1, maxArgon2Time)
	if err != nil {
		return Argon2Config{}, err
	}
	threads, err := getEnvInRange("AUTH_ARGON2_THREADS", 2, 1, maxArgon2Threads)
	if err != nil {
		return Argon2Config{}, err
	}
	salt, err := getEnvInRange("AUTH_ARGON2_SALT_LENGTH", 16, 16, maxArgon2Length)
	if err != nil {
		return Argon2Config{}, err
	}
	key, err := getEnvInRange("AUTH_ARGON2_KEY_LENGTH", 32, 16, maxArgon2Length)
	if err != nil {
		return Argon2Config{}, err
	}
	return Argon2Config{
		MemoryKB:   uint32(memory),
		Time:       uint32(iterations),
		Threads:    uint8(threads),
		SaltLength: uint32(salt),
		KeyLength:  uint32(key),
	}, nil
}

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInRange(key string, fallback, lo, hi int) (int, error) {
	val := getEnvAsInt(key, fallback)
	if val < lo || val > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", key, lo, hi, val)
	}
	return val, nil
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
