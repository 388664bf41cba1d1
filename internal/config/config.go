// Package config handles loading and validation of service configuration.
// Supports development (.env, env vars or a YAML/JSON CONFIG_FILE) and
// production (database credentials from Secret Manager).
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported backends.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config holds all service configuration.
// Environment determines whether database credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"` // "development" or "production"
	LogLevel    string `yaml:"log_level"`   // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject     string `yaml:"gcp_project"`
	DatabaseSecret string `yaml:"database_secret"`

	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	Checkout  CheckoutConfig  `yaml:"checkout"`
	Review    ReviewConfig    `yaml:"review"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	Driver       string        `yaml:"driver"`
	DSN          string        `yaml:"dsn"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
	Seed         bool          `yaml:"seed"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxOpenConns int           `yaml:"max_open_conns"`
}

type SessionConfig struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"` // Zero keeps sessions until deleted
}

type CheckoutConfig struct {
	CashOnDeliveryMethods []string `yaml:"cash_on_delivery_methods"`
}

type ReviewConfig struct {
	DefaultCustomerID int64 `yaml:"default_customer_id"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"` // Zero disables limiting
	Burst int     `yaml:"burst"`
}

// databaseSecret is the JSON payload stored in Secret Manager.
type databaseSecret struct {
	DSN           string `json:"dsn"`
	RedisPassword string `json:"redis_password,omitempty"`
}

// fetchSecret reads a secret version payload. Replaced in tests.
var fetchSecret = accessSecret

// Load reads configuration from .env, file, environment and Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars; production then overlays
// database credentials from Secret Manager.
// Validates all fields and returns an error naming the offending key.
func Load(ctx context.Context) (*Config, error) {
	if err := loadDotEnv(envOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	var (
		cfg *Config
		err error
	)
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		cfg, err = loadFromFile(configPath)
	} else {
		cfg, err = loadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.DatabaseSecret == "" {
			return nil, fmt.Errorf("DATABASE_SECRET required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading database secret: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads path into the environment when it exists. Variables that
// are already set win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadFromFile reads all configuration from a YAML or JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}

// loadFromEnv reads configuration from individual environment variables.
func loadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:           os.Getenv("PORT"),
		Environment:    os.Getenv("ENVIRONMENT"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		GCPProject:     os.Getenv("GCP_PROJECT"),
		DatabaseSecret: os.Getenv("DATABASE_SECRET"),
		Database: DatabaseConfig{
			Driver: os.Getenv("DATABASE_DRIVER"),
			DSN:    os.Getenv("DATABASE_DSN"),
		},
		Session: SessionConfig{
			Backend:       os.Getenv("SESSION_BACKEND"),
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
		},
	}
	if methods := os.Getenv("CASH_ON_DELIVERY_METHODS"); methods != "" {
		cfg.Checkout.CashOnDeliveryMethods = splitList(methods)
	}

	p := envParser{}
	cfg.Database.AutoMigrate = p.boolean("DATABASE_AUTO_MIGRATE")
	cfg.Database.Seed = p.boolean("DATABASE_SEED")
	cfg.Database.QueryTimeout = p.duration("DATABASE_QUERY_TIMEOUT")
	cfg.Database.MaxOpenConns = p.integer("DATABASE_MAX_OPEN_CONNS")
	cfg.Session.RedisDB = p.integer("REDIS_DB")
	cfg.Session.TTL = p.duration("SESSION_TTL")
	cfg.Review.DefaultCustomerID = int64(p.integer("REVIEW_DEFAULT_CUSTOMER_ID"))
	cfg.RateLimit.RPS = p.number("RATE_LIMIT_RPS")
	cfg.RateLimit.Burst = p.integer("RATE_LIMIT_BURST")
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envParser collects conversion errors so every bad key is reported at once.
type envParser struct {
	errs []error
}

func (p *envParser) fail(key, val, want string) {
	p.errs = append(p.errs, fmt.Errorf("%s: %q is not a valid %s", key, val, want))
}

func (p *envParser) boolean(key string) bool {
	val := os.Getenv(key)
	if val == "" {
		return false
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		p.fail(key, val, "boolean")
	}
	return b
}

func (p *envParser) integer(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		p.fail(key, val, "integer")
	}
	return n
}

func (p *envParser) number(key string) float64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		p.fail(key, val, "number")
	}
	return f
}

func (p *envParser) duration(key string) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		p.fail(key, val, "duration")
	}
	return d
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

func (c *Config) applyDefaults() {
	c.Port = withDefault(c.Port, "8080")
	c.Environment = withDefault(c.Environment, "development")
	c.LogLevel = withDefault(c.LogLevel, "info")
	c.Database.Driver = withDefault(c.Database.Driver, DriverSQLite)
	if c.Database.Driver == DriverSQLite {
		c.Database.DSN = withDefault(c.Database.DSN, "file:orderbot.db")
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 5 * time.Second
	}
	c.Session.Backend = withDefault(c.Session.Backend, SessionMemory)
	if len(c.Checkout.CashOnDeliveryMethods) == 0 {
		c.Checkout.CashOnDeliveryMethods = []string{"COD", "Cash on Delivery"}
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = int(c.RateLimit.RPS) + 1
	}
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches database credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{database_secret}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProject, c.DatabaseSecret)

	data, err := fetchSecret(ctx, secretName)
	if err != nil {
		return err
	}

	var secret databaseSecret
	if err := json.Unmarshal(data, &secret); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	if secret.DSN != "" {
		c.Database.DSN = secret.DSN
	}
	if secret.RedisPassword != "" {
		c.Session.RedisPassword = secret.RedisPassword
	}
	return nil
}

func accessSecret(ctx context.Context, name string) ([]byte, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return nil, fmt.Errorf("accessing secret %s: %w", name, err)
	}
	return result.Payload.Data, nil
}

// validate checks that all configuration fields are usable.
func (c *Config) validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT: %q is not a valid port", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL: unsupported level %q", c.LogLevel)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER: unsupported driver %q (postgres or sqlite)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for %s", c.Database.Driver)
	}
	if c.Database.QueryTimeout < 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must be positive")
	}
	if c.Database.MaxOpenConns < 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must not be negative")
	}

	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND is redis")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND: unsupported backend %q (memory or redis)", c.Session.Backend)
	}
	if c.Session.TTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}

	if c.Review.DefaultCustomerID < 0 {
		return fmt.Errorf("REVIEW_DEFAULT_CUSTOMER_ID must not be negative")
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
