package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
}

type ServerConfig struct {
	Host           string        `json:"host" yaml:"host"`
	Port           string        `json:"port" yaml:"port"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	Environment    string        `json:"environment" yaml:"environment"`
	AllowedOrigins []string      `json:"allowed_origins" yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver" yaml:"driver"`
	Host            string        `json:"host" yaml:"host"`
	Port            string        `json:"port" yaml:"port"`
	User            string        `json:"user" yaml:"user"`
	Password        string        `json:"password" yaml:"password"`
	Name            string        `json:"name" yaml:"name"`
	SSLMode         string        `json:"ssl_mode" yaml:"ssl_mode"`
	SQLitePath      string        `json:"sqlite_path" yaml:"sqlite_path"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         string        `json:"port" yaml:"port"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns" yaml:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries" yaml:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// CacheConfig controls the project feed cache. With Redis disabled only the
// in-process level is used.
type CacheConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	RedisEnabled bool          `json:"redis_enabled" yaml:"redis_enabled"`
	KeyPrefix    string        `json:"key_prefix" yaml:"key_prefix"`
	FeedTTL      time.Duration `json:"feed_ttl" yaml:"feed_ttl"`
}

type AuthConfig struct {
	JWTSecret      string        `json:"jwt_secret" yaml:"jwt_secret"`
	Issuer         string        `json:"issuer" yaml:"issuer"`
	AccessTokenTTL time.Duration `json:"access_token_ttl" yaml:"access_token_ttl"`
	BCryptCost     int           `json:"bcrypt_cost" yaml:"bcrypt_cost"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled" yaml:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize       int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

const defaultJWTSecret = "your-secret-key"

// Default returns the built-in configuration before any file or environment
// overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           "8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			Environment:    "development",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Driver:          "postgres",
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "project_tracker",
			SSLMode:         "disable",
			SQLitePath:      "project_tracker.db",
			MaxOpenConns:    25,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         "6379",
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:      true,
			RedisEnabled: false,
			KeyPrefix:    "project-tracker",
			FeedTTL:      5 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:      defaultJWTSecret,
			Issuer:         "project-tracker",
			AccessTokenTTL: time.Hour,
			BCryptCost:     10,
		},
		RateLimit: RateLimitConfig{
			Enabled:         true,
			RequestsPerMin:  100,
			BurstSize:       10,
			CleanupInterval: 10 * time.Minute,
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment variables.
func LoadConfig() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.mergeFile(path); err != nil {
			return nil, err
		}
		log.Printf("Loaded configuration file %s", path)
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("HOST", c.Server.Host)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.AllowedOrigins = getEnvAsSlice("ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)
	c.Database.SQLitePath = getEnv("DB_SQLITE_PATH", c.Database.SQLitePath)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvAsDuration("DB_CONN_MAX_LIFETIME", c.Database.ConnMaxLifetime)
	c.Database.ConnMaxIdleTime = getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", c.Database.ConnMaxIdleTime)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnv("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.MinIdleConns = getEnvAsInt("REDIS_MIN_IDLE_CONNS", c.Redis.MinIdleConns)
	c.Redis.MaxRetries = getEnvAsInt("REDIS_MAX_RETRIES", c.Redis.MaxRetries)
	c.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)

	c.Cache.Enabled = getEnvAsBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.RedisEnabled = getEnvAsBool("CACHE_REDIS_ENABLED", c.Cache.RedisEnabled)
	c.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", c.Cache.KeyPrefix)
	c.Cache.FeedTTL = getEnvAsDuration("CACHE_FEED_TTL", c.Cache.FeedTTL)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.Issuer = getEnv("JWT_ISSUER", c.Auth.Issuer)
	c.Auth.AccessTokenTTL = getEnvAsDuration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.BCryptCost = getEnvAsInt("BCRYPT_COST", c.Auth.BCryptCost)

	c.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RequestsPerMin = getEnvAsInt("RATE_LIMIT_RPM", c.RateLimit.RequestsPerMin)
	c.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", c.RateLimit.BurstSize)
	c.RateLimit.CleanupInterval = getEnvAsDuration("RATE_LIMIT_CLEANUP", c.RateLimit.CleanupInterval)
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if !c.IsProduction() {
		return nil
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsTest() bool {
	return c.Server.Environment == "test"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
