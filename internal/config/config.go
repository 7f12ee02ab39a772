package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Session backends
const (
	SessionBackendSQL   = "sql"
	SessionBackendRedis = "redis"
)

type ServerConfig struct {
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`
}

type DatabaseConfig struct {
	Driver        string `yaml:"driver"`
	DSN           string `yaml:"dsn"`
	BusyTimeout   string `yaml:"busy_timeout"`
	MaxOpenConns  int    `yaml:"max_open_conns"`
	SlowThreshold string `yaml:"slow_threshold"`
}

type SessionConfig struct {
	Backend       string `yaml:"backend"`
	TTL           string `yaml:"ttl"`
	PurgeInterval string `yaml:"purge_interval"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	BcryptCost        int    `yaml:"bcrypt_cost"`
	BootstrapPassword string `yaml:"bootstrap_password"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialBackoff string  `yaml:"initial_backoff"`
	MaxBackoff     string  `yaml:"max_backoff"`
	Multiplier     float64 `yaml:"multiplier"`
}

// ConfigFile mirrors the YAML layout
type ConfigFile struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Retry    RetryConfig    `yaml:"store_retry"`
}

// Config is the resolved service configuration
type Config struct {
	Port    string
	GinMode string

	DBDriver        string
	DSN             string
	DBBusyTimeout   time.Duration
	DBMaxOpenConns  int
	DBSlowThreshold time.Duration

	SessionBackend       string
	SessionTTL           time.Duration
	SessionPurgeInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BcryptCost        int
	BootstrapPassword string

	LogLevel string

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64
}

// Defaults returns a configuration that runs a local SQLite store
func Defaults() ConfigFile {
	return ConfigFile{
		Server:   ServerConfig{Port: 8080, GinMode: "release"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "crm.db", BusyTimeout: "5s", MaxOpenConns: 8, SlowThreshold: "200ms"},
		Session:  SessionConfig{Backend: SessionBackendSQL, TTL: "168h", PurgeInterval: "1h"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Auth:     AuthConfig{BcryptCost: 10, BootstrapPassword: "admin123"},
		Log:      LogConfig{Level: "info"},
		Retry:    RetryConfig{MaxAttempts: 5, InitialBackoff: "20ms", MaxBackoff: "500ms", Multiplier: 2},
	}
}

// Load resolves the configuration. A .env file in the working directory is
// loaded first, then the YAML file at path (skipped when path is empty),
// then CRM_* environment variables override individual fields.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file := Defaults()
	if path != "" {
		if err := loadConfigFile(path, &file); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}
	if err := applyEnv(&file); err != nil {
		return nil, err
	}
	return resolve(file)
}

func loadConfigFile(path string, into *ConfigFile) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}
	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func env(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := env(k, "")
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return i, nil
}

func applyEnv(f *ConfigFile) error {
	var err error
	if f.Server.Port, err = envInt("CRM_PORT", f.Server.Port); err != nil {
		return err
	}
	f.Server.GinMode = env("CRM_GIN_MODE", f.Server.GinMode)

	f.Database.Driver = env("CRM_DB_DRIVER", f.Database.Driver)
	f.Database.DSN = env("CRM_DB_DSN", f.Database.DSN)
	f.Database.BusyTimeout = env("CRM_DB_BUSY_TIMEOUT", f.Database.BusyTimeout)

	f.Session.Backend = env("CRM_SESSION_BACKEND", f.Session.Backend)
	f.Session.TTL = env("CRM_SESSION_TTL", f.Session.TTL)

	f.Redis.Addr = env("CRM_REDIS_ADDR", f.Redis.Addr)
	f.Redis.Password = env("CRM_REDIS_PASSWORD", f.Redis.Password)
	if f.Redis.DB, err = envInt("CRM_REDIS_DB", f.Redis.DB); err != nil {
		return err
	}

	if f.Auth.BcryptCost, err = envInt("CRM_BCRYPT_COST", f.Auth.BcryptCost); err != nil {
		return err
	}
	f.Auth.BootstrapPassword = env("CRM_BOOTSTRAP_PASSWORD", f.Auth.BootstrapPassword)
	f.Log.Level = env("CRM_LOG_LEVEL", f.Log.Level)

	if f.Retry.MaxAttempts, err = envInt("CRM_STORE_RETRY_MAX_ATTEMPTS", f.Retry.MaxAttempts); err != nil {
		return err
	}
	return nil
}

func resolve(f ConfigFile) (*Config, error) {
	cfg := &Config{
		Port:              strconv.Itoa(f.Server.Port),
		GinMode:           f.Server.GinMode,
		DBDriver:          strings.ToLower(f.Database.Driver),
		DSN:               f.Database.DSN,
		DBMaxOpenConns:    f.Database.MaxOpenConns,
		SessionBackend:    strings.ToLower(f.Session.Backend),
		RedisAddr:         f.Redis.Addr,
		RedisPassword:     f.Redis.Password,
		RedisDB:           f.Redis.DB,
		BcryptCost:        f.Auth.BcryptCost,
		BootstrapPassword: f.Auth.BootstrapPassword,
		LogLevel:          f.Log.Level,
		RetryMaxAttempts:  f.Retry.MaxAttempts,
		RetryMultiplier:   f.Retry.Multiplier,
	}

	var err error
	if cfg.DBBusyTimeout, err = parseDuration("database busy timeout", f.Database.BusyTimeout); err != nil {
		return nil, err
	}
	if cfg.DBSlowThreshold, err = parseDuration("database slow threshold", f.Database.SlowThreshold); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("session TTL", f.Session.TTL); err != nil {
		return nil, err
	}
	if cfg.SessionPurgeInterval, err = parseDuration("session purge interval", f.Session.PurgeInterval); err != nil {
		return nil, err
	}
	if cfg.RetryInitialBackoff, err = parseDuration("store retry initial backoff", f.Retry.InitialBackoff); err != nil {
		return nil, err
	}
	if cfg.RetryMaxBackoff, err = parseDuration("store retry max backoff", f.Retry.MaxBackoff); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration treats an empty value as zero
func parseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

// Validate checks the settings that would otherwise fail late at startup
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DBDriver)
	}
	if c.DSN == "" {
		return errors.New("database dsn is required")
	}
	switch c.SessionBackend {
	case SessionBackendSQL:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis addr is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unsupported session backend %q", c.SessionBackend)
	}
	if c.SessionTTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if c.BootstrapPassword == "" {
		return errors.New("bootstrap password must not be empty")
	}
	return nil
}
