// Package config loads runtime settings from FINSCHOLARS_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/finscholars/finscholars/internal/llm"
	"github.com/finscholars/finscholars/internal/store"
)

// DefaultEnvFile is read by Load when no file is named.
const DefaultEnvFile = ".env"

// Config holds all settings of the server and CLI.
type Config struct {
	Addr string

	DBDriver string
	DB       string

	BackendURL     string
	BackendTimeout time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	AMQPURL      string
	AMQPExchange string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CatalogFile string

	AttemptTTL      time.Duration
	CleanupInterval time.Duration

	CORSOrigins []string

	LLM llm.Config
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		DBDriver:        store.DriverSQLite,
		BackendTimeout:  30 * time.Second,
		TokenTTL:        24 * time.Hour,
		AMQPExchange:    "finscholars.events",
		CacheTTL:        10 * time.Minute,
		AttemptTTL:      24 * time.Hour,
		CleanupInterval: time.Hour,
		CORSOrigins:     []string{"*"},
		LLM:             llm.DefaultConfig(),
	}
}

// FromEnv reads the environment over the defaults. Malformed numbers and
// durations are errors.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	e := &envReader{}

	e.str("ADDR", &cfg.Addr)
	e.str("DB_DRIVER", &cfg.DBDriver)
	e.str("DB", &cfg.DB)
	e.str("BACKEND_URL", &cfg.BackendURL)
	e.duration("BACKEND_TIMEOUT", &cfg.BackendTimeout)
	e.str("JWT_SECRET", &cfg.JWTSecret)
	e.duration("TOKEN_TTL", &cfg.TokenTTL)
	e.str("AMQP_URL", &cfg.AMQPURL)
	e.str("AMQP_EXCHANGE", &cfg.AMQPExchange)
	e.str("REDIS_ADDR", &cfg.RedisAddr)
	e.str("REDIS_PASSWORD", &cfg.RedisPassword)
	e.integer("REDIS_DB", &cfg.RedisDB)
	e.duration("CACHE_TTL", &cfg.CacheTTL)
	e.str("CATALOG_FILE", &cfg.CatalogFile)
	e.duration("ATTEMPT_TTL", &cfg.AttemptTTL)
	e.duration("CLEANUP_INTERVAL", &cfg.CleanupInterval)
	if v, ok := lookup("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.LLM = llm.ConfigFromEnv()

	if cfg.DB == "" && cfg.DBDriver == store.DriverSQLite {
		path, err := store.DefaultDBPath()
		if err != nil {
			e.errs = append(e.errs, err)
		}
		cfg.DB = path
	}
	return cfg, errors.Join(e.errs...)
}

// Load reads envFile into the environment, then calls FromEnv. Variables
// already set are not overridden. An empty envFile means DefaultEnvFile,
// which may be missing.
func Load(envFile string) (Config, error) {
	target := envFile
	if target == "" {
		target = DefaultEnvFile
	}
	if err := godotenv.Load(target); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", target, err)
		}
	}
	return FromEnv()
}

// Validate checks settings the server needs.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("FINSCHOLARS_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}
	if c.DB == "" {
		errs = append(errs, errors.New("FINSCHOLARS_DB is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("FINSCHOLARS_JWT_SECRET is required"))
	}
	if c.AttemptTTL <= 0 {
		errs = append(errs, fmt.Errorf("FINSCHOLARS_ATTEMPT_TTL must be positive, got %s", c.AttemptTTL))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("FINSCHOLARS_CLEANUP_INTERVAL must be positive, got %s", c.CleanupInterval))
	}
	if c.BackendURL != "" && !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		errs = append(errs, fmt.Errorf("FINSCHOLARS_BACKEND_URL must be an http(s) URL, got %q", c.BackendURL))
	}
	return errors.Join(errs...)
}

// envReader collects parse errors while reading variables.
type envReader struct {
	errs []error
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv("FINSCHOLARS_" + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("FINSCHOLARS_%s: %w", name, err))
		return
	}
	*dst = d
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("FINSCHOLARS_%s: %w", name, err))
		return
	}
	*dst = n
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
