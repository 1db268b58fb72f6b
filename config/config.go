// Package config loads equipdash settings.
//
// Sources are applied in order, later ones winning:
//   - built-in defaults
//   - an optional YAML file
//   - a .env file (missing is fine; never overrides variables already set)
//   - EQUIPDASH_* environment variables
//
// The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/equipdash/engine"
	"github.com/spektr-org/equipdash/helpers"
	"github.com/spektr-org/equipdash/store"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EQUIPDASH_"

// Config is the full equipdash configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Archive ArchiveConfig `yaml:"archive"`
	View    ViewConfig    `yaml:"view"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string `yaml:"trusted_proxies"`

	// RateLimit is requests per RateWindow per client. 0 disables it.
	// Only enforced with the redis store driver.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// StoreConfig selects and configures the upload store.
type StoreConfig struct {
	Driver string `yaml:"driver"`

	// Keep is how many uploads are retained.
	Keep int `yaml:"keep"`

	// DropIncomplete drops rows with any missing reading at upload time.
	DropIncomplete bool `yaml:"drop_incomplete"`

	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // 0 = no expiry
}

// PostgresConfig configures the postgres driver.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ArchiveConfig configures the raw file archive. An empty endpoint
// disables archiving.
type ArchiveConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	Secure    bool          `yaml:"secure"`
	URLExpiry time.Duration `yaml:"url_expiry"`
}

// Enabled reports whether an archive endpoint is configured.
func (a ArchiveConfig) Enabled() bool { return a.Endpoint != "" }

// ViewConfig holds dashboard presentation defaults.
type ViewConfig struct {
	ItemsPerPage int    `yaml:"items_per_page"`
	TopN         int    `yaml:"top_n"`
	TopNField    string `yaml:"top_n_field"`
	TypeFolding  bool   `yaml:"type_folding"`
	Placeholder  string `yaml:"placeholder"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
			RateWindow:  time.Minute,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Keep:   store.DefaultKeep,
			Redis:  RedisConfig{Addr: "localhost:6379"},
		},
		Archive: ArchiveConfig{
			Bucket:    "equipdash-uploads",
			URLExpiry: 15 * time.Minute,
		},
		View: ViewConfig{
			ItemsPerPage: 10,
			TopN:         10,
			TopNField:    string(engine.FieldFlowrate),
			Placeholder:  "-",
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty), envFile (".env" when empty) and the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		log.Printf("No %s file found. Falling back to OS environment variables.", envFile)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		errs = append(errs, errors.New("server.rate_window must be positive"))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be memory, redis or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Keep < 1 {
		errs = append(errs, errors.New("store.keep must be at least 1"))
	}

	if c.Archive.Enabled() && c.Archive.Bucket == "" {
		errs = append(errs, errors.New("archive.bucket is required when archive.endpoint is set"))
	}

	if c.View.ItemsPerPage < 1 {
		errs = append(errs, errors.New("view.items_per_page must be at least 1"))
	}
	if c.View.TopN < 1 {
		errs = append(errs, errors.New("view.top_n must be at least 1"))
	}
	if f, ok := engine.ParseField(c.View.TopNField); !ok || !f.IsNumeric() {
		errs = append(errs, fmt.Errorf("view.top_n_field must be flowrate, pressure or temperature, got %q", c.View.TopNField))
	}

	return errors.Join(errs...)
}

// EngineOptions converts the view section into engine options.
func (c *Config) EngineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithTopN(c.View.TopN),
		engine.WithPlaceholder(c.View.Placeholder),
	}
	if f, ok := engine.ParseField(c.View.TopNField); ok {
		opts = append(opts, engine.WithTopNField(f))
	}
	if c.View.TypeFolding {
		opts = append(opts, engine.WithTypeFolding())
	}
	return opts
}

// StoreOptions converts the store section into store options.
func (c *Config) StoreOptions() []store.Option {
	opts := []store.Option{store.WithKeep(c.Store.Keep)}
	if c.Store.Driver == DriverRedis && c.Store.Redis.TTL > 0 {
		opts = append(opts, store.WithTTL(c.Store.Redis.TTL))
	}
	return opts
}

// ParseOptions converts the store section into CSV parse options.
func (c *Config) ParseOptions() helpers.ParseOptions {
	return helpers.ParseOptions{DropIncomplete: c.Store.DropIncomplete}
}

// DefaultViewState is the initial table state for this config.
func (c *Config) DefaultViewState() engine.ViewState {
	s := engine.DefaultViewState()
	s.ItemsPerPage = c.View.ItemsPerPage
	return s
}

// ============================================================================
// ENVIRONMENT OVERRIDES
// ============================================================================

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = splitList(v)
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid integer %q", EnvPrefix, name, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid boolean %q", EnvPrefix, name, v))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: invalid duration %q", EnvPrefix, name, v))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Server.Addr)
	list("CORS_ORIGINS", &c.Server.CORSOrigins)
	list("TRUSTED_PROXIES", &c.Server.TrustedProxies)
	integer("RATE_LIMIT", &c.Server.RateLimit)
	duration("RATE_WINDOW", &c.Server.RateWindow)

	str("STORE_DRIVER", &c.Store.Driver)
	integer("STORE_KEEP", &c.Store.Keep)
	boolean("DROP_INCOMPLETE", &c.Store.DropIncomplete)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	integer("REDIS_DB", &c.Store.Redis.DB)
	duration("REDIS_TTL", &c.Store.Redis.TTL)
	str("POSTGRES_DSN", &c.Store.Postgres.DSN)

	str("MINIO_ENDPOINT", &c.Archive.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Archive.AccessKey)
	str("MINIO_SECRET_KEY", &c.Archive.SecretKey)
	str("MINIO_BUCKET", &c.Archive.Bucket)
	boolean("MINIO_SECURE", &c.Archive.Secure)
	duration("URL_EXPIRY", &c.Archive.URLExpiry)

	integer("ITEMS_PER_PAGE", &c.View.ItemsPerPage)
	integer("TOP_N", &c.View.TopN)
	str("TOP_N_FIELD", &c.View.TopNField)
	boolean("TYPE_FOLDING", &c.View.TypeFolding)
	str("PLACEHOLDER", &c.View.Placeholder)

	return errors.Join(errs...)
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
