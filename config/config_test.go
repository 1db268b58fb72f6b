package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spektr-org/equipdash/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// unsetForTest clears key for the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Store.Keep != 5 || cfg.View.ItemsPerPage != 10 || cfg.Archive.Enabled() {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "equipdash.yaml", `
server:
  addr: ":9090"
  cors_origins: ["https://plant.example"]
  rate_limit: 60
  rate_window: 30s
store:
  driver: redis
  keep: 3
  redis:
    addr: "redis:6379"
    ttl: 24h
view:
  items_per_page: 25
  top_n: 5
  top_n_field: pressure
  type_folding: true
`)
	cfg, err := Load(path, noEnvFile(t))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.RateWindow != 30*time.Second || cfg.Server.CORSOrigins[0] != "https://plant.example" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Store.Driver != DriverRedis || cfg.Store.Keep != 3 || cfg.Store.Redis.TTL != 24*time.Hour {
		t.Errorf("store = %+v", cfg.Store)
	}
	// Unset keys keep their defaults.
	if cfg.Archive.Bucket != "equipdash-uploads" || cfg.View.Placeholder != "-" {
		t.Errorf("defaults lost: %+v %+v", cfg.Archive, cfg.View)
	}
	if got := cfg.DefaultViewState(); got.ItemsPerPage != 25 || got.SortField != engine.FieldName {
		t.Errorf("view state = %+v", got)
	}
	if len(cfg.EngineOptions()) != 4 || len(cfg.StoreOptions()) != 2 {
		t.Errorf("options: %d engine, %d store", len(cfg.EngineOptions()), len(cfg.StoreOptions()))
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "bad.yaml", "server:\n  adress: \":1\"\n")
	if _, err := Load(path, noEnvFile(t)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestEnvFileAndOverrides(t *testing.T) {
	unsetForTest(t, "EQUIPDASH_TOP_N")
	t.Setenv("EQUIPDASH_ITEMS_PER_PAGE", "50")
	t.Setenv("EQUIPDASH_CORS_ORIGINS", "http://a.test, http://b.test,")

	env := writeFile(t, ".env", "EQUIPDASH_TOP_N=3\nEQUIPDASH_ITEMS_PER_PAGE=7\n")
	cfg, err := Load("", env)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.View.TopN != 3 {
		t.Errorf("top_n from .env = %d", cfg.View.TopN)
	}
	// .env never overrides a variable that is already set.
	if cfg.View.ItemsPerPage != 50 {
		t.Errorf("items_per_page = %d", cfg.View.ItemsPerPage)
	}
	if strings.Join(cfg.Server.CORSOrigins, "|") != "http://a.test|http://b.test" {
		t.Errorf("cors origins = %q", cfg.Server.CORSOrigins)
	}
}

func TestApplyEnvErrors(t *testing.T) {
	env := map[string]string{
		"EQUIPDASH_STORE_KEEP":      "many",
		"EQUIPDASH_TYPE_FOLDING":    "sometimes",
		"EQUIPDASH_RATE_WINDOW":     "soon",
		"EQUIPDASH_POSTGRES_DSN":    "postgres://localhost/equipdash",
		"EQUIPDASH_STORE_DRIVER":    "postgres",
		"EQUIPDASH_MINIO_SECURE":    "true",
		"EQUIPDASH_URL_EXPIRY":      "1h",
		"EQUIPDASH_MINIO_ENDPOINT":  "minio:9000",
		"EQUIPDASH_PLACEHOLDER":     "n/a",
		"EQUIPDASH_TRUSTED_PROXIES": "10.0.0.1, 10.0.0.2",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"STORE_KEEP", "TYPE_FOLDING", "RATE_WINDOW"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if cfg.Store.Driver != DriverPostgres || !cfg.Archive.Secure || cfg.Archive.URLExpiry != time.Hour || !cfg.Archive.Enabled() {
		t.Errorf("valid overrides not applied: %+v %+v", cfg.Store, cfg.Archive)
	}
	if cfg.View.Placeholder != "n/a" || strings.Join(cfg.Server.TrustedProxies, "|") != "10.0.0.1|10.0.0.2" {
		t.Errorf("placeholder = %q, trusted proxies = %q", cfg.View.Placeholder, cfg.Server.TrustedProxies)
	}
	if got := cfg.DefaultViewState(); got.ItemsPerPage != cfg.View.ItemsPerPage {
		t.Errorf("default view state = %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "sqlite" }, "store.driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "store.postgres.dsn"},
		{"redis without addr", func(c *Config) { c.Store.Driver = DriverRedis; c.Store.Redis.Addr = "" }, "store.redis.addr"},
		{"keep zero", func(c *Config) { c.Store.Keep = 0 }, "store.keep"},
		{"archive without bucket", func(c *Config) { c.Archive.Endpoint = "minio:9000"; c.Archive.Bucket = "" }, "archive.bucket"},
		{"text top-n field", func(c *Config) { c.View.TopNField = "name" }, "view.top_n_field"},
		{"rate window", func(c *Config) { c.Server.RateLimit = 10; c.Server.RateWindow = 0 }, "server.rate_window"},
		{"items per page", func(c *Config) { c.View.ItemsPerPage = 0 }, "view.items_per_page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}
