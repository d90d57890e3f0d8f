package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Browser.MaxSlots != 2 {
		t.Fatalf("expected 2 browser slots, got %d", cfg.Browser.MaxSlots)
	}
	if cfg.Cache.TTL != 45*time.Minute {
		t.Fatalf("expected 45m ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Scan.MinInterval != 10*time.Second {
		t.Fatalf("expected 10s min interval, got %s", cfg.Scan.MinInterval)
	}
	if cfg.Cache.Backend != CacheBackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Cache.Backend)
	}
	if got := cfg.Site.LoginURL(); got != "https://www.flyfrontier.com/myfrontier/login" {
		t.Fatalf("unexpected login url %q", got)
	}
	if got := cfg.Site.Host(); got != "flyfrontier.com" {
		t.Fatalf("unexpected host %q", got)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  "cache": {"backend": "REDIS", "ttl": "30m"},
  "browser": {"max_slots": 4},
  "storage": {"redis": {"host": "cache.internal", "port": "6380"}}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WILDSCAN_SCAN_MIN_INTERVAL", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != CacheBackendRedis {
		t.Fatalf("expected normalized redis backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Browser.MaxSlots != 4 {
		t.Fatalf("expected 4 slots, got %d", cfg.Browser.MaxSlots)
	}
	if cfg.Storage.Redis.Addr() != "cache.internal:6380" {
		t.Fatalf("unexpected redis addr %q", cfg.Storage.Redis.Addr())
	}
	if cfg.Scan.MinInterval != 90*time.Second {
		t.Fatalf("expected env override to 90s, got %s", cfg.Scan.MinInterval)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestCacheConfigValidate(t *testing.T) {
	ok := CacheConfig{Backend: "sqlite", TTL: time.Minute, CleanupCron: "*/5 * * * *"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if err := (CacheConfig{Backend: "memcached", TTL: time.Minute}).Validate(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if err := (CacheConfig{Backend: "sqlite"}).Validate(); err == nil {
		t.Fatalf("expected ttl error")
	}
	if err := (CacheConfig{Backend: "sqlite", TTL: time.Minute, CleanupCron: "bananas"}).Validate(); err == nil {
		t.Fatalf("expected cron error")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", User: "scan", Password: "pw", DBName: "wildscan"}
	if got := p.DSN(); got != "postgres://scan:pw@db:5432/wildscan?sslmode=disable" {
		t.Fatalf("unexpected dsn %q", got)
	}
	p.URL = "postgres://elsewhere/db"
	if got := p.DSN(); got != p.URL {
		t.Fatalf("expected explicit url, got %q", got)
	}
}

func TestScanConfigValidate(t *testing.T) {
	s := ScanConfig{MinInterval: time.Second, MaxOrigins: 10, DefaultDestinations: 60, MaxDestinations: 50}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected default > max error")
	}
}
