package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all configuration for the scanner service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Site    SiteConfig    `mapstructure:"site"`
	Browser BrowserConfig `mapstructure:"browser"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Storage StorageConfig `mapstructure:"storage"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SiteConfig describes the external travel site being scanned
type SiteConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	LoginPath     string `mapstructure:"login_path"`
	AccountPath   string `mapstructure:"account_path"`
	DashboardPath string `mapstructure:"dashboard_path"`
	SearchPath    string `mapstructure:"search_path"`
	UserAgent     string `mapstructure:"user_agent"`
}

func (s SiteConfig) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute url")
	}
	for name, p := range map[string]string{
		"site.login_path":   s.LoginPath,
		"site.account_path": s.AccountPath,
		"site.search_path":  s.SearchPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with /", name)
		}
	}
	return nil
}

// LoginURL returns the absolute login page url
func (s SiteConfig) LoginURL() string { return strings.TrimRight(s.BaseURL, "/") + s.LoginPath }

// AccountURL returns the absolute account-only page url
func (s SiteConfig) AccountURL() string { return strings.TrimRight(s.BaseURL, "/") + s.AccountPath }

// SearchURL returns the absolute flight search url without query
func (s SiteConfig) SearchURL() string { return strings.TrimRight(s.BaseURL, "/") + s.SearchPath }

// Host returns the host of the base url without a leading www.
func (s SiteConfig) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// BrowserConfig controls the browser pool and page timing
type BrowserConfig struct {
	MaxSlots          int           `mapstructure:"max_slots"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	SelectorTimeout   time.Duration `mapstructure:"selector_timeout"`
	ValidateTimeout   time.Duration `mapstructure:"validate_timeout"`
	WindowWidth       int           `mapstructure:"window_width"`
	WindowHeight      int           `mapstructure:"window_height"`
	DebugDir          string        `mapstructure:"debug_dir"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	ExecPath          string        `mapstructure:"exec_path"`
}

func (b BrowserConfig) Validate() error {
	if b.MaxSlots <= 0 {
		return fmt.Errorf("browser.max_slots must be > 0")
	}
	if b.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be > 0")
	}
	if b.SettleDelay < 0 || b.SelectorTimeout < 0 {
		return fmt.Errorf("browser.settle_delay and browser.selector_timeout cannot be negative")
	}
	if b.ValidateTimeout <= 0 {
		return fmt.Errorf("browser.validate_timeout must be > 0")
	}
	return nil
}

// SessionConfig controls where the site session is persisted
type SessionConfig struct {
	File       string        `mapstructure:"file"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

func (s SessionConfig) Validate() error {
	if strings.TrimSpace(s.File) == "" {
		return fmt.Errorf("session.file required")
	}
	return nil
}

// Cache backends
const (
	CacheBackendSQLite   = "sqlite"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// CacheConfig controls the scan result cache
type CacheConfig struct {
	Backend     string        `mapstructure:"backend"`
	TTL         time.Duration `mapstructure:"ttl"`
	CleanupCron string        `mapstructure:"cleanup_cron"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// Normalize lower-cases the backend name.
func (c CacheConfig) Normalize() CacheConfig {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = CacheBackendSQLite
	}
	return c
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case CacheBackendSQLite, CacheBackendRedis, CacheBackendPostgres:
	default:
		return fmt.Errorf("cache.backend %q not supported", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if c.CleanupCron != "" {
		if _, err := cronexpr.Parse(c.CleanupCron); err != nil {
			return fmt.Errorf("cache.cleanup_cron: %w", err)
		}
	}
	return nil
}

// ScanConfig controls batch limits
type ScanConfig struct {
	MinInterval         time.Duration `mapstructure:"min_interval"`
	MaxOrigins          int           `mapstructure:"max_origins"`
	DefaultDestinations int           `mapstructure:"default_destinations"`
	MaxDestinations     int           `mapstructure:"max_destinations"`
}

func (s ScanConfig) Validate() error {
	if s.MinInterval < 0 {
		return fmt.Errorf("scan.min_interval cannot be negative")
	}
	if s.MaxOrigins <= 0 || s.MaxDestinations <= 0 {
		return fmt.Errorf("scan.max_origins and scan.max_destinations must be > 0")
	}
	if s.DefaultDestinations <= 0 || s.DefaultDestinations > s.MaxDestinations {
		return fmt.Errorf("scan.default_destinations must be in 1..%d", s.MaxDestinations)
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// SQLiteConfig contains the on-disk database location
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr returns host:port
func (r RedisConfig) Addr() string { return fmt.Sprintf("%s:%s", r.Host, r.Port) }

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string, preferring the explicit url.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

func (c *Config) Validate() error {
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Browser.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Scan.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheBackendSQLite:
		if strings.TrimSpace(c.Storage.SQLite.Path) == "" {
			return fmt.Errorf("storage.sqlite.path required for the sqlite cache backend")
		}
	case CacheBackendRedis:
		return c.Storage.Redis.Validate()
	case CacheBackendPostgres:
		return c.Storage.Postgres.Validate()
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":10001")

	v.SetDefault("site.base_url", "https://www.flyfrontier.com")
	v.SetDefault("site.login_path", "/myfrontier/login")
	v.SetDefault("site.account_path", "/myfrontier/my-account")
	v.SetDefault("site.dashboard_path", "/myfrontier/dashboard")
	v.SetDefault("site.search_path", "/flights")
	v.SetDefault("site.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("browser.max_slots", 2)
	v.SetDefault("browser.navigation_timeout", 60*time.Second)
	v.SetDefault("browser.settle_delay", 3*time.Second)
	v.SetDefault("browser.selector_timeout", 5*time.Second)
	v.SetDefault("browser.validate_timeout", 30*time.Second)
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)
	v.SetDefault("browser.debug_dir", "data")
	v.SetDefault("browser.no_sandbox", true)

	v.SetDefault("session.file", filepath.Join("data", "cookies.json"))
	v.SetDefault("session.stale_after", 7*24*time.Hour)

	v.SetDefault("cache.backend", CacheBackendSQLite)
	v.SetDefault("cache.ttl", 45*time.Minute)
	v.SetDefault("cache.cleanup_cron", "*/15 * * * *")

	v.SetDefault("scan.min_interval", 10*time.Second)
	v.SetDefault("scan.max_origins", 10)
	v.SetDefault("scan.default_destinations", 20)
	v.SetDefault("scan.max_destinations", 50)

	v.SetDefault("storage.sqlite.path", filepath.Join("data", "app.db"))
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.timeout", 5*time.Second)
	v.SetDefault("storage.postgres.timeout", 5*time.Second)
}

// Load reads the config file (optional when path is empty), overlays WILDSCAN_* env vars
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("WILDSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Cache = cfg.Cache.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
