package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/clipsort/internal/domain"
	"github.com/MrSnakeDoc/clipsort/internal/scan"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CLIPSORT_"

// Category backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`      // ex: "127.0.0.1:3000"
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // ex: 5s
	OpenBrowser     bool          `yaml:"open_browser"`     // open the UI once the server listens

	LogLevel  string `yaml:"log_level"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `yaml:"pretty_log"` // true => zap dev (color), false => zap prod (JSON)

	// Categories
	CategoryBackend   string   `yaml:"category_backend"`   // "file" | "redis"
	CategoriesFile    string   `yaml:"categories_file"`    // JSON array, file backend only
	DefaultCategories []string `yaml:"default_categories"` // seed for an empty store

	// Redis (category_backend: redis)
	RedisAddr           string        `yaml:"redis_addr"`
	RedisUser           string        `yaml:"redis_user"`
	RedisPassword       string        `yaml:"redis_password"`
	RedisDB             int           `yaml:"redis_db"`
	RedisNamespace      string        `yaml:"redis_namespace"`
	RedisConnectTimeout time.Duration `yaml:"redis_connect_timeout"`
	RedisRetryInterval  time.Duration `yaml:"redis_retry_interval"`

	// Scanning
	Recursive  bool     `yaml:"recursive"`  // default for new sessions
	Extensions []string `yaml:"extensions"` // allow-list, with leading dot
	Exclude    []string `yaml:"exclude"`    // globs matched against base names

	// Session
	Watch           bool          `yaml:"watch"`            // follow the source directory with fsnotify
	SweepInterval   time.Duration `yaml:"sweep_interval"`   // stale entry sweep, 0 disables
	NotificationTTL time.Duration `yaml:"notification_ttl"` // success message lifetime

	// Access restrictions
	AllowedHosts []string `yaml:"allowed_hosts"` // Host headers accepted (port ignored)
	AllowedCIDRS []string `yaml:"allowed_cidrs"` // client IPs accepted
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:      "127.0.0.1:3000",
		ShutdownTimeout: 5 * time.Second,
		OpenBrowser:     true,

		LogLevel:  "info",
		PrettyLog: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),

		CategoryBackend:   BackendFile,
		CategoriesFile:    defaultCategoriesFile(),
		DefaultCategories: append([]string(nil), domain.DefaultCategories...),

		RedisAddr:           "localhost:6379",
		RedisNamespace:      "",
		RedisConnectTimeout: 15 * time.Second,
		RedisRetryInterval:  500 * time.Millisecond,

		Recursive:  false,
		Extensions: append([]string(nil), scan.DefaultExtensions...),
		Exclude:    append([]string(nil), scan.DefaultExclude...),

		Watch:           true,
		SweepInterval:   30 * time.Second,
		NotificationTTL: 3 * time.Second,

		AllowedHosts: []string{"localhost", "127.0.0.1", "::1"},
		AllowedCIDRS: []string{"127.0.0.0/8", "::1/128"},
	}
}

// Load reads the configuration: defaults, then the YAML file named by
// CLIPSORT_CONFIG (if any), then CLIPSORT_* environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(EnvPrefix + "CONFIG"))
}

// LoadFile is Load with an explicit YAML path; "" skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ListenAddr = getenv("LISTEN_ADDR", c.ListenAddr)
	c.ShutdownTimeout = mustDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.OpenBrowser = mustBool("OPEN_BROWSER", c.OpenBrowser)

	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.PrettyLog = mustBool("PRETTY_LOG", c.PrettyLog)

	c.CategoryBackend = getenv("CATEGORY_BACKEND", c.CategoryBackend)
	c.CategoriesFile = getenv("CATEGORIES_FILE", c.CategoriesFile)
	c.DefaultCategories = getenvSlice("DEFAULT_CATEGORIES", c.DefaultCategories)

	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisUser = getenv("REDIS_USERNAME", c.RedisUser)
	c.RedisPassword = getenv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getenvInt("REDIS_DB", c.RedisDB)
	c.RedisNamespace = getenv("REDIS_NAMESPACE", c.RedisNamespace)
	c.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", c.RedisConnectTimeout)
	c.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", c.RedisRetryInterval)

	c.Recursive = mustBool("RECURSIVE", c.Recursive)
	c.Extensions = getenvSlice("EXTENSIONS", c.Extensions)
	c.Exclude = getenvSlice("EXCLUDE", c.Exclude)

	c.Watch = mustBool("WATCH", c.Watch)
	c.SweepInterval = mustDuration("SWEEP_INTERVAL", c.SweepInterval)
	c.NotificationTTL = mustDuration("NOTIFICATION_TTL", c.NotificationTTL)

	c.AllowedHosts = getenvSlice("ALLOWED_HOSTS", c.AllowedHosts)
	c.AllowedCIDRS = parseAllowedIPs(getenv("ALLOWED_CIDRS", strings.Join(c.AllowedCIDRS, ",")))
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ListenAddr) == "":
		return errors.New("listen address is required")
	case c.CategoryBackend != BackendFile && c.CategoryBackend != BackendRedis:
		return fmt.Errorf("unknown category backend %q (want %q or %q)", c.CategoryBackend, BackendFile, BackendRedis)
	case c.CategoryBackend == BackendFile && c.CategoriesFile == "":
		return errors.New("categories file is required with the file backend")
	case c.CategoryBackend == BackendRedis && c.RedisAddr == "":
		return errors.New("redis address is required with the redis backend")
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown timeout must be > 0, got %v", c.ShutdownTimeout)
	case c.SweepInterval < 0:
		return fmt.Errorf("sweep interval must be >= 0, got %v", c.SweepInterval)
	case c.NotificationTTL <= 0:
		return fmt.Errorf("notification ttl must be > 0, got %v", c.NotificationTTL)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	return cp
}

func defaultCategoriesFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clipsort", "categories.json")
	}
	return "categories.json"
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return def
}

func getenvSlice(key string, def []string) []string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return splitAndTrim(v)
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
