package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAdminName is the privileged identity used when none is configured.
const DefaultAdminName = "露西"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"` // empty = in-memory store
	RedisURL    string `yaml:"redis_url"`    // empty = no snapshot cache, local events only
	CORSOrigins string `yaml:"cors_origins"`
	// AdminName is compared verbatim; AdminNameBcrypt, when set, wins.
	AdminName       string        `yaml:"admin_name"`
	AdminNameBcrypt string        `yaml:"admin_name_bcrypt"`
	ListCacheTTL    time.Duration `yaml:"list_cache_ttl"`
	PostRateLimit   int           `yaml:"post_rate_limit"` // per IP per minute
}

type ClientConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	ToastDuration   time.Duration `yaml:"toast_duration"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	DataDir         string        `yaml:"data_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + string(os.PathSeparator) + ".ghosttram"
	}
	return ".ghosttram"
}

// Load reads .env (if present), environment variables, and then overlays
// the YAML file named by GUESTBOOK_CONFIG.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8082"),
			DatabaseURL:     getEnv("DATABASE_URL", ""),
			RedisURL:        getEnv("REDIS_URL", ""),
			CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
			AdminName:       getEnv("ADMIN_NAME", DefaultAdminName),
			AdminNameBcrypt: getEnv("ADMIN_NAME_BCRYPT", ""),
			ListCacheTTL:    getDurationEnv("LIST_CACHE_TTL", 15*time.Second),
			PostRateLimit:   getIntEnv("POST_RATE_LIMIT", 10),
		},
		Client: ClientConfig{
			Endpoint:        getEnv("GUESTBOOK_ENDPOINT", "http://localhost:8082/api/guestbook"),
			RefreshInterval: getDurationEnv("REFRESH_INTERVAL", 10*time.Second),
			ToastDuration:   getDurationEnv("TOAST_DURATION", 3*time.Second),
			RequestTimeout:  getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
			DataDir:         getEnv("GUESTBOOK_DATA_DIR", defaultDataDir()),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if path := os.Getenv("GUESTBOOK_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.AdminName) == "" && c.Server.AdminNameBcrypt == "" {
		return fmt.Errorf("config: admin_name or admin_name_bcrypt must be set")
	}
	if c.Client.RefreshInterval <= 0 {
		return fmt.Errorf("config: refresh_interval must be positive")
	}
	if c.Client.Endpoint == "" {
		return fmt.Errorf("config: endpoint must be set")
	}
	return nil
}
