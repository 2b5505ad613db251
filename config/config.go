package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thewebalchemist76/immobiliare3/models"
)

const DefaultMaxPages = 3

type Config struct {
	Scheduler SchedulerConfig
	Scraper   ScraperConfig
	Proxy     ProxyConfig
	Postgres  PostgresConfig
	DBPath    string
	LogLevel  string
	Searches  map[string]*SearchConfig
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ScraperConfig struct {
	RequestTimeout time.Duration
	DelayMS        int
}

type ProxyConfig struct {
	URLs []string
}

type PostgresConfig struct {
	DBURL string
}

// SearchConfig describes one scrape session: which fetch path to use and
// the canonical filter set for it.
type SearchConfig struct {
	ID            string            `yaml:"id"`
	Name          string            `yaml:"name"`
	Handler       string            `yaml:"handler"` // api | browser
	MaxPages      int               `yaml:"max_pages"`
	RetryAttempts int               `yaml:"retry_attempts"`
	RetryBaseMS   int               `yaml:"retry_base_ms"`
	Endpoints     map[string]string `yaml:"endpoints"`
	Filters       models.FilterSet  `yaml:"filters"`
}

// DefaultEndpoints are the mobile-backend surfaces the API path talks to.
func DefaultEndpoints() map[string]string {
	return map[string]string{
		"list":   "https://api.immobiliare.it/v1/search/list",
		"geo":    "https://api.immobiliare.it/v1/geography/autocomplete",
		"detail": "https://api.immobiliare.it/v1/detail",
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: ScraperConfig{
			RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 30000)) * time.Millisecond,
			DelayMS:        getEnvInt("SCRAPE_DELAY_MS", 500),
		},
		Proxy: ProxyConfig{
			URLs: splitList(os.Getenv("PROXY_URLS")),
		},
		Postgres: PostgresConfig{
			DBURL: os.Getenv("POSTGRES_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		DBPath:   getEnv("DB_PATH", "scraper.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Searches: make(map[string]*SearchConfig),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSearchConfigs(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadSearchConfigs() error {
	configDir := getEnv("SEARCH_CONFIG_DIR", "config/searches")
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var search SearchConfig
		if err := yaml.Unmarshal(data, &search); err != nil {
			return err
		}
		search.ApplyDefaults()

		c.Searches[search.ID] = &search
	}

	return nil
}

// ApplyDefaults fills the documented defaults for absent fields. Loose
// external input is canonicalized here, at the boundary, never downstream.
func (s *SearchConfig) ApplyDefaults() {
	if s.Handler == "" {
		s.Handler = "api"
	}
	if s.MaxPages <= 0 {
		s.MaxPages = DefaultMaxPages
	}
	if s.Endpoints == nil {
		s.Endpoints = DefaultEndpoints()
	} else {
		for k, v := range DefaultEndpoints() {
			if s.Endpoints[k] == "" {
				s.Endpoints[k] = v
			}
		}
	}
	s.Filters.Operation = models.ParseOperation(string(s.Filters.Operation))
	s.Filters.Garden = models.ParseGarden(string(s.Filters.Garden))
	s.Filters.Sort = models.ParseSortOrder(string(s.Filters.Sort))
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
