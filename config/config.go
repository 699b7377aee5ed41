package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the public RadarCol scoring API
const DefaultBaseURL = "https://radarcol-model-api.onrender.com"

// BaseURLEnv overrides api.base_url when set
const BaseURLEnv = "RADARCOL_API_BASE_URL"

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	API        APIConfig        `yaml:"api"`
	Cache      CacheConfig      `yaml:"cache"`
	Pagination PaginationConfig `yaml:"pagination"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	RateLimit    int      `yaml:"rate_limit"` // requests per minute per client IP
	AllowOrigins []string `yaml:"allow_origins"`
}

// APIConfig locates the remote scoring API. AnalysisPath is a format string taking the contract ID.
type APIConfig struct {
	BaseURL          string `yaml:"base_url"`
	ContractsPath    string `yaml:"contracts_path"`
	AnalysisPath     string `yaml:"analysis_path"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	StrictRiskLevels bool   `yaml:"strict_risk_levels"`
}

// Timeout returns the transport timeout
func (c *APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSeconds int `yaml:"ttl_seconds"` // negative disables caching
}

// TTL returns the entry lifetime
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type PaginationConfig struct {
	DefaultPageSize int   `yaml:"default_page_size"`
	PageSizes       []int `yaml:"page_sizes"`
	FetchLimit      int   `yaml:"fetch_limit"` // 0 fetches without a limit parameter
}

// AllowsPageSize reports whether size is one of the offered page sizes
func (c *PaginationConfig) AllowsPageSize(size int) bool {
	for _, s := range c.PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

type StorageConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	UseSSL     bool   `yaml:"use_ssl"`
	ExpireDays int    `yaml:"expire_days"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv(BaseURLEnv); v != "" {
		cfg.API.BaseURL = v
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults fills every unset field
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 100
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.ContractsPath == "" {
		c.API.ContractsPath = "/contracts"
	}
	if c.API.AnalysisPath == "" {
		c.API.AnalysisPath = "/contracts/%s/analysis"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 10
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 100
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 30
	}
	if c.Pagination.DefaultPageSize == 0 {
		c.Pagination.DefaultPageSize = 10
	}
	if len(c.Pagination.PageSizes) == 0 {
		c.Pagination.PageSizes = []int{10, 25, 50, 100}
	}
	if c.Storage.Endpoint == "" {
		c.Storage.Endpoint = "localhost:9000"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "radarcol-reports"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}
	if c.Storage.ExpireDays == 0 {
		c.Storage.ExpireDays = 7
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
