package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host        string   `yaml:"host"`
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		// Driver is one of postgres, mysql or sqlite
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		Path     string `yaml:"path"`
	} `yaml:"database"`

	AI struct {
		Provider        string        `yaml:"provider"`
		Model           string        `yaml:"model"`
		BaseURL         string        `yaml:"baseURL"`
		OpenAIAPIKey    string        `yaml:"openaiAPIKey"`
		AnthropicAPIKey string        `yaml:"anthropicAPIKey"`
		Temperature     *float64      `yaml:"temperature"` // nil when unset, so 0 stays configurable
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"ai"`

	Analysis struct {
		Concurrency int `yaml:"concurrency"`
		// RatePerMinute limits POST /api/analyze per client; 0 disables it
		RatePerMinute int `yaml:"ratePerMinute"`
	} `yaml:"analysis"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load reads the yaml file at path (a missing file is fine), applies .env
// and environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	// .env is optional too
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, cfg.validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("HOST", &c.Server.Host)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_URL", &c.Database.URL)
	str("OPENAI_API_KEY", &c.AI.OpenAIAPIKey)
	str("ANTHROPIC_API_KEY", &c.AI.AnthropicAPIKey)
	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("AI_BASE_URL", &c.AI.BaseURL)

	if v, ok := lookup("PORT"); ok && v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = p
	}
	if v, ok := lookup("AI_TEMPERATURE"); ok && v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("AI_TEMPERATURE: %w", err)
		}
		c.AI.Temperature = &t
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, o)
			}
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.Path == "" {
		c.Database.Path = "ticket_assist.db"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	c.AI.Provider = strings.ToLower(c.AI.Provider)
	if c.AI.Temperature == nil {
		t := 0.3
		c.AI.Temperature = &t
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = 1
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported ai provider %q", c.AI.Provider)
	}
	return nil
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// APIKey returns the key of the selected provider; empty means no LLM
func (c *Config) APIKey() string {
	if c.AI.Provider == "anthropic" {
		return c.AI.AnthropicAPIKey
	}
	return c.AI.OpenAIAPIKey
}

// DSN returns the connection string for the configured driver.
// Database.URL wins when it is set.
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	switch c.Database.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "sqlite":
		return c.Database.Path
	default:
		return c.PostgresDSN()
	}
}

// MySQLDSN builds a go-sql-driver DSN with parseTime on
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
