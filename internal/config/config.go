// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Index backends.
const (
	IndexElastic = "elastic"
	IndexSQL     = "sql"
)

// Config is the full process configuration.
type Config struct {
	ProjectName string `env:"PROJECT_NAME" envDefault:"movies"`

	Redis   Redis   `envPrefix:"REDIS_"`
	Elastic Elastic `envPrefix:"ELASTIC_"`
	Cache   Cache   `envPrefix:"CACHE_"`
	Index   Index   `envPrefix:"INDEX_"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Redis holds the redis connection settings.
type Redis struct {
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     int    `env:"PORT" envDefault:"6379"`
	DB       int    `env:"DB" envDefault:"0"`
	Password string `env:"PASSWORD"`
}

// Addr returns host:port.
func (r Redis) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// Elastic holds the Elasticsearch connection settings.
type Elastic struct {
	Scheme   string `env:"SCHEME" envDefault:"http"`
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     int    `env:"PORT" envDefault:"9200"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// Address returns the cluster URL.
func (e Elastic) Address() string {
	return e.Scheme + "://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Cache selects and tunes the cache store.
type Cache struct {
	Backend  string        `env:"BACKEND" envDefault:"redis"`
	TTL      time.Duration `env:"TTL" envDefault:"5m"`
	Capacity int           `env:"CAPACITY" envDefault:"10000"`
}

// Index selects the search index. The sql backend serves the collections
// from a sqlite database at DSN instead of Elasticsearch.
type Index struct {
	Backend string `env:"BACKEND" envDefault:"elastic"`
	DSN     string `env:"DSN" envDefault:"file:movies.db"`
}

// Load reads the optional dotenv file at path into the environment, then
// parses and validates the configuration. Variables already set in the
// environment win over the file. An empty path skips the file.
func Load(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.ProjectName, validation.Required),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("json", "console")),
	)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	err = validation.ValidateStruct(&c.Cache,
		validation.Field(&c.Cache.Backend, validation.Required, validation.In(BackendRedis, BackendMemory)),
		validation.Field(&c.Cache.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Cache.Capacity, validation.When(c.Cache.Backend == BackendMemory, validation.Required, validation.Min(1))),
	)
	if err != nil {
		return fmt.Errorf("config cache: %w", err)
	}

	err = validation.ValidateStruct(&c.Redis,
		validation.Field(&c.Redis.Host, validation.When(c.Cache.Backend == BackendRedis, validation.Required)),
		validation.Field(&c.Redis.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Redis.DB, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("config redis: %w", err)
	}

	err = validation.ValidateStruct(&c.Index,
		validation.Field(&c.Index.Backend, validation.Required, validation.In(IndexElastic, IndexSQL)),
		validation.Field(&c.Index.DSN, validation.When(c.Index.Backend == IndexSQL, validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("config index: %w", err)
	}

	elastic := c.Index.Backend == IndexElastic
	err = validation.ValidateStruct(&c.Elastic,
		validation.Field(&c.Elastic.Scheme, validation.When(elastic, validation.Required, validation.In("http", "https"))),
		validation.Field(&c.Elastic.Host, validation.When(elastic, validation.Required)),
		validation.Field(&c.Elastic.Port, validation.When(elastic, validation.Required, validation.Min(1), validation.Max(65535))),
	)
	if err != nil {
		return fmt.Errorf("config elastic: %w", err)
	}
	return nil
}

// String renders the configuration with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "project=%s log=%s/%s\n", c.ProjectName, c.LogLevel, c.LogFormat)
	fmt.Fprintf(&sb, "cache backend=%s ttl=%s capacity=%d\n", c.Cache.Backend, c.Cache.TTL, c.Cache.Capacity)
	fmt.Fprintf(&sb, "index backend=%s dsn=%s\n", c.Index.Backend, c.Index.DSN)
	fmt.Fprintf(&sb, "redis addr=%s db=%d password=%s\n", c.Redis.Addr(), c.Redis.DB, mask(c.Redis.Password))
	fmt.Fprintf(&sb, "elastic address=%s username=%s password=%s\n", c.Elastic.Address(), c.Elastic.Username, mask(c.Elastic.Password))
	return sb.String()
}

func mask(secret string) string {
	if secret == "" {
		return "(empty)"
	}
	return "********"
}
