package app

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/0tycat/Joelle-E-Portfolio/pkg/folioapi"
)

// Token store drivers accepted by FOLIO_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the CLI configuration. Values come from (lowest first) the
// env-default tags, an optional YAML file, .env and the process environment.
type Config struct {
	Topology string `yaml:"topology" env:"FOLIO_TOPOLOGY" env-default:"composite" validate:"oneof=composite per-service"`
	APIURL   string `yaml:"api_url" env:"FOLIO_API_URL" env-default:"http://127.0.0.1:8000" validate:"url"`
	AuthURL  string `yaml:"auth_url" env:"FOLIO_AUTH_URL" env-default:"http://127.0.0.1:5005" validate:"url"`

	Services ServicesConfig `yaml:"services"`
	Store    StoreConfig    `yaml:"store"`
	Session  SessionConfig  `yaml:"session"`

	// MetricsAddr, when set, serves /metrics while the shell runs.
	MetricsAddr string `yaml:"metrics_addr" env:"FOLIO_METRICS_ADDR"`

	Env       string `yaml:"env" env:"ENV" env-default:"prod"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"warn"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=json text"`
}

// ServicesConfig holds the per-service base URLs.
type ServicesConfig struct {
	Skills     string `yaml:"skills" env:"FOLIO_SKILLS_URL" env-default:"http://127.0.0.1:5000" validate:"url"`
	Education  string `yaml:"education" env:"FOLIO_EDUCATION_URL" env-default:"http://127.0.0.1:5001" validate:"url"`
	Work       string `yaml:"work" env:"FOLIO_WORK_URL" env-default:"http://127.0.0.1:5002" validate:"url"`
	Community  string `yaml:"community" env:"FOLIO_COMMUNITY_URL" env-default:"http://127.0.0.1:5003" validate:"url"`
	Projects   string `yaml:"projects" env:"FOLIO_PROJECTS_URL" env-default:"http://127.0.0.1:5004" validate:"url"`
	EPortfolio string `yaml:"e_portfolio" env:"FOLIO_EPORTFOLIO_URL" env-default:"http://127.0.0.1:5006" validate:"url"`
}

// StoreConfig selects where tokens persist between invocations.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"FOLIO_STORE" env-default:"sqlite" validate:"oneof=memory sqlite redis"`
	// Path is the sqlite file. Empty means <user config dir>/folio/tokens.db.
	Path string `yaml:"path" env:"FOLIO_STORE_PATH"`

	RedisAddr     string `yaml:"redis_addr" env:"FOLIO_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPassword string `yaml:"redis_password" env:"FOLIO_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"FOLIO_REDIS_DB" env-default:"0" validate:"gte=0"`
	RedisPrefix   string `yaml:"redis_prefix" env:"FOLIO_REDIS_PREFIX" env-default:"folio:"`
}

// SessionConfig tunes the inactivity monitor.
type SessionConfig struct {
	Timeout     time.Duration `yaml:"timeout" env:"FOLIO_SESSION_TIMEOUT" env-default:"30m" validate:"gt=0"`
	WarningLead time.Duration `yaml:"warning" env:"FOLIO_SESSION_WARNING" env-default:"5m" validate:"gt=0,ltfield=Timeout"`
}

// LoadConfig reads path (or FOLIO_CONFIG) when given, overlaid by the
// environment, and validates the result.
func LoadConfig(path string) (Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("FOLIO_CONFIG")
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %q stat failed: %w", path, err)
		}
		// ReadConfig applies the env overlay itself.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ResourceTopology builds the resource topology the config selects.
func (c Config) ResourceTopology() folioapi.Topology {
	if c.Topology == folioapi.TopologyPerService {
		return folioapi.PerService(folioapi.ServiceURLs{
			Skills:     c.Services.Skills,
			Education:  c.Services.Education,
			Work:       c.Services.Work,
			Projects:   c.Services.Projects,
			Community:  c.Services.Community,
			EPortfolio: c.Services.EPortfolio,
		})
	}
	return folioapi.Composite(c.APIURL)
}
