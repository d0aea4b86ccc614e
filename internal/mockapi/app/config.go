package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string        `env:"MOCK_ADDR" env-default:":8000" validate:"required"`
	Issuer    string        `env:"MOCK_ISSUER" env-default:"folio-mock"`
	JWTSecret string        `env:"MOCK_JWT_SECRET"` // random per process when empty
	AccessTTL time.Duration `env:"MOCK_ACCESS_TTL" env-default:"15m" validate:"gt=0"`
	// RefreshTTL bounds how long an unused refresh token stays redeemable.
	RefreshTTL time.Duration `env:"MOCK_REFRESH_TTL" env-default:"168h" validate:"gt=0"`

	Email    string `env:"MOCK_EMAIL" env-default:"admin@example.com" validate:"required,email"`
	Password string `env:"MOCK_PASSWORD" env-default:"changeme" validate:"required"`
	Seed     bool   `env:"MOCK_SEED" env-default:"true"` // load sample records at startup

	Env                  string        `env:"ENV" env-default:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat            string        `env:"LOG_FORMAT" env-default:"json" validate:"oneof=json text"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" env-default:"1h"`
}

// LoadConfig reads .env (if any) and the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
