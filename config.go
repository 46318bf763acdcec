package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the process-wide settings the core is constructed with.
// The signing key and algorithm are fixed for the life of the Service.
type Config struct {
	SigningKey      string        `env:"IDENTITY_SIGNING_KEY"`
	Issuer          string        `env:"IDENTITY_ISSUER" envDefault:"go-identity"`
	AccessTokenTTL  time.Duration `env:"IDENTITY_ACCESS_TOKEN_TTL" envDefault:"120m"`
	ConfirmTokenTTL time.Duration `env:"IDENTITY_CONFIRM_TOKEN_TTL" envDefault:"24h"`
	ResetTokenTTL   time.Duration `env:"IDENTITY_RESET_TOKEN_TTL" envDefault:"1h"`
	CacheTTL        time.Duration `env:"IDENTITY_CACHE_TTL" envDefault:"300s"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse identity config from env")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings a Service cannot run without.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.Issuer, validation.Required),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid identity config")
	}

	if c.AccessTokenTTL <= 0 || c.ConfirmTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return goerrors.New("token TTLs must be positive", goerrors.CategoryValidation)
	}

	if c.CacheTTL <= 0 {
		return goerrors.New("cache TTL must be positive", goerrors.CategoryValidation)
	}

	return nil
}
