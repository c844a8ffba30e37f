package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	IsDebug                 bool          `env:"DEBUG" envDefault:"false"`
	Secret                  string        `env:"SECRET,required,notEmpty"`
	PostgresqlURL           string        `env:"POSTGRESQL_URL,required,notEmpty"`
	MigrationsPath          string        `env:"MIGRATIONS_PATH"`
	SentryDsn               string        `env:"SENTRY_DSN"`
	Port                    int           `env:"PORT" envDefault:"5001"`
	AllowedOrigins          []string      `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RawAuthURL              string        `env:"AUTH_URL" envDefault:"http://localhost:5000/v3"`
	IdentityProviderTimeout time.Duration `env:"IDENTITY_PROVIDER_TIMEOUT" envDefault:"10s"`
	AdminAuthEnabled        bool          `env:"ADMIN_AUTH_ENABLED" envDefault:"true"`
	AdminProjectName        string        `env:"ADMIN_PROJECT_NAME" envDefault:"admin"`
	AdminProjectDomainID    string        `env:"ADMIN_PROJECT_DOMAIN_ID" envDefault:"default"`
	TokenExpirationSeconds  int           `env:"TOKEN_EXPIRATION_SECONDS" envDefault:"0"`
	RequirePin              bool          `env:"REQUIRE_PIN" envDefault:"true"`
	DeleteExpiredOnRedeem   bool          `env:"DELETE_EXPIRED_ON_REDEEM" envDefault:"false"`

	authURL url.URL
}

// AuthURL is the versioned identity API endpoint, e.g. http://keystone:5000/v3.
// The returned URL is a copy.
func (c *Config) AuthURL() *url.URL {
	u := c.authURL
	return &u
}

// TokenValidFor is the redemption window. Zero disables expiry.
func (c *Config) TokenValidFor() time.Duration {
	return time.Duration(c.TokenExpirationSeconds) * time.Second
}

func Load() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}

	if config.TokenExpirationSeconds < 0 {
		return nil, fmt.Errorf("invalid TOKEN_EXPIRATION_SECONDS value: %d", config.TokenExpirationSeconds)
	}
	if config.IdentityProviderTimeout <= 0 {
		return nil, fmt.Errorf("invalid IDENTITY_PROVIDER_TIMEOUT value: %s", config.IdentityProviderTimeout)
	}
	authURL, err := url.Parse(config.RawAuthURL)
	if err != nil || authURL.Scheme == "" || authURL.Host == "" {
		return nil, fmt.Errorf("invalid AUTH_URL value: %q", config.RawAuthURL)
	}
	config.authURL = *authURL

	return config, nil
}
