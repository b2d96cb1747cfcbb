// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/goliatone/go-quiz/auth"
	"github.com/goliatone/go-quiz/mailer"
)

// Config contains server configuration parameters.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"go-quiz"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:3000"`

	Server   Server   `envPrefix:"SERVER_"`
	Database Database `envPrefix:"DATABASE_"`
	Auth     Auth     `envPrefix:"AUTH_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
}

// Server contains HTTP server parameters.
type Server struct {
	Port int `env:"PORT" envDefault:"3000"`
}

// Database contains database connection parameters.
type Database struct {
	DSN string `env:"DSN" envDefault:"file:go-quiz.db?cache=shared&mode=rwc"`
}

// Auth contains session token and password parameters.
type Auth struct {
	SigningKey        string `env:"SIGNING_KEY" envDefault:"devsecret"`
	Issuer            string `env:"ISSUER" envDefault:"go-quiz"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"12"`
	PasswordMinLength int    `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`
}

// SMTP contains outbound mail relay parameters.
type SMTP struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"25"`
	Email    string `env:"EMAIL" envDefault:"noreply@localhost"`
	Password string `env:"PASSWORD"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

var _ auth.Config = (*Config)(nil)

func (c *Config) GetSigningKey() string { return c.Auth.SigningKey }

func (c *Config) GetIssuer() string { return c.Auth.Issuer }

func (c *Config) GetBcryptCost() int { return c.Auth.BcryptCost }

func (c *Config) GetPasswordMinLength() int { return c.Auth.PasswordMinLength }

func (c *Config) GetAppName() string { return c.AppName }

func (c *Config) GetBaseURL() string { return c.BaseURL }

// SmtpConfig adapts the SMTP section for the mailer.
func (c *Config) SmtpConfig() mailer.SmtpConfig {
	return mailer.SmtpConfig{
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Email:    c.SMTP.Email,
		Password: c.SMTP.Password,
	}
}
