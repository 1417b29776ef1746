// Copyright (c) 2026 Passage. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct. A '.env' file in the working directory is loaded first when present,
so local development does not need exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Once loaded, configuration is read-only and passed to components via constructors.
The one runtime-mutable setting, the approved origin list, is seeded from here
into [cors.Origins].
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the Passage API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// RedisURL is optional. When set it backs readiness checks and the bounce poll lease.
	RedisURL string `env:"REDIS_URL"`

	// JWTSecret signs every bearer token (HS256).
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// Outbound mail (SMTP)
	Mail MailConfig `envPrefix:"MAIL_"`

	// Inbound bounce mailbox (IMAP)
	IMAP IMAPConfig `envPrefix:"IMAP_"`

	// Background jobs
	BouncePollInterval     time.Duration `env:"BOUNCE_POLL_INTERVAL"     envDefault:"5m"`
	SessionCleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`

	// CloudinaryURL has the form cloudinary://<key>:<secret>@<cloud>.
	CloudinaryURL string `env:"CLOUDINARY_URL"`

	// AMQPURL enables domain event publishing when set.
	AMQPURL string `env:"AMQP_URL"`

	// ApprovedOrigins seeds the runtime CORS registry.
	ApprovedOrigins []string `env:"APPROVED_ORIGINS" envSeparator:","`

	// LogoURL is substituted into transactional email templates.
	LogoURL string `env:"LOGO_URL"`

	// Web push key pair
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
}

// MailConfig describes the SMTP relay used by the mail gateway.
type MailConfig struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT"         envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	DisplayFrom string `env:"DISPLAY_FROM"`
}

// IMAPConfig describes the mailbox polled for bounce notifications.
// Credentials are shared with [MailConfig].
type IMAPConfig struct {
	Host               string `env:"HOST"`
	Port               int    `env:"PORT"                 envDefault:"993"`
	InsecureSkipVerify bool   `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Variables already present in the environment take precedence over the file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.IMAP.Host == "" {
		cfg.IMAP.Host = cfg.Mail.Host
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether enough SMTP settings exist to send mail.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.Username != ""
}

// BouncePollingEnabled reports whether the IMAP bounce mailbox can be polled.
func (c *Config) BouncePollingEnabled() bool {
	return c.IMAP.Host != "" && c.Mail.Username != "" && c.BouncePollInterval > 0
}
