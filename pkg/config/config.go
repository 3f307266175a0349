// Package config holds the environment-driven configuration shared by the
// server entrypoints. Structs carry cleanenv tags and are read with
// cleanenv.ReadEnv from cmd/server.
package config

import "fmt"

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `env:"DT_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"DT_PG_PORT" env-default:"5432"`
	Database string `env:"DT_PG_DATABASE" env-default:"device_trust"`
	User     string `env:"DT_PG_USER" env-default:"device_trust"`
	Password string `env:"DT_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"DT_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// JWTConfig holds access token settings
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer string `env:"JWT_ISSUER" env-default:"device-trust"`
}

// EmailConfig holds SMTP settings for OTP delivery
type EmailConfig struct {
	Host     string `env:"EMAIL_HOST" env-default:"localhost"`
	Port     uint16 `env:"EMAIL_PORT" env-default:"1025"`
	Username string `env:"EMAIL_USERNAME" env-default:"noreply@example.com"`
	Password string `env:"EMAIL_PASSWORD" env-default:"pwd"`
	From     string `env:"EMAIL_FROM" env-default:"noreply@example.com"`
	TLS      bool   `env:"EMAIL_TLS" env-default:"false"`
}

// GeoConfig holds geolocation enrichment settings
type GeoConfig struct {
	Enabled     bool   `env:"GEO_ENABLED" env-default:"true"`
	PrimaryURL  string `env:"GEO_PRIMARY_URL" env-default:""`
	FallbackURL string `env:"GEO_FALLBACK_URL" env-default:""`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port uint16 `env:"SERVER_PORT" env-default:"4000"`

	// Burst and sustained rate for the unauthenticated login and OTP
	// endpoints, per client address.
	LoginRateBurst     int     `env:"LOGIN_RATE_BURST" env-default:"10"`
	LoginRatePerMinute float64 `env:"LOGIN_RATE_PER_MINUTE" env-default:"10"`
}
