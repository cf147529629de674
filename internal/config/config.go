package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the storefront auth service.
type Config struct {
	Addr        string `env:"ADDR,default=:8080"`
	Environment string `env:"ENVIRONMENT,default=development"`
	BaseURL     string `env:"BASE_URL,default=http://localhost:8080"`
	DBDSN       string `env:"DB_DSN,required"`

	JWTSigningKey    string        `env:"JWT_SIGNING_KEY,required"`
	SessionCookie    string        `env:"SESSION_COOKIE,default=fractal_session"`
	SessionMaxAge    time.Duration `env:"SESSION_MAX_AGE,default=15m"`
	SessionUpdateAge time.Duration `env:"SESSION_UPDATE_AGE,default=5m"`

	PinTTL         time.Duration `env:"PIN_TTL,default=10m"`
	PinMaxAttempts int           `env:"PIN_MAX_ATTEMPTS,default=3"`
	PinFailClosed  bool          `env:"PIN_FAIL_CLOSED,default=false"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASS"`
	MailFrom     string `env:"MAIL_FROM,default=Fractal Shop <no-reply@fractalshop.dev>"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	NATSURL        string   `env:"NATS_URL"`
	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`

	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE,default=false"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Production reports whether the service runs with production hardening,
// which disables the operational PIN log.
func (c Config) Production() bool {
	return c.Environment == "production"
}
