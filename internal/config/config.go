package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backends de persistencia soportados.
const (
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8001"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"dailydevq:"`

	AWSRegion               string `env:"AWS_REGION" envDefault:"ap-northeast-2"`
	AWSProfile              string `env:"AWS_PROFILE"`
	DynamoDBEndpoint        string `env:"DYNAMODB_ENDPOINT"`
	DynamoDBTablePrefix     string `env:"DYNAMODB_TABLE_PREFIX" envDefault:"dailydevq-dev"`
	DynamoDBUsersTable      string `env:"DYNAMODB_USERS_TABLE" envDefault:"users"`
	DynamoDBEmailIndex      string `env:"DYNAMODB_EMAIL_INDEX" envDefault:"email-index"`
	DynamoDBExternalIDIndex string `env:"DYNAMODB_EXTERNAL_ID_INDEX"`

	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpireHours int    `env:"JWT_EXPIRE_HOURS" envDefault:"24"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:3000/auth/google/callback"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"noreply@dailydevq.dev"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"DailyDevQ"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadConfig carga la configuración desde variables de entorno y la valida
// para el backend elegido.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load lee el entorno sin validar el backend. Lo usan los comandos de
// mantenimiento, que validan solo lo que necesitan.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	return &cfg, nil
}

// Validate revisa los requisitos propios del backend elegido.
func (c *Config) Validate() error {
	if err := c.ValidateBackend(c.StoreBackend); err != nil {
		return err
	}
	if c.JWTExpireHours <= 0 {
		return errors.New("JWT_EXPIRE_HOURS must be positive")
	}
	return nil
}

// ValidateBackend revisa las variables que necesita backend.
func (c *Config) ValidateBackend(backend string) error {
	switch backend {
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for postgres backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("REDIS_ADDR is required for redis backend")
		}
	case BackendDynamoDB:
		if strings.TrimSpace(c.DynamoDBUsersTable) == "" {
			return errors.New("DYNAMODB_USERS_TABLE is required for dynamodb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", backend)
	}
	return nil
}

// UsersTableName devuelve el nombre completo de la tabla DynamoDB de usuarios.
func (c *Config) UsersTableName() string {
	if c.DynamoDBTablePrefix == "" {
		return c.DynamoDBUsersTable
	}
	return c.DynamoDBTablePrefix + "-" + c.DynamoDBUsersTable
}

// TokenTTL es la vigencia de los tokens de sesión.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpireHours) * time.Hour
}

// AllowedOrigins separa CORS_ORIGINS por comas.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
