package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for both the dashboard proxy and the offers backend.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Log      LogConfig
	Upstream UpstreamConfig
	Proxy    ProxyConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Storage  StorageConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string `envconfig:"SERVER_PORT" default:"3000"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"30"` // seconds
	BodyLimitMB     int    `envconfig:"BODY_LIMIT_MB" default:"10"`
}

// DBConfig holds database-related configuration.
// WARNING: Default password is for local development only.
// In production, set DB_SSLMODE to "require" or "verify-full".
type DBConfig struct {
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       int    `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"postgres"`
	Password   string `envconfig:"DB_PASSWORD" default:"postgres"` // CHANGE IN PRODUCTION
	Name       string `envconfig:"DB_NAME" default:"offers_db"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns   int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns   int    `envconfig:"DB_MIN_CONNS" default:"5"`
	MaxRetries int    `envconfig:"DB_MAX_RETRIES" default:"5"`
}

// DSN returns the PostgreSQL connection string.
// Pool sizes are appended only when set.
func (c DBConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)
	if c.MaxConns > 0 {
		q.Set("pool_max_conns", fmt.Sprint(c.MaxConns))
	}
	if c.MinConns > 0 {
		q.Set("pool_min_conns", fmt.Sprint(c.MinConns))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// UpstreamConfig points the dashboard proxy at the remote offers API.
// A zero Timeout leaves the HTTP client default in place.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"UPSTREAM_BASE_URL" default:"http://localhost:4000/api"`
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"0s"`
}

// ProxyConfig lists the resources forwarded verbatim by the dashboard proxy.
type ProxyConfig struct {
	Resources []string `envconfig:"PROXY_RESOURCES" default:"addresses,orders,products,staff,services,reviews,salons,bookings"`
}

// MinJWTSecretLength is the shortest HS256 key the backend accepts (256 bits).
const MinJWTSecretLength = 32

// AuthConfig holds the offers backend token settings. JWT_SECRET has no default;
// only the backend needs it, so Load does not require it.
type AuthConfig struct {
	JWTSecret    string   `envconfig:"JWT_SECRET"`
	ManagerRoles []string `envconfig:"AUTH_MANAGER_ROLES" default:"owner,admin"`
}

// Validate reports whether tokens can be verified safely with this configuration.
func (c AuthConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.JWTSecret) == "":
		return errors.New("JWT_SECRET is required")
	case len(c.JWTSecret) < MinJWTSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength)
	case len(c.ManagerRoles) == 0:
		return errors.New("AUTH_MANAGER_ROLES must name at least one role")
	}
	return nil
}

// RedisConfig holds the public listing cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"PUBLIC_CACHE_TTL" default:"30s"`
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// StorageConfig holds the S3-compatible image bucket settings. An empty Bucket disables uploads.
type StorageConfig struct {
	Endpoint      string `envconfig:"S3_ENDPOINT"`
	Region        string `envconfig:"S3_REGION" default:"auto"`
	Bucket        string `envconfig:"S3_BUCKET"`
	AccessKey     string `envconfig:"S3_ACCESS_KEY"`
	SecretKey     string `envconfig:"S3_SECRET_KEY"`
	PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
}

// Enabled reports whether an image bucket is configured.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads an optional .env file and then parses environment variables into the Config struct.
// Variables already present in the environment take precedence over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
