package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "DATASCOPE"

type Config struct {
	Env           string              `mapstructure:"env" envconfig:"APP_ENV" default:"development" validate:"required,oneof=development staging production test"`
	Server        ServerConfig        `mapstructure:"http_server" envconfig:"HTTP"`
	Database      DatabaseConfig      `mapstructure:"database" envconfig:"DATABASE"`
	Redis         RedisConfig         `mapstructure:"redis" envconfig:"REDIS"`
	Security      SecurityConfig      `mapstructure:"security" envconfig:"SECURITY" validate:"required"`
	Permissions   PermissionsConfig   `mapstructure:"permissions" envconfig:"PERMISSIONS"`
	Notifications NotificationsConfig `mapstructure:"notifications" envconfig:"NOTIFICATIONS"`
	Worker        WorkerConfig        `mapstructure:"worker" envconfig:"WORKER"`
	Observability ObservabilityConfig `mapstructure:"observability" envconfig:"OBSERVABILITY"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	BaseURL           string        `mapstructure:"base_url" envconfig:"BASE_URL" default:"http://localhost:8080"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	OpenAPIPath       string        `mapstructure:"openapi_path" envconfig:"OPENAPI_PATH" default:"./api/openapi.yml"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"MAX_OPEN_CONNS" default:"20" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"MAX_IDLE_CONNS" default:"5" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"CONN_MAX_LIFETIME" default:"30m" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" envconfig:"CONN_MAX_IDLE_TIME" default:"5m" validate:"required,min=1m"`
	Source          string        `mapstructure:"source" envconfig:"SOURCE" validate:"required"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" envconfig:"ENABLED" default:"false"`
	Addr     string `mapstructure:"addr" envconfig:"ADDR" default:"127.0.0.1:6379" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"DB" default:"0" validate:"min=0,max=15"`
}

type SecurityConfig struct {
	// JWTSecret is the shared HS256 secret of the identity backend that issues access tokens.
	JWTSecret       string        `mapstructure:"jwt_secret" envconfig:"JWT_SECRET" validate:"required,min=32"`
	JWTIssuer       string        `mapstructure:"jwt_issuer" envconfig:"JWT_ISSUER"`
	DevTokenTTL     time.Duration `mapstructure:"dev_token_ttl" envconfig:"DEV_TOKEN_TTL" default:"1h" validate:"min=1m"`
	PublicRateLimit int           `mapstructure:"public_rate_limit" envconfig:"PUBLIC_RATE_LIMIT" default:"30" validate:"min=1"`
}

type PermissionsConfig struct {
	Cache       string        `mapstructure:"cache" envconfig:"CACHE" default:"memory" validate:"oneof=memory redis"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl" envconfig:"CACHE_TTL" default:"5m" validate:"min=1s"`
	LoadTimeout time.Duration `mapstructure:"load_timeout" envconfig:"LOAD_TIMEOUT" default:"2s" validate:"min=100ms"`
}

type NotificationsConfig struct {
	Store             string        `mapstructure:"store" envconfig:"STORE" default:"memory" validate:"oneof=memory postgres"`
	MaxPerUser        int           `mapstructure:"max_per_user" envconfig:"MAX_PER_USER" default:"200" validate:"min=1"`
	ToastChannel      string        `mapstructure:"toast_channel" envconfig:"TOAST_CHANNEL" default:"datascope:toasts"`
	WebhookURL        string        `mapstructure:"webhook_url" envconfig:"WEBHOOK_URL" validate:"omitempty,url"`
	WebhookWorkers    int           `mapstructure:"webhook_workers" envconfig:"WEBHOOK_WORKERS" default:"4" validate:"min=0"`
	WebhookQueueSize  int           `mapstructure:"webhook_queue_size" envconfig:"WEBHOOK_QUEUE_SIZE" default:"100" validate:"min=0"`
	WebhookTimeout    time.Duration `mapstructure:"webhook_timeout" envconfig:"WEBHOOK_TIMEOUT" default:"5s"`
	Retention         time.Duration `mapstructure:"retention" envconfig:"RETENTION" default:"720h" validate:"min=1h"`
	PruneCronSchedule string        `mapstructure:"prune_cron" envconfig:"PRUNE_CRON" default:"0 3 * * *"`
}

type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency" envconfig:"CONCURRENCY" default:"5" validate:"min=1"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics" envconfig:"METRICS"`
	Logging LoggingConfig `mapstructure:"logging" envconfig:"LOGGING"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" envconfig:"ENABLED" default:"true"`
	Path    string `mapstructure:"path" envconfig:"PATH" default:"/metrics" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" envconfig:"LEVEL" default:"info" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" envconfig:"FORMAT" default:"text" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv reads DATASCOPE_* variables, e.g. DATASCOPE_DATABASE_SOURCE.
func LoadConfigFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if c.Permissions.Cache == "redis" && !c.Redis.Enabled {
		errs = append(errs, "permissions config: redis cache requires redis.enabled")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	for _, origin := range c.Origins() {
		if origin == "*" {
			continue
		}
		if _, err := url.Parse(origin); err != nil {
			return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *ServerConfig) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}
