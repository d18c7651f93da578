package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string    `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string    `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	JWT         JWT       `yaml:"jwt"`
	Database    Database  `yaml:"database"`
	Redis       Redis     `yaml:"redis"`
	Cache       Cache     `yaml:"cache"`
	Booking     Booking   `yaml:"booking"`
	Kafka       Kafka     `yaml:"kafka"`
	Worker      Worker    `yaml:"worker"`
	RateLimit   RateLimit `yaml:"rate_limit"`
	CORS        CORS      `yaml:"cors"`
	Log         Log       `yaml:"log"`
	Telemetry   Telemetry `yaml:"telemetry"`
	Admin       Admin     `yaml:"admin"`
}

type JWT struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET" env-default:""`
	Issuer string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"ticketbooking"`
	Expiry time.Duration `yaml:"expiry" env:"JWT_EXPIRY" env-default:"1h"`
}

type Database struct {
	Driver       string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	User         string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password     string `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	DatabaseName string `yaml:"database_name" env:"DB_NAME" env-default:"ticketbooking"`
	Host         string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"DB_PORT" env-default:"5432"`
	SSLMode      string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	AutoMigrate  bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`

	// Connection Pool Settings
	MaxOpenConns    int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	ConnMaxLifetime int `yaml:"conn_max_lifetime_minutes" env:"DB_CONN_MAX_LIFETIME" env-default:"30"`
}

func (d *Database) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DatabaseName, d.SSLMode)
}

type Redis struct {
	Host         string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port         string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB           int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	PoolSize     int           `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"20"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

func (r *Redis) GetRedisURL() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Cache controls the read-through cache in front of event reads. TagTTL must
// outlive every entry TTL so a live entry never drops out of its tag set.
type Cache struct {
	Driver   string        `yaml:"driver" env:"CACHE_DRIVER" env-default:"redis"`
	EventTTL time.Duration `yaml:"event_ttl" env:"CACHE_EVENT_TTL" env-default:"30s"`
	ListTTL  time.Duration `yaml:"list_ttl" env:"CACHE_LIST_TTL" env-default:"2m"`
	TagTTL   time.Duration `yaml:"tag_ttl" env:"CACHE_TAG_TTL" env-default:"24h"`
}

type Booking struct {
	TxTimeout   time.Duration `yaml:"tx_timeout" env:"BOOKING_TX_TIMEOUT" env-default:"5s"`
	LockTimeout time.Duration `yaml:"lock_timeout" env:"BOOKING_LOCK_TIMEOUT" env-default:"3s"`
}

type Kafka struct {
	Enabled           bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
	Brokers           []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092" env-separator:","`
	NotificationTopic string   `yaml:"notification_topic" env:"KAFKA_NOTIFICATION_TOPIC" env-default:"notification-requests"`
	ConsumerGroup     string   `yaml:"consumer_group" env:"KAFKA_CONSUMER_GROUP" env-default:"notification-worker"`
}

type Worker struct {
	MaxWorkers int    `yaml:"max_workers" env:"WORKER_MAX_WORKERS" env-default:"10"`
	HealthPort string `yaml:"health_port" env:"WORKER_HEALTH_PORT" env-default:"8084"`
}

type RateLimit struct {
	Enabled  bool          `yaml:"enabled" env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"20"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:3000" env-separator:","`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type Telemetry struct {
	Enabled       bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	ServiceName   string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"ticketbooking"`
	CollectorAddr string `yaml:"collector_addr" env:"OTEL_COLLECTOR_ADDR" env-default:"localhost:4317"`
}

// Admin is an optional bootstrap account created at startup when both fields
// are set.
type Admin struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-default:""`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-default:""`
}

func Initialise(configPath string, useEnv bool) (*Config, error) {
	cfg := &Config{}

	if useEnv {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment variables: %w", err)
		}
		return cfg, cfg.Validate()
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
			return cfg, cfg.Validate()
		}
	}

	// Fallback to environment variables
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment variables: %w", err)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting that would make the service unusable.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Cache.Driver {
	case DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unsupported cache driver %q", c.Cache.Driver)
	}
	if c.Cache.TagTTL < c.Cache.EventTTL || c.Cache.TagTTL < c.Cache.ListTTL {
		return errors.New("cache tag ttl must not be shorter than entry ttls")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required when kafka is enabled")
	}
	return nil
}
