package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Internal InternalConfig
	Events   EventsConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	LogLevel    string
	LogFormat   string
}

type DatabaseConfig struct {
	Driver     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration

	MigrationsDir string
	AutoMigrate   bool
}

type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	IdempotencyTTL time.Duration
}

type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessExpiresIn time.Duration
}

type InternalConfig struct {
	Token string
}

type EventsConfig struct {
	SNSTopicARN    string
	AWSRegion      string
	PublishTimeout time.Duration
}

const (
	DriverPgx    = "pgx"
	DriverPq     = "pq"
	DriverMemory = "memory"
)

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", DriverPgx)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_CONNECT_TIMEOUT", 5*time.Second)
	v.SetDefault("DB_POOL_MAX_CONNS", 10)
	v.SetDefault("DB_MIGRATIONS_DIR", "migrations")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	v.SetDefault("JWT_ISSUER", "gig-escrow")
	v.SetDefault("JWT_ACCESS_EXPIRES_IN", 15*time.Minute)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("EVENTS_PUBLISH_TIMEOUT", 5*time.Second)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		s := strings.TrimSpace(v.GetString(key))
		if s == "" {
			missing = append(missing, key)
		}
		return s
	}
	opt := func(key string) string {
		return strings.TrimSpace(v.GetString(key))
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: opt("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
		LogLevel:    opt("LOG_LEVEL"),
		LogFormat:   opt("LOG_FORMAT"),
	}

	driver := strings.ToLower(opt("DB_DRIVER"))
	cfg.Database = DatabaseConfig{
		Driver:                driver,
		DBPassword:            opt("DB_PASSWORD"),
		DBSSLMode:             opt("DB_SSL_MODE"),
		ConnectTimeout:        v.GetDuration("DB_CONNECT_TIMEOUT"),
		PoolMaxConns:          v.GetInt32("DB_POOL_MAX_CONNS"),
		PoolMinConns:          v.GetInt32("DB_POOL_MIN_CONNS"),
		PoolMaxConnLifetime:   v.GetDuration("DB_POOL_MAX_CONN_LIFETIME"),
		PoolMaxConnIdleTime:   v.GetDuration("DB_POOL_MAX_CONN_IDLE_TIME"),
		PoolHealthCheckPeriod: v.GetDuration("DB_POOL_HEALTH_CHECK_PERIOD"),
		MigrationsDir:         opt("DB_MIGRATIONS_DIR"),
		AutoMigrate:           v.GetBool("DB_AUTO_MIGRATE"),
	}
	switch driver {
	case DriverPgx, DriverPq:
		cfg.Database.DBHost = req("DB_HOST")
		cfg.Database.DBPort = req("DB_PORT")
		cfg.Database.DBName = req("DB_NAME")
		cfg.Database.DBUser = req("DB_USER")
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	cfg.Redis = RedisConfig{
		Host:           opt("REDIS_HOST"),
		Port:           opt("REDIS_PORT"),
		Password:       opt("REDIS_PASSWORD"),
		IdempotencyTTL: v.GetDuration("IDEMPOTENCY_TTL"),
	}

	cfg.JWT = JWTConfig{
		Secret:          req("JWT_SECRET"),
		Issuer:          opt("JWT_ISSUER"),
		AccessExpiresIn: v.GetDuration("JWT_ACCESS_EXPIRES_IN"),
	}

	cfg.Internal = InternalConfig{
		Token: req("INTERNAL_API_TOKEN"),
	}

	cfg.Events = EventsConfig{
		SNSTopicARN:    opt("EVENTS_SNS_TOPIC_ARN"),
		AWSRegion:      opt("AWS_REGION"),
		PublishTimeout: v.GetDuration("EVENTS_PUBLISH_TIMEOUT"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
