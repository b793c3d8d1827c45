package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Okapi     OkapiConfig     `mapstructure:"okapi"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Retention RetentionConfig `mapstructure:"retention"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Env         string `mapstructure:"env"`
	DefaultLang string `mapstructure:"default_lang"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type OkapiConfig struct {
	// URL is the gateway endpoint used when a request carries no X-Okapi-Url header.
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// ServiceToken authenticates Kafka-driven commands against the gateway.
	ServiceToken string `mapstructure:"service_token"`
}

type RedisConfig struct {
	// Addr left empty disables the event-config cache.
	Addr           string        `mapstructure:"addr"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	EventConfigTTL time.Duration `mapstructure:"event_config_ttl"`
}

type KafkaConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	Brokers         []string `mapstructure:"brokers"`
	ConsumerGroupID string   `mapstructure:"consumer_group_id"`
	Topics          []string `mapstructure:"topics"`
}

type RetentionConfig struct {
	Days int `mapstructure:"days"` // Default: 365
	// SweepSchedule is a cron spec for the tenant-wide sweep; empty turns it off.
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// Load reads configuration from environment variables and config files.
// Environment variables override file values. Prefix: ARDA_NOTIFY_
func Load() (*Config, error) {
	// .env is a local-development convenience; its absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	// Environment variables (e.g. ARDA_NOTIFY_DATABASE_HOST -> database.host)
	v.SetEnvPrefix("ARDA_NOTIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also support simple env vars without prefix for Docker Compose convenience
	_ = v.BindEnv("database.host", "ARDA_NOTIFY_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "ARDA_NOTIFY_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.name", "ARDA_NOTIFY_DATABASE_NAME", "DB_NAME")
	_ = v.BindEnv("database.user", "ARDA_NOTIFY_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "ARDA_NOTIFY_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("okapi.url", "ARDA_NOTIFY_OKAPI_URL", "OKAPI_URL")
	_ = v.BindEnv("redis.addr", "ARDA_NOTIFY_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("kafka.brokers", "ARDA_NOTIFY_KAFKA_BROKERS", "KAFKA_BROKERS")
	_ = v.BindEnv("server.port", "ARDA_NOTIFY_SERVER_PORT", "PORT")

	// Try loading config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.default_lang", "en")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "arda_notify")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("okapi.url", "http://localhost:9130")
	v.SetDefault("okapi.timeout", 10*time.Second)
	v.SetDefault("okapi.service_token", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.event_config_ttl", 30*time.Second)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group_id", "arda-notify-group")
	v.SetDefault("kafka.topics", []string{"notify-commands"})
	v.SetDefault("retention.days", 365)
	v.SetDefault("retention.sweep_schedule", "")
	v.SetDefault("auth.jwt_secret", "")
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port must be set"))
	}
	if c.Retention.Days <= 0 {
		errs = append(errs, fmt.Errorf("retention.days must be positive, got %d", c.Retention.Days))
	}
	if c.Okapi.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("okapi.timeout must be positive, got %s", c.Okapi.Timeout))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers must be set when kafka is enabled"))
	}
	return errors.Join(errs...)
}

// Window returns the retention window as a duration.
func (r RetentionConfig) Window() time.Duration {
	return time.Duration(r.Days) * 24 * time.Hour
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	dsn := "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" dbname=" + d.Name +
		" user=" + d.User +
		" password=" + d.Password +
		" sslmode=disable"
	if d.MaxConns > 0 {
		dsn += " pool_max_conns=" + strconv.Itoa(int(d.MaxConns))
	}
	return dsn
}
