// Package config loads service configuration from defaults, an optional
// config.yaml and YKSILO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. YKSILO_SERVER_ADDR.
const EnvPrefix = "YKSILO"

type Config struct {
	Server      Server          `mapstructure:"server"`
	Log         Log             `mapstructure:"log"`
	Database    Database        `mapstructure:"database"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Kafka       Kafka           `mapstructure:"kafka"`
	Session     Session         `mapstructure:"session"`
	Admin       Admin           `mapstructure:"admin"`
	ExternalAPI ExternalAPI     `mapstructure:"external_api"`
	Pagination  Pagination      `mapstructure:"pagination"`
	Koodisto    Koodisto        `mapstructure:"koodisto"`
	CORS        CORS            `mapstructure:"cors"`
	Languages   []string        `mapstructure:"languages"`
	Features    map[string]bool `mapstructure:"features"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database is optional. Without a DSN the service runs on in-memory stores.
type Database struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// RedisConfig is optional. Without a URL feature overrides stay in memory.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Kafka is optional. Without brokers audit events are only stored locally.
type Kafka struct {
	Brokers    []string `mapstructure:"brokers"`
	AuditTopic string   `mapstructure:"audit_topic"`
	Partitions int32    `mapstructure:"partitions"`
}

type Session struct {
	SigningKey string `mapstructure:"signing_key"`
	Issuer     string `mapstructure:"issuer"`
	Audience   string `mapstructure:"audience"`
}

type Admin struct {
	Token string `mapstructure:"token"`
}

// ExternalAPI configures the partner API key gate. An empty key rejects
// every partner request.
type ExternalAPI struct {
	Header string `mapstructure:"header"`
	Key    string `mapstructure:"key"`
}

type Pagination struct {
	MaxPageSize int `mapstructure:"max_page_size"`
}

// Koodisto controls the reference data snapshot. A zero refresh interval
// disables periodic reloads; the admin refresh endpoint always works.
type Koodisto struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 20*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.migrate", true)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "yksilo.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("session.signing_key", "")
	v.SetDefault("session.issuer", "")
	v.SetDefault("session.audience", "")
	v.SetDefault("admin.token", "")
	v.SetDefault("external_api.header", "X-Api-Key")
	v.SetDefault("external_api.key", "")
	v.SetDefault("pagination.max_page_size", 1000)
	v.SetDefault("koodisto.refresh_interval", 15*time.Minute)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("languages", []string{"fi", "sv", "en"})
	v.SetDefault("features.paamaarat", true)
	v.SetDefault("features.osaamiset", true)
	v.SetDefault("features.tyomahdollisuudet", true)
	v.SetDefault("features.koulutusmahdollisuudet", true)
	v.SetDefault("features.ulkoinen_api", false)
}

// Load reads configuration. configDir may be empty, in which case only the
// working directory is searched for config.yaml. A missing file is not an
// error.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.Errors{
		"server.addr":               validation.Validate(c.Server.Addr, validation.Required),
		"log.format":                validation.Validate(c.Log.Format, validation.In("json", "text")),
		"log.level":                 validation.Validate(strings.ToLower(c.Log.Level), validation.In("debug", "info", "warn", "error")),
		"pagination.max_page_size":  validation.Validate(c.Pagination.MaxPageSize, validation.Required, validation.Min(1)),
		"koodisto.refresh_interval": validation.Validate(int64(c.Koodisto.RefreshInterval), validation.Min(int64(0))),
		"languages":                 validation.Validate(c.Languages, validation.Required),
		"kafka.audit_topic":         validation.Validate(c.Kafka.AuditTopic, validation.When(len(c.Kafka.Brokers) > 0, validation.Required)),
	}.Filter()
}
