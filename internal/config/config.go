package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig captures all tunable parameters for the HTTP API process.
// Values come from the environment (optionally seeded from a .env file) or
// from the file named by CONFIG_FILE, with defaults good enough to run
// locally against the in-memory pool.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Redis RedisConfig

	KafkaBrokers []string
	KafkaTopic   string

	CORSAllowedOrigins []string

	LogLevel string
}

// ConsumerConfig configures the pool mirror consumer.
type ConsumerConfig struct {
	MetricsAddr string

	Redis RedisConfig

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	ApplyAttempts int
	RetryDelay    time.Duration

	LogLevel string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

func newViper() (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("http_read_timeout", "5s")
	v.SetDefault("http_write_timeout", "10s")
	v.SetDefault("http_idle_timeout", "120s")
	v.SetDefault("http_shutdown_timeout", "15s")
	v.SetDefault("redis_db", "0")
	v.SetDefault("redis_key_prefix", "carpool")
	v.SetDefault("kafka_topic", "carpool-pool-events")
	v.SetDefault("kafka_group", "carpool-pool-mirror")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("metrics_addr", ":2112")
	v.SetDefault("consumer_apply_attempts", "3")
	v.SetDefault("consumer_retry_delay", "200ms")
	v.SetDefault("log_level", "info")
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	return v, nil
}

func LoadServerConfig() (ServerConfig, error) {
	v, err := newViper()
	if err != nil {
		return ServerConfig{}, err
	}
	var errs []error
	cfg := ServerConfig{
		HTTPAddr:           strings.TrimSpace(v.GetString("http_addr")),
		ReadTimeout:        duration(v, "http_read_timeout", &errs),
		WriteTimeout:       duration(v, "http_write_timeout", &errs),
		IdleTimeout:        duration(v, "http_idle_timeout", &errs),
		ShutdownTimeout:    duration(v, "http_shutdown_timeout", &errs),
		Redis:              redisConfig(v, &errs),
		KafkaBrokers:       stringList(v, "kafka_brokers"),
		KafkaTopic:         strings.TrimSpace(v.GetString("kafka_topic")),
		CORSAllowedOrigins: stringList(v, "cors_allowed_origins"),
		LogLevel:           strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if cfg.HTTPAddr == "" {
		errs = append(errs, fmt.Errorf("HTTP_ADDR must not be empty"))
	}
	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"HTTP_READ_TIMEOUT", cfg.ReadTimeout},
		{"HTTP_WRITE_TIMEOUT", cfg.WriteTimeout},
		{"HTTP_IDLE_TIMEOUT", cfg.IdleTimeout},
		{"HTTP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout},
	} {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0", d.key))
		}
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errs = append(errs, fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is"))
	}
	return cfg, errors.Join(errs...)
}

func LoadConsumerConfig() (ConsumerConfig, error) {
	v, err := newViper()
	if err != nil {
		return ConsumerConfig{}, err
	}
	var errs []error
	cfg := ConsumerConfig{
		MetricsAddr:   strings.TrimSpace(v.GetString("metrics_addr")),
		Redis:         redisConfig(v, &errs),
		KafkaBrokers:  stringList(v, "kafka_brokers"),
		KafkaTopic:    strings.TrimSpace(v.GetString("kafka_topic")),
		KafkaGroup:    strings.TrimSpace(v.GetString("kafka_group")),
		ApplyAttempts: integer(v, "consumer_apply_attempts", &errs),
		RetryDelay:    duration(v, "consumer_retry_delay", &errs),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if len(cfg.KafkaBrokers) == 0 {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}
	if !cfg.Redis.Enabled() {
		errs = append(errs, fmt.Errorf("REDIS_ADDR is required"))
	}
	if cfg.ApplyAttempts <= 0 {
		errs = append(errs, fmt.Errorf("CONSUMER_APPLY_ATTEMPTS must be > 0"))
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("CONSUMER_RETRY_DELAY must be >= 0"))
	}
	return cfg, errors.Join(errs...)
}

func redisConfig(v *viper.Viper, errs *[]error) RedisConfig {
	rc := RedisConfig{
		Addr:      strings.TrimSpace(v.GetString("redis_addr")),
		Password:  v.GetString("redis_password"),
		DB:        integer(v, "redis_db", errs),
		KeyPrefix: strings.TrimSpace(v.GetString("redis_key_prefix")),
	}
	if rc.DB < 0 {
		*errs = append(*errs, fmt.Errorf("REDIS_DB must be >= 0"))
	}
	return rc
}

func duration(v *viper.Viper, key string, errs *[]error) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err))
		return 0
	}
	return d
}

func integer(v *viper.Viper, key string, errs *[]error) int {
	raw := strings.TrimSpace(v.GetString(key))
	i, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err))
		return 0
	}
	return i
}

// stringList accepts a list from a config file or a comma separated
// string from the environment.
func stringList(v *viper.Viper, key string) []string {
	if _, ok := v.Get(key).([]interface{}); ok {
		return splitAndTrim(strings.Join(v.GetStringSlice(key), ","))
	}
	return splitAndTrim(v.GetString(key))
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
