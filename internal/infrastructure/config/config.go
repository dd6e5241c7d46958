package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	OpenSea  OpenSeaConfig  `mapstructure:"opensea"`
	Ethereum EthereumConfig `mapstructure:"ethereum"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-specific configuration
type AppConfig struct {
	Env         string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
	PageLength  int    `mapstructure:"page_length"`
	GroupingMin int    `mapstructure:"grouping_min"`
	MaxPages    int    `mapstructure:"max_pages"`
}

// OpenSeaConfig represents the marketplace API configuration
type OpenSeaConfig struct {
	APIBaseURL           string        `mapstructure:"api_base_url"`
	WebBaseURL           string        `mapstructure:"web_base_url"`
	APIKey               string        `mapstructure:"api_key"`
	Timeout              time.Duration `mapstructure:"timeout"`
	RequestsPerSecond    float64       `mapstructure:"requests_per_second"`
	Burst                int           `mapstructure:"burst"`
	MaxRetries           int           `mapstructure:"max_retries"`
	RetryDelay           time.Duration `mapstructure:"retry_delay"`
	OrderMatcherUsername string        `mapstructure:"order_matcher_username"`
}

// EthereumConfig represents the JSON-RPC endpoint used for ENS lookups
type EthereumConfig struct {
	RPCURL      string `mapstructure:"rpc_url"`
	Enabled     bool   `mapstructure:"enabled"`
	ENSRegistry string `mapstructure:"ens_registry"`
}

// HTTPConfig represents the API server configuration
type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// NATSConfig represents NATS configuration
type NATSConfig struct {
	URL               string        `mapstructure:"url"`
	SubjectPrefix     string        `mapstructure:"subject_prefix"`
	QueueGroup        string        `mapstructure:"queue_group"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Workers           int           `mapstructure:"workers"`
	Enabled           bool          `mapstructure:"enabled"`
}

// RedisConfig represents the wallet resolution cache configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Enabled  bool          `mapstructure:"enabled"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// DefaultSearchPaths are the directories searched for config.yaml
var DefaultSearchPaths = []string{".", "./config", "/etc/nft-activity-timeline"}

// Load loads configuration from environment variables and files.
// When no paths are given DefaultSearchPaths is used.
func Load(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = DefaultSearchPaths
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// APP_LOG_LEVEL overrides app.log_level
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would otherwise fail at request time
func (c *Config) Validate() error {
	if c.App.PageLength <= 0 {
		return fmt.Errorf("app.page_length must be positive, got %d", c.App.PageLength)
	}
	if c.App.GroupingMin < 1 {
		return fmt.Errorf("app.grouping_min must be at least 1, got %d", c.App.GroupingMin)
	}
	if c.App.MaxPages <= 0 {
		return fmt.Errorf("app.max_pages must be positive, got %d", c.App.MaxPages)
	}
	if c.OpenSea.APIBaseURL == "" {
		return errors.New("opensea.api_base_url is required")
	}
	if c.OpenSea.RequestsPerSecond <= 0 {
		return fmt.Errorf("opensea.requests_per_second must be positive, got %v", c.OpenSea.RequestsPerSecond)
	}
	if c.OpenSea.MaxRetries < 0 {
		return fmt.Errorf("opensea.max_retries must not be negative, got %d", c.OpenSea.MaxRetries)
	}
	if c.Ethereum.Enabled && c.Ethereum.RPCURL == "" {
		return errors.New("ethereum.rpc_url is required when ethereum is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	if c.NATS.Enabled && c.NATS.Workers < 1 {
		return fmt.Errorf("nats.workers must be at least 1, got %d", c.NATS.Workers)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.page_length", 120)
	v.SetDefault("app.grouping_min", 3)
	v.SetDefault("app.max_pages", 10)

	// OpenSea defaults
	v.SetDefault("opensea.api_base_url", "https://api.opensea.io")
	v.SetDefault("opensea.web_base_url", "https://opensea.io")
	v.SetDefault("opensea.api_key", "")
	v.SetDefault("opensea.timeout", "15s")
	v.SetDefault("opensea.requests_per_second", 2)
	v.SetDefault("opensea.burst", 2)
	v.SetDefault("opensea.max_retries", 3)
	v.SetDefault("opensea.retry_delay", "500ms")
	v.SetDefault("opensea.order_matcher_username", "OpenSea-Orders")

	// Ethereum defaults
	v.SetDefault("ethereum.rpc_url", "")
	v.SetDefault("ethereum.enabled", false)
	v.SetDefault("ethereum.ens_registry", "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

	// HTTP defaults
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "60s")
	v.SetDefault("http.request_timeout", "45s")

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "timeline")
	v.SetDefault("nats.queue_group", "nft-activity-timeline")
	v.SetDefault("nats.connect_timeout", "10s")
	v.SetDefault("nats.reconnect_attempts", 5)
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.request_timeout", "30s")
	v.SetDefault("nats.workers", 4)
	v.SetDefault("nats.enabled", false)

	// Redis defaults
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "1h")
	v.SetDefault("redis.enabled", false)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Short names used by container deployments
	v.BindEnv("nats.url", "NATS_URL")
	v.BindEnv("opensea.api_key", "OPENSEA_API_KEY")
	v.BindEnv("ethereum.rpc_url", "ETHEREUM_RPC_URL")
	v.BindEnv("redis.addr", "REDIS_ADDR")
}
