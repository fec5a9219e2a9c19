package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Bus struct {
		Type    string `yaml:"type"`    // kafka, redis, memory
		Channel string `yaml:"channel"` // tick channel/topic name
	} `yaml:"bus"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Addr        string        `yaml:"addr"`
		Password    string        `yaml:"password"`
		DB          int           `yaml:"db"`
		PoolSize    int           `yaml:"pool_size"`
		DialTimeout time.Duration `yaml:"dial_timeout"`
		ReadTimeout time.Duration `yaml:"read_timeout"`
	} `yaml:"redis"`
	Binance struct {
		WebSocketURL       string        `yaml:"websocket_url"`
		Symbols            []string      `yaml:"symbols"` // lowercase base symbols, e.g. btc
		ReconnectDelay     time.Duration `yaml:"reconnect_delay"`
		PingInterval       time.Duration `yaml:"ping_interval"`
		InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	} `yaml:"binance"`
	Analytics struct {
		Symbols          []string      `yaml:"symbols"` // canonical symbols, e.g. BTC
		SnapshotInterval time.Duration `yaml:"snapshot_interval"`
		MaxWindow        int           `yaml:"max_window"`
	} `yaml:"analytics"`
	Broadcast struct {
		Symbols  []string      `yaml:"symbols"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"broadcast"`
	MonteCarlo struct {
		Simulations int `yaml:"simulations"`
		HorizonDays int `yaml:"horizon_days"`
	} `yaml:"montecarlo"`
	Arima struct {
		HorizonPeriods int `yaml:"horizon_periods"`
	} `yaml:"arima"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BINANCE_SYMBOLS"); v != "" {
		c.Binance.Symbols = splitList(v)
	}
	if v := os.Getenv("ANALYTICS_SYMBOLS"); v != "" {
		c.Analytics.Symbols = splitList(v)
	}
	if v := os.Getenv("BROADCAST_SYMBOLS"); v != "" {
		c.Broadcast.Symbols = splitList(v)
	}
	if v := os.Getenv("BUS_TYPE"); v != "" {
		c.Bus.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Binance.Symbols) == 0 {
		c.Binance.Symbols = []string{"btc", "eth", "bnb", "sol", "xrp"}
	}
	// Analytics and broadcast default to the ingested set, uppercased.
	if len(c.Analytics.Symbols) == 0 {
		c.Analytics.Symbols = upperAll(c.Binance.Symbols)
	}
	if len(c.Broadcast.Symbols) == 0 {
		c.Broadcast.Symbols = c.Analytics.Symbols
	}
	if c.Bus.Channel == "" {
		c.Bus.Channel = "market-stream"
	}
	if c.Analytics.SnapshotInterval <= 0 {
		c.Analytics.SnapshotInterval = 5 * time.Second
	}
	if c.Broadcast.Interval <= 0 {
		c.Broadcast.Interval = time.Second
	}
	if c.MonteCarlo.Simulations <= 0 {
		c.MonteCarlo.Simulations = 10000
	}
	if c.MonteCarlo.HorizonDays <= 0 {
		c.MonteCarlo.HorizonDays = 7
	}
	if c.Arima.HorizonPeriods <= 0 {
		c.Arima.HorizonPeriods = 7
	}
	if c.Binance.WebSocketURL == "" {
		c.Binance.WebSocketURL = "wss://stream.binance.com:9443/stream"
	}
	if c.Binance.ReconnectDelay <= 0 {
		c.Binance.ReconnectDelay = 5 * time.Second
	}
	if c.Binance.PingInterval <= 0 {
		c.Binance.PingInterval = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Bus.Type {
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty with bus.type=kafka")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required with bus.type=redis")
		}
	case "memory":
	default:
		return fmt.Errorf("bus.type must be 'kafka', 'redis' or 'memory', got '%s'", c.Bus.Type)
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required (snapshot store)")
	}
	if len(c.Binance.Symbols) == 0 {
		return fmt.Errorf("binance.symbols cannot be empty")
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func upperAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}
