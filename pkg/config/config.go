package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Run modes. Batch processes CSV strips from disk and exits; serve
// runs the HTTP API with the optional Kafka and stream inputs.
const (
	ModeBatch = "batch"
	ModeServe = "serve"
)

type Config struct {
	Environment string `yaml:"environment"`
	Mode        string `yaml:"mode"` // batch or serve
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Analysis struct {
		// fraction_of_peak derives the threshold from the strip's max
		// voltage; absolute uses ThresholdValue as-is.
		ThresholdStrategy string  `yaml:"threshold_strategy" default:"fraction_of_peak" validate:"oneof=fraction_of_peak absolute"`
		ThresholdFraction float64 `yaml:"threshold_fraction" default:"0.75" validate:"gt=0,lte=1"`
		ThresholdValue    float64 `yaml:"threshold_value"`
		MinBPM            float64 `yaml:"min_bpm" default:"36" validate:"gt=0"`
		MaxBPM            float64 `yaml:"max_bpm" default:"150" validate:"gtfield=MinBPM"`
		WindowEnabled     bool    `yaml:"window_enabled"`
		WindowStart       float64 `yaml:"window_start" default:"0" validate:"gte=0"`
		WindowEnd         float64 `yaml:"window_end" default:"10"`
	} `yaml:"analysis"`
	Batch struct {
		InputDir    string `yaml:"input_dir"`
		OutputDir   string `yaml:"output_dir"`
		Workers     int    `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
		PerFileLogs bool   `yaml:"per_file_logs"`
	} `yaml:"batch"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		StripsTopic  string   `yaml:"strips_topic"`
		ReportsTopic string   `yaml:"reports_topic"`
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
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table" default:"reports"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		GatewayURL     string        `yaml:"gateway_url"`
		Token          string        `yaml:"token"`
		DeviceID       string        `yaml:"device_id"`
		StripSeconds   float64       `yaml:"strip_seconds" default:"10"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"stream"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
}

var validate = validator.New()

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

	// Fill zero-valued fields with struct defaults
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	// Validate required fields
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

	if v := os.Getenv("PT_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("PT_INPUT_DIR"); v != "" {
		c.Batch.InputDir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("GATEWAY_TOKEN"); v != "" {
		c.Stream.Token = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Mode != ModeBatch && c.Mode != ModeServe {
		return fmt.Errorf("mode must be 'batch' or 'serve', got '%s'", c.Mode)
	}
	if err := validate.Struct(c.Analysis); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	if err := validate.Struct(c.Batch); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if c.Analysis.WindowEnabled && c.Analysis.WindowEnd <= c.Analysis.WindowStart {
		return fmt.Errorf("analysis window end must be after start")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Stream.Enabled && c.Stream.GatewayURL == "" {
		return fmt.Errorf("stream.gateway_url is required when stream is enabled")
	}
	return nil
}
