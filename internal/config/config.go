package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. VIZ_SERVER_PORT
const EnvPrefix = "VIZ"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
	Datasets  DatasetsConfig  `yaml:"datasets" envconfig:"DATASETS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"` // console, file or both
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`   // stdout or none
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"` // prometheus or none
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// DatasetsConfig locates the input files. Relative paths are resolved
// against DataDir.
type DatasetsConfig struct {
	DataDir           string `yaml:"data_dir" envconfig:"DATA_DIR"`
	Ratings           string `yaml:"ratings" envconfig:"RATINGS"`
	RatingsSheet      string `yaml:"ratings_sheet" envconfig:"RATINGS_SHEET"`
	Counts            string `yaml:"counts" envconfig:"COUNTS"`
	Regions           string `yaml:"regions" envconfig:"REGIONS"`
	RegionKeyProperty string `yaml:"region_key_property" envconfig:"REGION_KEY_PROPERTY"`
}

// PipelineConfig names the fields the pipeline groups, joins and sorts by
type PipelineConfig struct {
	OuterField      string `yaml:"outer_field" envconfig:"OUTER_FIELD"`
	InnerField      string `yaml:"inner_field" envconfig:"INNER_FIELD"`
	SortField       string `yaml:"sort_field" envconfig:"SORT_FIELD"`
	InnerMin        int    `yaml:"inner_min" envconfig:"INNER_MIN"`
	InnerMax        int    `yaml:"inner_max" envconfig:"INNER_MAX"`
	OuterKeys       []int  `yaml:"outer_keys" envconfig:"OUTER_KEYS"`
	TopN            int    `yaml:"top_n" envconfig:"TOP_N"`
	MaxTopN         int    `yaml:"max_top_n" envconfig:"MAX_TOP_N"`
	QuantileClasses int    `yaml:"quantile_classes" envconfig:"QUANTILE_CLASSES"`
	SourceKeyField  string `yaml:"source_key_field" envconfig:"SOURCE_KEY_FIELD"`
	ValueField      string `yaml:"value_field" envconfig:"VALUE_FIELD"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first config file found when path is empty), then VIZ_*
// environment variables. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive when enabled")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	p := c.Pipeline
	if p.OuterField == "" || p.InnerField == "" || p.SortField == "" {
		return fmt.Errorf("pipeline outer, inner and sort fields are required")
	}
	if p.InnerMax < p.InnerMin {
		return fmt.Errorf("pipeline inner domain is empty: %d..%d", p.InnerMin, p.InnerMax)
	}
	if p.TopN <= 0 || p.MaxTopN < p.TopN {
		return fmt.Errorf("pipeline top_n must be positive and at most max_top_n")
	}
	if p.QuantileClasses < 1 {
		return fmt.Errorf("pipeline quantile_classes must be at least 1")
	}

	if c.Datasets.RegionKeyProperty == "" {
		return fmt.Errorf("datasets region_key_property is required")
	}

	return nil
}

// getConfigFilePath returns the first config file found in the usual places
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if FileExists(location) {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:8080"},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "console",
			FilePath:    "logs/app.log",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     100,
			Burst:   50,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "vizpipe",
			Environment:    "development",
			EnableMetrics:  true,
			EnableTracing:  false,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      54 * time.Second,
			PongWait:        60 * time.Second,
		},
		Datasets: DatasetsConfig{
			DataDir:           "data",
			Ratings:           "board_games.csv",
			Counts:            "post_count_state.csv",
			Regions:           "us-states.json",
			RegionKeyProperty: "name",
		},
		Pipeline: PipelineConfig{
			OuterField:      "year",
			InnerField:      "average_rating",
			SortField:       "users_rated",
			InnerMin:        0,
			InnerMax:        9,
			OuterKeys:       []int{2015, 2016, 2017, 2018, 2019},
			TopN:            5,
			MaxTopN:         50,
			QuantileClasses: 5,
			SourceKeyField:  "state",
			ValueField:      "count",
		},
	}
}
