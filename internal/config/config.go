package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds LinkLens configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Model     ModelConfig     `yaml:"model"`
	Logging   LoggingConfig   `yaml:"logging"`
	Audit     AuditConfig     `yaml:"audit"`
	History   HistoryConfig   `yaml:"history"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`         // HTTP listen address, e.g. ":8000"
	CORSOrigins []string `yaml:"cors_origins"` // allowed Origin values; ["*"] for any
}

type ModelConfig struct {
	BundleDir string `yaml:"bundle_dir"` // directory with manifest.json + phish_model.onnx
	// RequireModel makes a missing or broken bundle a startup error instead
	// of falling back to the stub classifier.
	RequireModel bool `yaml:"require_model"`
}

type LoggingConfig struct {
	// URLLevel controls how much of each scanned URL reaches audit output:
	// metadata (host + last path segment), redacted (full URL, credential
	// params masked), or full.
	URLLevel string `yaml:"url_level"`
}

type AuditConfig struct {
	Stdout    bool        `yaml:"stdout"`     // log one line per scan to stdout
	QueueSize int         `yaml:"queue_size"` // buffered events before drop
	Workers   int         `yaml:"workers"`    // delivery goroutines
	Sinks     []SinkConfig `yaml:"sinks"`
}

type SinkConfig struct {
	Type string `yaml:"type"` // file_jsonl | webhook
	Path string `yaml:"path"` // for file_jsonl
	URL  string `yaml:"url"`  // for webhook
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // SQLite database file
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP endpoint host:port
	Protocol string `yaml:"protocol"` // grpc | http
	Insecure bool   `yaml:"insecure"`
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Logging.URLLevel == "" {
		cfg.Logging.URLLevel = "metadata"
	}

	if cfg.Audit.QueueSize <= 0 {
		cfg.Audit.QueueSize = 1024
	}
	if cfg.Audit.Workers <= 0 {
		cfg.Audit.Workers = 2
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = "linklens.db"
	}

	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}
