package configs

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. CLINICALMCP_LISTEN_ADDR.
const EnvPrefix = "clinicalmcp"

// Defaults applied after the file and environment are merged.
const (
	DefaultNamespace  = "clinical"
	DefaultCORSOrigin = "*"
)

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	ReferenceDataFile string   `yaml:"reference_data_file"`
	CORSOrigins       []string `yaml:"cors_origins"`
	Namespace         string   `yaml:"namespace"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "CLINICALMCP_", overriding file settings.
type Config struct {
	// Loaded first from env. Empty means no file.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File or env. Defaults are applied after merging so env only wins when set.
	ReferenceDataFile string   `envconfig:"REFERENCE_DATA_FILE"`
	CORSOrigins       []string `envconfig:"CORS_ORIGINS"`
	Namespace         string   `envconfig:"NAMESPACE"`

	// Environment-only fields
	Transport                string        `envconfig:"TRANSPORT" default:"stdio"`
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	EndpointPath             string        `envconfig:"ENDPOINT_PATH" default:"/mcp"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerWriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ServerIdleTimeout        time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ToolTimeout              time.Duration `envconfig:"TOOL_TIMEOUT" default:"10s"`
	MaxSessions              int           `envconfig:"MAX_SESSIONS" default:"256"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat                string        `envconfig:"LOG_FORMAT" default:"text"`
	LogFile                  string        `envconfig:"LOG_FILE" default:"/tmp/clinicalmcp.log"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unsupported transport %q (want stdio or http)", c.Transport)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json", "color":
	default:
		return fmt.Errorf("unsupported log format %q (want text, json or color)", c.LogFormat)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("tool timeout must be positive, got %s", c.ToolTimeout)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive, got %d", c.MaxSessions)
	}
	if !strings.HasPrefix(c.EndpointPath, "/") {
		return fmt.Errorf("endpoint path %q must start with /", c.EndpointPath)
	}
	return nil
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
func Load() (*Config, error) {
	// 1. Load initial config from Env (primarily to get ConfigFilePath)
	var initialCfg Config
	if err := envconfig.Process(EnvPrefix, &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	// 2. Load config from YAML file if path is specified
	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		yamlFile, err := os.ReadFile(initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration from file.", "path", initialCfg.ConfigFilePath)
	}

	// 3. Start from file values, then process Env vars again for overrides.
	finalCfg := initialCfg
	finalCfg.ReferenceDataFile = fileCfg.ReferenceDataFile
	finalCfg.CORSOrigins = fileCfg.CORSOrigins
	finalCfg.Namespace = fileCfg.Namespace
	if err := envconfig.Process(EnvPrefix, &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}

	if finalCfg.Namespace == "" {
		finalCfg.Namespace = DefaultNamespace
	}
	if len(finalCfg.CORSOrigins) == 0 {
		finalCfg.CORSOrigins = []string{DefaultCORSOrigin}
	}
	return &finalCfg, nil
}
