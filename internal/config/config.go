// Package config loads service configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the config file path
const ConfigPathEnv = "EMISSIONS_CONFIG"

const defaultConfigPath = "config.yaml"

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config is the top-level configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Storage    StorageConfig    `yaml:"storage"`
	Datasets   DatasetsConfig   `yaml:"datasets"`
	Sources    SourcesConfig    `yaml:"sources"`
	Calculator CalculatorConfig `yaml:"calculator"`
}

// ServerConfig controls the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig controls the PostgreSQL connection pool
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig selects where ingested datasets are kept
type StorageConfig struct {
	Backend string `yaml:"backend"`
}

// DatasetsConfig holds the URIs of the three input datasets.
// A URI is a local path, file://, http(s)://, s3:// or gs:// location.
type DatasetsConfig struct {
	EntityURI        string        `yaml:"entity_uri"`
	YearURI          string        `yaml:"year_uri"`
	PredictedYearURI string        `yaml:"predicted_year_uri"`
	IngestOnStartup  bool          `yaml:"ingest_on_startup"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
}

// SourcesConfig configures the remote dataset clients
type SourcesConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config configures the S3 client. Empty credentials fall back to the
// default AWS credential chain.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// CalculatorConfig controls calculator session lifetime
type CalculatorConfig struct {
	SessionTTL      time.Duration `yaml:"session_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// DefaultConfig returns a Config with defaults for local development
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "emissions",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Backend: StoragePostgres,
		},
		Datasets: DatasetsConfig{
			EntityURI:       "data/emission_data.json",
			YearURI:         "data/yearly_emission.json",
			IngestOnStartup: false,
			FetchTimeout:    30 * time.Second,
		},
		Sources: SourcesConfig{
			S3: S3Config{Region: "us-east-1"},
		},
		Calculator: CalculatorConfig{
			SessionTTL:      30 * time.Minute,
			JanitorInterval: time.Minute,
		},
	}
}

// LoadConfig reads the file named by EMISSIONS_CONFIG (default config.yaml)
// over the defaults, then applies environment overrides. A missing file is
// not an error.
func LoadConfig() (*Config, error) {
	path := os.Getenv(ConfigPathEnv)
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

// Load reads the config file at path and applies environment overrides
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []string
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
			*dst = b
		}
	}

	str("SERVER_HOST", &c.Server.Host)
	num("SERVER_PORT", &c.Server.Port)

	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Database)
	str("DB_SSLMODE", &c.Database.SSLMode)

	str("LOG_LEVEL", &c.Logging.Level)
	str("STORAGE_BACKEND", &c.Storage.Backend)

	str("ENTITY_DATASET_URI", &c.Datasets.EntityURI)
	str("YEAR_DATASET_URI", &c.Datasets.YearURI)
	str("PREDICTED_YEAR_DATASET_URI", &c.Datasets.PredictedYearURI)
	flag("INGEST_ON_STARTUP", &c.Datasets.IngestOnStartup)
	dur("DATASET_FETCH_TIMEOUT", &c.Datasets.FetchTimeout)

	str("S3_REGION", &c.Sources.S3.Region)
	str("S3_ENDPOINT", &c.Sources.S3.Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Sources.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.Sources.S3.SecretAccessKey)
	flag("S3_USE_PATH_STYLE", &c.Sources.S3.UsePathStyle)

	dur("CALCULATOR_SESSION_TTL", &c.Calculator.SessionTTL)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment overrides: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for values the services cannot run with
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.Host == "" {
			problems = append(problems, "database.host is required for postgres storage")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			problems = append(problems, fmt.Sprintf("database.port %d out of range", c.Database.Port))
		}
		if c.Database.Database == "" {
			problems = append(problems, "database.database is required for postgres storage")
		}
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q must be %q or %q",
			c.Storage.Backend, StoragePostgres, StorageMemory))
	}

	if c.Datasets.EntityURI == "" {
		problems = append(problems, "datasets.entity_uri is required")
	}
	if c.Datasets.YearURI == "" {
		problems = append(problems, "datasets.year_uri is required")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not recognized", c.Logging.Level))
	}

	if c.Calculator.SessionTTL <= 0 {
		problems = append(problems, "calculator.session_ttl must be positive")
	}
	if c.Calculator.JanitorInterval <= 0 {
		problems = append(problems, "calculator.janitor_interval must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
