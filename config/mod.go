// Package config loads the configuration of a bazaar node.
//
// The configuration is read from a YAML file, then the BAZAAR_* environment
// variables override it. The variable of each field is named by its env tag. A .env file in the working directory, if present, is
// loaded in the environment first.
//
//	database:
//	  path: bazaar.db
//	log:
//	  level: info
//	  file: /var/log/bazaar.log
//	server:
//	  addr: 127.0.0.1:8080
//	kafka:
//	  brokers: [localhost:9092]
//	  topic: bazaar.orders
//	tracing:
//	  enabled: true
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// Database is the configuration of the ledger state.
type Database struct {
	Path   string `yaml:"path" env:"BAZAAR_DB_PATH"`
	Bucket string `yaml:"bucket" env:"BAZAAR_DB_BUCKET"`
}

// Log is the configuration of the logger.
type Log struct {
	Level      string `yaml:"level" env:"BAZAAR_LOG_LEVEL"`
	File       string `yaml:"file" env:"BAZAAR_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Server is the configuration of the HTTP server of a node.
type Server struct {
	Addr        string        `yaml:"addr" env:"BAZAAR_SERVER_ADDR"`
	Timeout     time.Duration `yaml:"timeout" env:"BAZAAR_SERVER_TIMEOUT"`
	MetricsPath string        `yaml:"metrics_path"`
}

// Kafka is the configuration of the event publisher. It is disabled when no
// broker is set.
type Kafka struct {
	Brokers  []string `yaml:"brokers" env:"BAZAAR_KAFKA_BROKERS" envSeparator:","`
	Topic    string   `yaml:"topic" env:"BAZAAR_KAFKA_TOPIC"`
	Producer string   `yaml:"producer"`
}

// Tracing is the configuration of the jaeger tracer. The tracer itself is
// configured with the JAEGER_* environment variables.
type Tracing struct {
	Enabled bool   `yaml:"enabled" env:"BAZAAR_TRACING_ENABLED"`
	Service string `yaml:"service" env:"BAZAAR_TRACING_SERVICE"`
}

// Config is the configuration of a node.
type Config struct {
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Server   Server   `yaml:"server"`
	Kafka    Kafka    `yaml:"kafka"`
	Tracing  Tracing  `yaml:"tracing"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Database: Database{
			Path:   "bazaar.db",
			Bucket: "bazaar",
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: Server{
			Addr:        "127.0.0.1:8080",
			Timeout:     15 * time.Second,
			MetricsPath: "/metrics",
		},
		Kafka: Kafka{
			Topic:    "bazaar.orders",
			Producer: "bazaar",
		},
		Tracing: Tracing{
			Service: "bazaar",
		},
	}
}

// Load returns the configuration of the file merged into the default one. An
// empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, xerrors.Errorf("failed to read config: %v", err)
		}

		err = yaml.UnmarshalStrict(data, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to parse config: %v", err)
		}
	}

	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return cfg, xerrors.Errorf("failed to load .env: %v", err)
	}

	err = env.Parse(&cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to read environment: %v", err)
	}

	return cfg, nil
}

// Encode returns the YAML form of the configuration.
func (c Config) Encode() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode config: %v", err)
	}

	return data, nil
}
