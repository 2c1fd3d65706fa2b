// Package config loads engine configuration from a YAML file with
// environment-variable overrides for deployment knobs.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"orderflow/logger"
)

type Server struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

type Kafka struct {
	Brokers       []string      `yaml:"brokers"`
	TradeTopic    string        `yaml:"trade_topic"`
	FeedTopic     string        `yaml:"feed_topic"`
	DrainInterval time.Duration `yaml:"drain_interval"`
	Enabled       bool          `yaml:"enabled"`
}

type Persist struct {
	Dir string `yaml:"dir"`
}

type Journal struct {
	Dir         string `yaml:"dir"`
	SegmentSize int64  `yaml:"segment_size"`
}

type Executor struct {
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
	Policy    string `yaml:"policy"` // reject, caller_runs, block
}

type Cache struct {
	Capacity int `yaml:"capacity"`
}

type Config struct {
	Server   Server        `yaml:"server"`
	Kafka    Kafka         `yaml:"kafka"`
	Persist  Persist       `yaml:"persist"`
	Journal  Journal       `yaml:"journal"`
	Executor Executor      `yaml:"executor"`
	Cache    Cache         `yaml:"cache"`
	Log      logger.Config `yaml:"log"`
}

// Default returns a runnable configuration for local development.
func Default() Config {
	return Config{
		Server: Server{
			GRPCAddr: ":50051",
			HTTPAddr: ":8080",
		},
		Kafka: Kafka{
			Brokers:       []string{"localhost:9092"},
			TradeTopic:    "orderflow.trades",
			FeedTopic:     "orderflow.feed",
			DrainInterval: 250 * time.Millisecond,
			Enabled:       false,
		},
		Persist:  Persist{Dir: "./data/store"},
		Journal:  Journal{Dir: "./data/journal", SegmentSize: 2 << 20},
		Executor: Executor{Workers: 8, QueueSize: 4096, Policy: "block"},
		Cache:    Cache{Capacity: 10000},
		Log:      logger.Config{Level: "info"},
	}
}

// Load reads a YAML config file over the defaults, then applies env
// overrides. A missing path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, errors.Wrap(err, "config: read")
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrap(err, "config: parse")
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers ORDERFLOW_* variables over the file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ORDERFLOW_GRPC_ADDR"); v != "" {
		cfg.Server.GRPCAddr = v
	}
	if v := os.Getenv("ORDERFLOW_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("ORDERFLOW_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ORDERFLOW_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ORDERFLOW_PERSIST_DIR"); v != "" {
		cfg.Persist.Dir = v
	}
	if v := os.Getenv("ORDERFLOW_JOURNAL_DIR"); v != "" {
		cfg.Journal.Dir = v
	}
	if v := os.Getenv("ORDERFLOW_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Executor.Workers = n
		}
	}
	if v := os.Getenv("ORDERFLOW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
