package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Executor ExecutorConfig `yaml:"executor"`
	State    StateConfig    `yaml:"state"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ExecutorConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type StateConfig struct {
	Dir           string `yaml:"dir"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	MaxReports    int    `yaml:"max_reports"`
	RunTTL        string `yaml:"run_ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8180,
		},
		Executor: ExecutorConfig{
			URL:     "http://127.0.0.1:9515",
			Timeout: "60s",
		},
		State: StateConfig{
			Dir:           "state",
			MaxReports:    100,
			RunTTL:        "5m",
			SweepInterval: "30s",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := strings.TrimSpace(os.Getenv("FLOWDECK_SERVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDECK_SERVER_PORT")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDECK_EXECUTOR_URL")); v != "" {
		cfg.Executor.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDECK_EXECUTOR_TIMEOUT")); v != "" {
		cfg.Executor.Timeout = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDECK_STATE_DIR")); v != "" {
		cfg.State.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWDECK_POSTGRES_DSN")); v != "" {
		cfg.State.PostgresDSN = v
	}

	return cfg, nil
}

// ExecutorTimeout parses the configured executor timeout with a fallback.
func (c Config) ExecutorTimeout() time.Duration {
	return parseDuration(c.Executor.Timeout, 60*time.Second)
}

// RunTTL parses the running-test liveness TTL with a fallback.
func (c Config) RunTTL() time.Duration {
	return parseDuration(c.State.RunTTL, 5*time.Minute)
}

// SweepInterval parses the registry sweep cadence with a fallback.
func (c Config) SweepInterval() time.Duration {
	return parseDuration(c.State.SweepInterval, 30*time.Second)
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	dur, err := time.ParseDuration(v)
	if err != nil || dur <= 0 {
		return fallback
	}
	return dur
}

func Module(path string) fx.Option {
	return fx.Provide(func() (Config, error) {
		return Load(path)
	})
}
