package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAddr      = "0.0.0.0:4221"
	DefaultDirectory = "/tmp/"
)

type Config struct {
	Addr         string
	Directory    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxConns     int
	LogLevel     logrus.Level
}

// Load reads flags from args. Each flag falls back to its HTTPSERVER_*
// environment variable, then to the built-in default.
func Load(args []string, getenv func(string) string) (Config, error) {
	readTimeout, err := envDuration(getenv, "HTTPSERVER_READ_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := envDuration(getenv, "HTTPSERVER_WRITE_TIMEOUT")
	if err != nil {
		return Config{}, err
	}
	maxConns := 0
	if v := getenv("HTTPSERVER_MAX_CONNS"); v != "" {
		if maxConns, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("HTTPSERVER_MAX_CONNS: %w", err)
		}
	}

	var cfg Config
	var level string
	fs := flag.NewFlagSet("httpserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Addr, "addr", envOr(getenv, "HTTPSERVER_ADDR", DefaultAddr), "listen address")
	fs.StringVar(&cfg.Directory, "directory", envOr(getenv, "HTTPSERVER_DIRECTORY", DefaultDirectory), "directory served under /files/")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", readTimeout, "per-connection read deadline, 0 for none")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", writeTimeout, "per-connection write deadline, 0 for none")
	fs.IntVar(&cfg.MaxConns, "max-conns", maxConns, "maximum concurrent connections, 0 for unlimited")
	fs.StringVar(&level, "log-level", envOr(getenv, "HTTPSERVER_LOG_LEVEL", "info"), "log level")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.MaxConns < 0 {
		return Config{}, fmt.Errorf("max-conns must not be negative: %d", cfg.MaxConns)
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return Config{}, fmt.Errorf("timeouts must not be negative")
	}
	if cfg.LogLevel, err = logrus.ParseLevel(level); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(getenv func(string) string, key string) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
