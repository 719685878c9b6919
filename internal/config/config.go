// Package config loads server settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"metafilter/pkg/logger"
)

type Config struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"logLevel"`
	Fetch    Fetch  `yaml:"fetch"`
}

type Fetch struct {
	Timeout        time.Duration `yaml:"timeout"`
	DialTimeout    time.Duration `yaml:"dialTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"` // per URL, including extraction
	SizeCap        int64         `yaml:"sizeCap"`
	UserAgent      string        `yaml:"userAgent"`
	Concurrency    int           `yaml:"concurrency"`
	RateLimit      float64       `yaml:"rateLimit"` // requests/sec per host, 0 = off
}

func Default() Config {
	return Config{
		Addr:     ":8080",
		LogLevel: "info",
		Fetch: Fetch{
			Timeout:        15 * time.Second,
			DialTimeout:    5 * time.Second,
			RequestTimeout: 25 * time.Second,
			SizeCap:        5 * 1024 * 1024,
			Concurrency:    10,
		},
	}
}

// Load starts from Default, overlays the YAML file at path (if path is not
// empty) and then the METAFILTER_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("METAFILTER_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("METAFILTER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("METAFILTER_RATE_LIMIT"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("METAFILTER_RATE_LIMIT: %w", err)
		}
		c.Fetch.RateLimit = rps
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Fetch.Timeout <= 0 || c.Fetch.DialTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeouts must be positive"))
	}
	if c.Fetch.SizeCap <= 0 {
		errs = append(errs, errors.New("fetch.sizeCap must be positive"))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, errors.New("fetch.concurrency must be positive"))
	}
	return errors.Join(errs...)
}
