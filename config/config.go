// client/config/config.go

// Package config resolves client settings from defaults, a .env file, an
// optional YAML file and LUMI_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"

	UIWeb = "web"
	UITUI = "tui"

	defaultConfigFile = "lumi.yaml"
)

type Config struct {
	APIURL     string        `yaml:"api_url"`
	Timeout    time.Duration `yaml:"timeout"`
	SuccessTTL time.Duration `yaml:"success_ttl"`
	Port       string        `yaml:"port"`
	Mode       string        `yaml:"mode"`
	MockAddr   string        `yaml:"mock_addr"`
	UI         string        `yaml:"ui"`
	LogLevel   string        `yaml:"log_level"`
	LogFormat  string        `yaml:"log_format"`
	LogFile    string        `yaml:"log_file"`
}

func Default() Config {
	return Config{
		APIURL:     "http://localhost:8000",
		Timeout:    10 * time.Second,
		SuccessTTL: 3 * time.Second,
		Port:       "3000",
		Mode:       ModeAuto,
		MockAddr:   "127.0.0.1:8000",
		UI:         UIWeb,
		LogLevel:   "info",
		LogFormat:  "console",
		LogFile:    "lumi-client.log",
	}
}

// Load builds the configuration. path names a YAML file; when empty,
// LUMI_CONFIG is consulted and then ./lumi.yaml if it exists. A missing
// .env file is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("LUMI_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = defaultConfigFile
		}
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return Config{}, err
	}
	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() error {
	strs := map[string]*string{
		"LUMI_API_URL":    &c.APIURL,
		"LUMI_PORT":       &c.Port,
		"LUMI_MODE":       &c.Mode,
		"LUMI_MOCK_ADDR":  &c.MockAddr,
		"LUMI_UI":         &c.UI,
		"LUMI_LOG_LEVEL":  &c.LogLevel,
		"LUMI_LOG_FORMAT": &c.LogFormat,
		"LUMI_LOG_FILE":   &c.LogFile,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	durations := map[string]*time.Duration{
		"LUMI_TIMEOUT":     &c.Timeout,
		"LUMI_SUCCESS_TTL": &c.SuccessTTL,
	}
	for key, dst := range durations {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

// parseDuration accepts Go durations ("10s") and bare milliseconds ("3000").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

// ResolvedMode turns "auto" into a concrete mode: mock when no API URL is set.
func (c Config) ResolvedMode() string {
	if c.Mode == ModeAuto || c.Mode == "" {
		if strings.TrimSpace(c.APIURL) == "" {
			return ModeMock
		}
		return ModeHTTP
	}
	return c.Mode
}

func (c Config) Validate() error {
	switch c.Mode {
	case "", ModeAuto, ModeHTTP, ModeMock:
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}
	if c.Mode == ModeHTTP && strings.TrimSpace(c.APIURL) == "" {
		return errors.New("config: http mode requires api_url")
	}
	switch c.UI {
	case UIWeb, UITUI:
	default:
		return fmt.Errorf("config: unsupported ui %q", c.UI)
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.SuccessTTL <= 0 {
		return errors.New("config: success_ttl must be positive")
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("config: invalid port %q", c.Port)
	}
	return nil
}

// ListenAddr is the address the web surface binds to.
func (c Config) ListenAddr() string {
	return ":" + c.Port
}
