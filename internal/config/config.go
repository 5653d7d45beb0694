package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIBase        string
	RequestTimeout time.Duration
	StoragePath    string
	LogLevel       string

	DevPort                    string
	DevSigningKey              string
	DevTokenTTL                time.Duration
	LoginRateLimitPerMinute    int
	LoginRateLimitBurst        int
	UsernameRateLimitPerMinute int
	UsernameRateLimitBurst     int
}

// fileConfig mirrors the optional YAML file. Zero values mean "not set".
type fileConfig struct {
	APIBase               string `yaml:"api_base"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	StoragePath           string `yaml:"storage_path"`
	LogLevel              string `yaml:"log_level"`
	DevServer             struct {
		Port            string `yaml:"port"`
		SigningKey      string `yaml:"signing_key"`
		TokenTTLSeconds int    `yaml:"token_ttl_seconds"`
	} `yaml:"devserver"`
}

// Load reads the YAML file named by TORRE_CONFIG (or the default path
// under the home directory, when present) and then applies environment
// overrides.
func Load() (Config, error) {
	cfg := defaults()

	path := os.Getenv("TORRE_CONFIG")
	explicit := path != ""
	if !explicit {
		path = filepath.Join(homeDir(), ".torre-segura", "config.yaml")
	}
	if err := applyFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return cfg, nil
}

func defaults() Config {
	return Config{
		APIBase:                    "http://localhost:8000",
		RequestTimeout:             15 * time.Second,
		StoragePath:                filepath.Join(homeDir(), ".torre-segura", "device.db"),
		LogLevel:                   "warn",
		DevPort:                    "8000",
		DevTokenTTL:                time.Hour,
		LoginRateLimitPerMinute:    30,
		LoginRateLimitBurst:        10,
		UsernameRateLimitPerMinute: 10,
		UsernameRateLimitBurst:     5,
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.APIBase != "" {
		cfg.APIBase = fc.APIBase
	}
	if fc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeoutSeconds) * time.Second
	}
	if fc.StoragePath != "" {
		cfg.StoragePath = expandHome(fc.StoragePath)
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.DevServer.Port != "" {
		cfg.DevPort = fc.DevServer.Port
	}
	if fc.DevServer.SigningKey != "" {
		cfg.DevSigningKey = fc.DevServer.SigningKey
	}
	if fc.DevServer.TokenTTLSeconds > 0 {
		cfg.DevTokenTTL = time.Duration(fc.DevServer.TokenTTLSeconds) * time.Second
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.APIBase = readString("TORRE_API_BASE", cfg.APIBase)
	cfg.RequestTimeout = readDurationSeconds("TORRE_REQUEST_TIMEOUT_SECONDS", cfg.RequestTimeout)
	cfg.StoragePath = expandHome(readString("TORRE_STORAGE_PATH", cfg.StoragePath))
	cfg.LogLevel = readString("TORRE_LOG_LEVEL", cfg.LogLevel)
	cfg.DevPort = readString("DEVSERVER_PORT", cfg.DevPort)
	cfg.DevSigningKey = readString("DEVSERVER_SIGNING_KEY", cfg.DevSigningKey)
	cfg.DevTokenTTL = readDurationSeconds("DEVSERVER_TOKEN_TTL_SECONDS", cfg.DevTokenTTL)
	cfg.LoginRateLimitPerMinute = readInt("DEVSERVER_LOGIN_RATE_LIMIT_PER_MIN", cfg.LoginRateLimitPerMinute)
	cfg.LoginRateLimitBurst = readInt("DEVSERVER_LOGIN_RATE_LIMIT_BURST", cfg.LoginRateLimitBurst)
	cfg.UsernameRateLimitPerMinute = readInt("DEVSERVER_USERNAME_RATE_LIMIT_PER_MIN", cfg.UsernameRateLimitPerMinute)
	cfg.UsernameRateLimitBurst = readInt("DEVSERVER_USERNAME_RATE_LIMIT_BURST", cfg.UsernameRateLimitBurst)
}

func readString(key, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	return raw
}

func readDurationSeconds(key string, fallback time.Duration) time.Duration {
	value := readInt(key, -1)
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func homeDir() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return dir
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
