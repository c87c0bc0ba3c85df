// Package config loads server configuration from flags, environment
// variables, and an optional .env file, in that order of precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Presale PresaleConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds data storage configuration. The base path hosts the
// Badger directory, the SQLite catalog database, the search index, and
// the auth key file.
type DataConfig struct {
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	BaseURL      string // optional, used in absolute redirect targets
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AuthConfig holds token configuration. AccessTokenKey is filled in by
// auth.LoadOrGenerateKey during bootstrap, not by LoadConfig.
type AuthConfig struct {
	AccessTokenKey       []byte
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// PresaleConfig holds the presale-facing knobs.
//
// GlobalRegistration decides whether the login page offers platform-wide
// account creation alongside event-local registration. It is deployment
// configuration and is threaded into the presale service explicitly, not
// read from ambient state at request time.
type PresaleConfig struct {
	GlobalRegistration bool
	// Login attempt throttling, keyed per client IP.
	LoginRatePerMinute int
	LoginBurst         int
}

// LoadConfig reads flags, then environment variables, then the .env
// file, then built-in defaults.
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for data storage")
	serverName := flag.String("server-name", "", "Name for the server")
	serverBaseURL := flag.String("base-url", "", "Public base URL of the server")

	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := flag.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	globalRegistration := flag.String("global-registration", "", "Offer platform-wide account registration (default: true)")
	loginRate := flag.String("login-rate", "", "Login attempts allowed per minute per IP (default: 10)")
	loginBurst := flag.String("login-burst", "", "Login attempt burst size per IP (default: 5)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:    getConfigValue(*serverName, "SERVER_NAME", "BoxOffice Server"),
			BaseURL: getConfigValue(*serverBaseURL, "SERVER_BASE_URL", ""),
			Port:    getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Presale: PresaleConfig{
			GlobalRegistration: getBoolConfigValue(*globalRegistration, "GLOBAL_REGISTRATION", true),
			LoginRatePerMinute: getIntConfigValue(*loginRate, "LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:         getIntConfigValue(*loginBurst, "LOGIN_BURST", 5),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flagVal  string
		envKey   string
		fallback string
		what     string
	}{
		{&cfg.Auth.AccessTokenDuration, *accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", "access token duration"},
		{&cfg.Auth.RefreshTokenDuration, *refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", "refresh token duration"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.what, raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("ENV is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Presale.LoginRatePerMinute <= 0 {
		return fmt.Errorf("login rate must be positive, got %d", c.Presale.LoginRatePerMinute)
	}
	if c.Presale.LoginBurst <= 0 {
		return fmt.Errorf("login burst must be positive, got %d", c.Presale.LoginBurst)
	}

	return nil
}

// expandDataPath resolves the base path to an absolute directory,
// defaulting to ~/BoxOffice/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	path := c.Data.BasePath
	if path == "" {
		c.Data.BasePath = filepath.Join(homeDir, "BoxOffice", "data")
		return nil
	}

	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		path, err = filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	c.Data.BasePath = filepath.Clean(path)
	return nil
}

// getConfigValue returns the first non-empty value among flag, env var,
// and default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue treats "true", "1", and "yes" (case-insensitive)
// as true; any other non-empty value is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	raw = strings.ToLower(raw)
	return raw == "true" || raw == "1" || raw == "yes"
}

// getIntConfigValue falls back to the default on unparsable input.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(raw, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile reads KEY=value lines into the process environment.
// Already-set variables win over the file.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
