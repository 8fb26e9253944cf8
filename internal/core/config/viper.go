package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pkeller/loregate/internal/types"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*ServerConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultServerConfig
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8750)
	v.SetDefault("server.max_sessions", 1000)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.max_scan_text_size", types.MaxScanTextSize)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("db.url", "sqlite://data/loregate.db")

	// Bind environment variables with LG_ prefix
	v.SetEnvPrefix("LG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Security check: reject secrets in config files
	// Secrets must be environment-only per 12-factor principles
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ServerConfig{
		Host:            v.GetString("server.host"),
		Port:            v.GetInt("server.port"),
		MaxSessions:     v.GetInt("server.max_sessions"),
		RequestTimeout:  v.GetDuration("server.request_timeout"),
		MaxScanTextSize: v.GetInt("server.max_scan_text_size"),
		DBURL:           v.GetString("db.url"),
		DataDir:         v.GetString("server.data_dir"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive values for sessions,
// timeout, and the scan text cap.
func validateConfig(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", cfg.MaxSessions)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxScanTextSize <= 0 {
		return fmt.Errorf("max_scan_text_size must be positive, got %d", cfg.MaxScanTextSize)
	}
	if cfg.DBURL == "" {
		return fmt.Errorf("db url must not be empty")
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets (12-factor principle).
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.IsSet("hmac_secret") || v.IsSet("server.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use LG_HMAC_SECRET environment variable)")
	}
	return nil
}
