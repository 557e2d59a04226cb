package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/pushchain/svm-gateway/gatewayClient/constant"
	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

//go:embed default_config.json
var defaultConfigJSON []byte

func validateConfig(cfg *Config) error {
	eg := gwerrors.NewErrorGroup()

	// Validate log level
	if cfg.LogLevel < 0 || cfg.LogLevel > 5 {
		eg.Add(gwerrors.NewConfigError("log level must be between 0 and 5"))
	}

	// Validate log format
	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		eg.Add(gwerrors.NewConfigError("log format must be 'json' or 'console'"))
	}

	if len(cfg.RPCURLs) == 0 {
		eg.Add(gwerrors.NewConfigError("at least one rpc url is required"))
	}

	if _, err := solana.PublicKeyFromBase58(cfg.GatewayProgramID); err != nil {
		eg.Add(gwerrors.Wrapf(err, "invalid gateway program id %q", cfg.GatewayProgramID))
	}
	if _, err := solana.PublicKeyFromBase58(cfg.RegistryProgramID); err != nil {
		eg.Add(gwerrors.Wrapf(err, "invalid registry program id %q", cfg.RegistryProgramID))
	}

	if cfg.TokenDecimals > 18 {
		eg.Add(gwerrors.NewConfigError("token decimals must be at most 18"))
	}

	if cfg.MaxRetries < 0 {
		eg.Add(gwerrors.NewConfigError("max retries must not be negative"))
	}
	if cfg.RetryBackoffSeconds < 0 {
		eg.Add(gwerrors.NewConfigError("retry backoff must not be negative"))
	}
	if cfg.RequestTimeoutSeconds < 0 {
		eg.Add(gwerrors.NewConfigError("request timeout must not be negative"))
	}

	if eg.HasErrors() {
		return eg
	}

	// Set defaults for RPC read policy
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoffSeconds == 0 {
		cfg.RetryBackoffSeconds = 1
	}
	if cfg.RequestTimeoutSeconds == 0 {
		cfg.RequestTimeoutSeconds = 30
	}
	if cfg.NodeHome == "" {
		cfg.NodeHome = constant.DefaultNodeHome
	}

	return nil
}

// Validate checks cfg and fills in defaults for unset optional fields.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// Save writes the given config to <NodeDir>/config/pgateway_config.json.
func Save(cfg *Config, basePath string) error {
	if err := validateConfig(cfg); err != nil {
		return gwerrors.Wrap(err, "invalid config")
	}

	configDir := filepath.Join(basePath, constant.ConfigSubdir)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configDir, constant.ConfigFileName)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Load reads and returns the config from <BasePath>/config/pgateway_config.json.
func Load(basePath string) (Config, error) {
	configFile := filepath.Join(basePath, constant.ConfigSubdir, constant.ConfigFileName)
	data, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config under basePath, falling back to the embedded
// defaults when no config file exists yet. The result is validated.
func LoadOrDefault(basePath string) (Config, error) {
	cfg, err := Load(basePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		def, defErr := LoadDefaultConfig()
		if defErr != nil {
			return Config{}, defErr
		}
		cfg = *def
		cfg.NodeHome = basePath
	}
	if cfg.NodeHome == "" {
		cfg.NodeHome = basePath
	}
	if err := validateConfig(&cfg); err != nil {
		return Config{}, gwerrors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// LoadDefaultConfig loads the default configuration from embedded JSON
func LoadDefaultConfig() (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default config: %w", err)
	}
	return &cfg, nil
}

// FeePayerKeypairPath resolves the fee payer keypair location.
func (c *Config) FeePayerKeypairPath() string {
	if c.FeePayerKeypair == "" || filepath.IsAbs(c.FeePayerKeypair) {
		return c.FeePayerKeypair
	}
	return filepath.Join(c.NodeHome, constant.KeysSubdir, c.FeePayerKeypair)
}

// JournalDir is the directory holding the local bridge-transaction journal.
func (c *Config) JournalDir() string {
	return filepath.Join(c.NodeHome, constant.DatabasesSubdir)
}

// ReadRetryConfig is the retry policy for idempotent RPC reads.
func (c *Config) ReadRetryConfig() *gwerrors.RetryConfig {
	retry := gwerrors.DefaultRetryConfig()
	retry.MaxAttempts = c.MaxRetries
	retry.InitialDelay = time.Duration(c.RetryBackoffSeconds) * time.Second
	if retry.MaxDelay < retry.InitialDelay {
		retry.MaxDelay = retry.InitialDelay
	}
	return retry
}

// RequestTimeout is the deadline applied to one command's RPC work.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
