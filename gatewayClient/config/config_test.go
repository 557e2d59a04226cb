package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushchain/svm-gateway/gatewayClient/constant"
	gwerrors "github.com/pushchain/svm-gateway/gatewayClient/errors"
)

const (
	testGatewayProgram  = "9TaQuUfNMC5rFvdtzhHPk84WaFH3SFnweZn4tw9RriDP"
	testRegistryProgram = "3cvX9BpLMJsFTuEWSQBaTcd4TXgAmefqgNSJbufpyWyz"
)

func validConfig() *Config {
	return &Config{
		LogLevel:          1,
		LogFormat:         "json",
		RPCURLs:           []string{"http://localhost:8899"},
		GatewayProgramID:  testGatewayProgram,
		RegistryProgramID: testRegistryProgram,
		TokenDecimals:     9,
	}
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(cfg *Config)
		expectError bool
		errorMsg    string
		validate    func(t *testing.T, cfg *Config)
	}{
		{
			name:   "Valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:        "Invalid log level (negative)",
			mutate:      func(cfg *Config) { cfg.LogLevel = -1 },
			expectError: true,
			errorMsg:    "log level must be between 0 and 5",
		},
		{
			name:        "Invalid log level (too high)",
			mutate:      func(cfg *Config) { cfg.LogLevel = 6 },
			expectError: true,
			errorMsg:    "log level must be between 0 and 5",
		},
		{
			name:        "Invalid log format",
			mutate:      func(cfg *Config) { cfg.LogFormat = "xml" },
			expectError: true,
			errorMsg:    "log format must be 'json' or 'console'",
		},
		{
			name:        "Missing rpc urls",
			mutate:      func(cfg *Config) { cfg.RPCURLs = nil },
			expectError: true,
			errorMsg:    "at least one rpc url is required",
		},
		{
			name:        "Invalid gateway program id",
			mutate:      func(cfg *Config) { cfg.GatewayProgramID = "not-base58-0OIl" },
			expectError: true,
			errorMsg:    "invalid gateway program id",
		},
		{
			name:        "Invalid registry program id",
			mutate:      func(cfg *Config) { cfg.RegistryProgramID = "" },
			expectError: true,
			errorMsg:    "invalid registry program id",
		},
		{
			name:        "Too many decimals",
			mutate:      func(cfg *Config) { cfg.TokenDecimals = 19 },
			expectError: true,
			errorMsg:    "token decimals must be at most 18",
		},
		{
			name:        "Negative max retries",
			mutate:      func(cfg *Config) { cfg.MaxRetries = -1 },
			expectError: true,
			errorMsg:    "max retries must not be negative",
		},
		{
			name:        "Negative retry backoff",
			mutate:      func(cfg *Config) { cfg.RetryBackoffSeconds = -2 },
			expectError: true,
			errorMsg:    "retry backoff must not be negative",
		},
		{
			name:        "Negative request timeout",
			mutate:      func(cfg *Config) { cfg.RequestTimeoutSeconds = -30 },
			expectError: true,
			errorMsg:    "request timeout must not be negative",
		},
		{
			name:   "Defaults applied",
			mutate: func(cfg *Config) {},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.MaxRetries)
				assert.Equal(t, 1, cfg.RetryBackoffSeconds)
				assert.Equal(t, 30, cfg.RequestTimeoutSeconds)
				assert.Equal(t, constant.DefaultNodeHome, cfg.NodeHome)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := validateConfig(cfg)
			if tc.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errorMsg)
				return
			}
			require.NoError(t, err)
			if tc.validate != nil {
				tc.validate(t, cfg)
			}
		})
	}
}

func TestValidateConfigCollectsErrors(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "xml"
	cfg.MaxRetries = -1
	cfg.RPCURLs = nil

	err := validateConfig(cfg)
	require.Error(t, err)

	var eg *gwerrors.ErrorGroup
	require.ErrorAs(t, err, &eg)
	assert.Len(t, eg.Errors, 3)
	assert.Contains(t, err.Error(), "3 errors occurred")
	for _, e := range eg.Errors {
		assert.True(t, gwerrors.IsChainError(e, gwerrors.ErrCodeConfig))
	}
	// Defaults are not applied to a rejected config.
	assert.Equal(t, -1, cfg.MaxRetries)
}

func TestNegativeRetriesCannotReachReadPolicy(t *testing.T) {
	cfg := validConfig()
	cfg.MaxRetries = -1
	require.Error(t, Validate(cfg))

	// A config built around Validate still runs a read at least once.
	calls := 0
	err := gwerrors.RetryWithConfig(context.Background(), func() error {
		calls++
		return nil
	}, cfg.ReadRetryConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.NodeHome = dir

	require.NoError(t, Save(cfg, dir))

	configFile := filepath.Join(dir, constant.ConfigSubdir, constant.ConfigFileName)
	info, err := os.Stat(configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, *cfg, loaded)
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "yaml"
	err := Save(cfg, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("falls back to embedded defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadOrDefault(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.NodeHome)
		assert.Equal(t, testGatewayProgram, cfg.GatewayProgramID)
		assert.Equal(t, uint8(9), cfg.TokenDecimals)
		assert.Equal(t, filepath.Join(dir, constant.KeysSubdir, "fee_payer.json"), cfg.FeePayerKeypairPath())
		assert.Equal(t, filepath.Join(dir, constant.DatabasesSubdir), cfg.JournalDir())
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, constant.ConfigSubdir), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(dir, constant.ConfigSubdir, constant.ConfigFileName), []byte("{"), 0o600))
		_, err := LoadOrDefault(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unmarshal config")
	})
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg, err := LoadDefaultConfig()
	require.NoError(t, err)
	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, []string{"http://localhost:8899"}, cfg.RPCURLs)
	assert.Equal(t, testRegistryProgram, cfg.RegistryProgramID)
}

func TestFeePayerKeypairPathAbsolute(t *testing.T) {
	cfg := validConfig()
	cfg.NodeHome = "/home/bridge/.pgateway"
	cfg.FeePayerKeypair = "/etc/keys/payer.json"
	assert.Equal(t, "/etc/keys/payer.json", cfg.FeePayerKeypairPath())
}

func TestReadRetryConfig(t *testing.T) {
	cfg := validConfig()
	cfg.MaxRetries = 5
	cfg.RetryBackoffSeconds = 2
	cfg.RequestTimeoutSeconds = 10

	retry := cfg.ReadRetryConfig()
	assert.Equal(t, 5, retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, retry.InitialDelay)
	assert.GreaterOrEqual(t, retry.MaxDelay, retry.InitialDelay)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout())
}
