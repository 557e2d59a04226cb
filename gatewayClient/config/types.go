package config

// Config is the on-disk configuration of the gateway client.
type Config struct {
	// Log Config
	LogLevel   int    `json:"log_level"`   // e.g., 0 = debug, 1 = info, etc.
	LogFormat  string `json:"log_format"`  // "json" or "console"
	LogSampler bool   `json:"log_sampler"` // if true, samples logs (e.g., 1 in 5)

	// Node Config
	NodeHome string `json:"node_home"` // Node home directory (default: ~/.pgateway)

	// Solana cluster
	RPCURLs     []string `json:"rpc_urls"`     // RPC endpoints, tried round-robin
	GenesisHash string   `json:"genesis_hash"` // Optional genesis hash prefix every endpoint must match

	// Program identities. Parsed once at startup and injected into every derivation.
	GatewayProgramID  string `json:"gateway_program_id"`  // base58 gateway program id
	RegistryProgramID string `json:"registry_program_id"` // base58 gateway registry program id

	// Fee payer keypair (solana-keygen JSON). Relative paths resolve against <NodeHome>/keys.
	FeePayerKeypair string `json:"fee_payer_keypair"`

	// Decimals of the wrapped token, used by BurnChecked
	TokenDecimals uint8 `json:"token_decimals"`

	// RPC read policy
	MaxRetries            int `json:"max_retries"`             // Max attempts for idempotent RPC reads (default: 3)
	RetryBackoffSeconds   int `json:"retry_backoff_seconds"`   // Initial backoff between read attempts (default: 1)
	RequestTimeoutSeconds int `json:"request_timeout_seconds"` // Per-command RPC deadline (default: 30)
}
