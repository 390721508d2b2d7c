package config

import "fmt"

// Config is the complete configuration for the approvalguard service.
type Config struct {
	// LogLevel is the zap level name: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" json:"log_level" toml:"log_level"`

	// Development enables console-encoded, human-readable logs instead of JSON.
	Development bool `yaml:"development" json:"development" toml:"development"`

	// RPC contains the JSON-RPC endpoint and retry policy.
	RPC RPCConfig `yaml:"rpc" json:"rpc" toml:"rpc"`

	// API contains the inbound HTTP server configuration.
	API APIConfig `yaml:"api" json:"api" toml:"api"`

	// Scanner contains orchestrator tuning knobs.
	Scanner ScannerConfig `yaml:"scanner" json:"scanner" toml:"scanner"`

	// Metrics contains the Prometheus metrics server configuration.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics" toml:"metrics"`

	// Chains is the supported chain-id -> explorer/revoke URL map. If empty,
	// ApplyDefaults populates the five chains the report assembler supports
	// at the URL level (Ethereum mainnet, Polygon, Arbitrum, Optimism, Base).
	Chains []ChainConfig `yaml:"chains" json:"chains" toml:"chains"`
}

// RPCConfig configures the RPC Gateway's endpoint and per-call behavior.
type RPCConfig struct {
	// Endpoint is the JSON-RPC URL (env eth_rpc_url by convention).
	Endpoint string `yaml:"endpoint" json:"endpoint" toml:"endpoint"`

	// CallTimeout bounds a single JSON-RPC call (spec: 30s deadline per call).
	CallTimeout Duration `yaml:"call_timeout" json:"call_timeout" toml:"call_timeout"`

	// Retry is the exponential-backoff policy layered above the raw client.
	Retry RetryConfig `yaml:"retry" json:"retry" toml:"retry"`

	// ExplorerAPIKey optionally enables Spender Classifier explorer lookups
	// (env etherscan_api_key by convention). Empty disables step 2 of
	// classification and falls straight through to the get_code probe.
	ExplorerAPIKey string `yaml:"explorer_api_key" json:"explorer_api_key" toml:"explorer_api_key"`
}

// ApplyDefaults fills unset RPC fields with conservative production values.
func (r *RPCConfig) ApplyDefaults() {
	if r.CallTimeout.Duration == 0 {
		r.CallTimeout = Duration{30 * 1e9} // 30s
	}
	r.Retry.ApplyDefaults()
}

// RetryConfig is the exponential-backoff policy used by retryWithBackoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff caps the exponential growth of the delay.
	MaxBackoff Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the exponential growth factor applied per attempt.
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults fills unset retry fields with conservative production values.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 3
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = Duration{250 * 1e6} // 250ms
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = Duration{5 * 1e9} // 5s
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// APIConfig configures the inbound HTTP server.
type APIConfig struct {
	Host string     `yaml:"host" json:"host" toml:"host"`
	Port int        `yaml:"port" json:"port" toml:"port"`
	CORS CORSConfig `yaml:"cors" json:"cors" toml:"cors"`
}

// ApplyDefaults fills unset API fields; the spec's default bind is
// 0.0.0.0:8000.
func (a *APIConfig) ApplyDefaults() {
	if a.Host == "" {
		a.Host = "0.0.0.0"
	}
	if a.Port == 0 {
		a.Port = 8000
	}
}

// ListenAddress returns the host:port the API server binds to.
func (a *APIConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// CORSConfig is the configured frontend origin allowlist.
type CORSConfig struct {
	// AllowedOrigins is the configured frontend origin list. A single "*"
	// entry allows any origin; an empty list allows none (the middleware
	// sets no CORS headers).
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" toml:"allowed_origins"`
}

// ScannerConfig tunes the Scanner Orchestrator.
type ScannerConfig struct {
	// ConcurrencyLimit bounds simultaneous in-flight RPC calls per scan.
	ConcurrencyLimit int `yaml:"concurrency_limit" json:"concurrency_limit" toml:"concurrency_limit"`

	// HistoricalBlockWindow is how many blocks behind head the log scan
	// reaches; fromBlock = max(0, head - HistoricalBlockWindow).
	HistoricalBlockWindow uint64 `yaml:"historical_block_window" json:"historical_block_window" toml:"historical_block_window"`

	// BlockTimeSeconds approximates age_days when block_timestamp is
	// unavailable: (head - block_number) * BlockTimeSeconds / 86400.
	BlockTimeSeconds uint64 `yaml:"block_time_seconds" json:"block_time_seconds" toml:"block_time_seconds"`

	// ScanTimeout bounds an entire scan; exceeding it cancels in-flight RPC
	// calls and fails the scan rather than returning partial results.
	ScanTimeout Duration `yaml:"scan_timeout" json:"scan_timeout" toml:"scan_timeout"`
}

// ApplyDefaults fills unset scanner fields per the spec's suggested values.
func (s *ScannerConfig) ApplyDefaults() {
	if s.ConcurrencyLimit == 0 {
		s.ConcurrencyLimit = 12
	}
	if s.HistoricalBlockWindow == 0 {
		s.HistoricalBlockWindow = 5_000_000
	}
	if s.BlockTimeSeconds == 0 {
		s.BlockTimeSeconds = 12
	}
	if s.ScanTimeout.Duration == 0 {
		s.ScanTimeout = Duration{60 * 1e9} // 60s
	}
}

// MetricsConfig configures the optional Prometheus metrics HTTP server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	Host    string `yaml:"host" json:"host" toml:"host"`
	Port    int    `yaml:"port" json:"port" toml:"port"`
	Path    string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults fills unset metrics fields.
func (m *MetricsConfig) ApplyDefaults() {
	if m.Host == "" {
		m.Host = "0.0.0.0"
	}
	if m.Port == 0 {
		m.Port = 9090
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// ListenAddress returns the host:port the metrics server binds to.
func (m *MetricsConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// ChainConfig is one supported chain's explorer/revoke URL wiring.
type ChainConfig struct {
	ChainID      int64  `yaml:"chain_id" json:"chain_id" toml:"chain_id"`
	Name         string `yaml:"name" json:"name" toml:"name"`
	ExplorerBase string `yaml:"explorer_base" json:"explorer_base" toml:"explorer_base"`
}

// defaultChains mirrors spec §4.7's "chain 1 -> etherscan.io; 137, 42161, 10,
// 8453 supported at URL level".
func defaultChains() []ChainConfig {
	return []ChainConfig{
		{ChainID: 1, Name: "Ethereum", ExplorerBase: "https://etherscan.io"},
		{ChainID: 137, Name: "Polygon", ExplorerBase: "https://polygonscan.com"},
		{ChainID: 42161, Name: "Arbitrum One", ExplorerBase: "https://arbiscan.io"},
		{ChainID: 10, Name: "Optimism", ExplorerBase: "https://optimistic.etherscan.io"},
		{ChainID: 8453, Name: "Base", ExplorerBase: "https://basescan.org"},
	}
}

// ApplyDefaults sets default values for optional configuration fields,
// cascading into every nested section.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.RPC.ApplyDefaults()
	c.API.ApplyDefaults()
	c.Scanner.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	if len(c.Chains) == 0 {
		c.Chains = defaultChains()
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.RPC.Endpoint == "" {
		return fmt.Errorf("rpc.endpoint is required")
	}
	if c.RPC.Retry.MaxAttempts < 1 {
		return fmt.Errorf("rpc.retry.max_attempts must be at least 1")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535")
	}
	if c.Scanner.ConcurrencyLimit < 1 {
		return fmt.Errorf("scanner.concurrency_limit must be at least 1")
	}

	seen := make(map[int64]bool, len(c.Chains))
	for i, chain := range c.Chains {
		if chain.ChainID <= 0 {
			return fmt.Errorf("chains[%d]: chain_id must be positive", i)
		}
		if chain.ExplorerBase == "" {
			return fmt.Errorf("chains[%d]: explorer_base is required", i)
		}
		if seen[chain.ChainID] {
			return fmt.Errorf("chains[%d]: duplicate chain_id %d", i, chain.ChainID)
		}
		seen[chain.ChainID] = true
	}

	return nil
}

// ChainByID looks up a configured chain, returning false if chainID is not
// supported.
func (c *Config) ChainByID(chainID int64) (ChainConfig, bool) {
	for _, chain := range c.Chains {
		if chain.ChainID == chainID {
			return chain, true
		}
	}
	return ChainConfig{}, false
}
