// Package config provides hierarchical configuration loading for sentinel.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the sentinel service.
type Config struct {
	Server   Server   `yaml:"server"`
	Ledger   Ledger   `yaml:"ledger"`
	Judge    Judge    `yaml:"judge"`
	Executor Executor `yaml:"executor"`
	Lists    Lists    `yaml:"lists"`
	Stream   Stream   `yaml:"stream"`
	NATS     NATS     `yaml:"nats"`
	Cache    Cache    `yaml:"cache"`
	Breaker  Breaker  `yaml:"breaker"`
	Logging  Logging  `yaml:"logging"`
	OTel     OTel     `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// Ledger holds NEAR RPC and event stream endpoints plus the contracts
// this service watches and drives.
type Ledger struct {
	RPCURL         string `yaml:"rpc_url"`
	StreamURL      string `yaml:"stream_url"`
	VotingContract string `yaml:"voting_contract"` // source of proposals and target of approvals
	AgentContract  string `yaml:"agent_contract"`  // proxy contract executing approvals
}

// Judge holds judgment provider (LiteLLM proxy) configuration.
type Judge struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Executor selects and configures the on-chain execution path.
// Mode "agent" delegates signing to the shade-agent sidecar; mode "relay"
// submits function-call jobs to a transaction relay.
type Executor struct {
	Mode     string        `yaml:"mode"`
	AgentURL string        `yaml:"agent_url"`
	RelayURL string        `yaml:"relay_url"`
	SignerID string        `yaml:"signer_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Lists holds the operator-configured proposer allow/deny lists.
type Lists struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// Stream holds reconnect behavior for the event stream listener.
type Stream struct {
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffCap  time.Duration `yaml:"backoff_cap"`
	MaxAttempts int           `yaml:"max_attempts"`
	Workers     int           `yaml:"workers"`
}

// NATS holds the optional outcome publisher configuration. An empty URL
// disables publishing.
type NATS struct {
	URL string `yaml:"url"`
}

// Cache holds the proposal fetch cache configuration.
type Cache struct {
	MaxSizeMB int64         `yaml:"max_size_mb"`
	TTL       time.Duration `yaml:"ttl"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// OTel holds the OTLP exporter endpoint. Empty disables export.
type OTel struct {
	Endpoint string `yaml:"endpoint"`
}

// Autonomous reports whether autonomous execution is enabled: both a target
// proxy contract identity and a signing credential must be configured.
func (c *Config) Autonomous() bool {
	return c.Ledger.AgentContract != "" && c.Executor.SignerID != ""
}

// Completeness summarizes which integrations are configured. It is
// reported on the aggregate status endpoint so operators can see at a
// glance what the service is missing.
type Completeness struct {
	Ledger   bool `json:"ledger"`
	Judge    bool `json:"judge"`
	Executor bool `json:"executor"`
	Stream   bool `json:"stream"`
	Complete bool `json:"complete"`
}

// Completeness reports which integrations have the settings they need.
// Stream is optional for Complete: the service still screens on demand
// without a live event feed.
func (c *Config) Completeness() Completeness {
	comp := Completeness{
		Ledger: c.Ledger.RPCURL != "" && c.Ledger.VotingContract != "",
		Judge:  c.Judge.URL != "" && c.Judge.Model != "",
		Stream: c.Ledger.StreamURL != "",
	}
	switch c.Executor.Mode {
	case "relay":
		comp.Executor = c.Executor.RelayURL != "" && c.Executor.SignerID != ""
	default:
		comp.Executor = c.Executor.AgentURL != ""
	}
	comp.Complete = comp.Ledger && comp.Judge && comp.Executor
	return comp
}

// Defaults returns a Config with sensible default values for testnet operation.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8087",
			CORSOrigin: "http://localhost:3000",
		},
		Ledger: Ledger{
			RPCURL:         "https://rpc.testnet.near.org",
			StreamURL:      "wss://events.testnet.near.org/ws",
			VotingContract: "shade.ballotbox.testnet",
		},
		Judge: Judge{
			URL:     "http://localhost:4000",
			Model:   "openai/gpt-4o-mini",
			Timeout: 10 * time.Second,
		},
		Executor: Executor{
			Mode:    "agent",
			Timeout: 10 * time.Second,
		},
		Stream: Stream{
			BackoffBase: time.Second,
			BackoffCap:  30 * time.Second,
			MaxAttempts: 10,
			Workers:     4,
		},
		Cache: Cache{
			MaxSizeMB: 16,
			TTL:       5 * time.Minute,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "sentinel",
		},
	}
}
