package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "sentinel.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SENTINEL_PORT")
	setString(&cfg.Server.CORSOrigin, "SENTINEL_CORS_ORIGIN")
	setString(&cfg.Ledger.RPCURL, "SENTINEL_RPC_URL")
	setString(&cfg.Ledger.StreamURL, "SENTINEL_STREAM_URL")
	setString(&cfg.Ledger.VotingContract, "SENTINEL_VOTING_CONTRACT")
	setString(&cfg.Ledger.AgentContract, "SENTINEL_AGENT_CONTRACT")
	setString(&cfg.Judge.URL, "SENTINEL_JUDGE_URL")
	setString(&cfg.Judge.APIKey, "SENTINEL_JUDGE_API_KEY")
	setString(&cfg.Judge.Model, "SENTINEL_JUDGE_MODEL")
	setDuration(&cfg.Judge.Timeout, "SENTINEL_JUDGE_TIMEOUT")
	setString(&cfg.Executor.Mode, "SENTINEL_EXECUTOR_MODE")
	setString(&cfg.Executor.AgentURL, "SENTINEL_AGENT_URL")
	setString(&cfg.Executor.RelayURL, "SENTINEL_RELAY_URL")
	setString(&cfg.Executor.SignerID, "SENTINEL_SIGNER_ID")
	setDuration(&cfg.Executor.Timeout, "SENTINEL_EXECUTOR_TIMEOUT")
	setList(&cfg.Lists.Allow, "SENTINEL_ALLOW_LIST")
	setList(&cfg.Lists.Deny, "SENTINEL_DENY_LIST")
	setDuration(&cfg.Stream.BackoffBase, "SENTINEL_STREAM_BACKOFF_BASE")
	setDuration(&cfg.Stream.BackoffCap, "SENTINEL_STREAM_BACKOFF_CAP")
	setInt(&cfg.Stream.MaxAttempts, "SENTINEL_STREAM_MAX_ATTEMPTS")
	setInt(&cfg.Stream.Workers, "SENTINEL_STREAM_WORKERS")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxSizeMB, "SENTINEL_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "SENTINEL_CACHE_TTL")
	setInt(&cfg.Breaker.MaxFailures, "SENTINEL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "SENTINEL_BREAKER_TIMEOUT")
	setString(&cfg.Logging.Level, "SENTINEL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SENTINEL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SENTINEL_LOG_ASYNC")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Ledger.RPCURL == "" {
		return errors.New("ledger.rpc_url is required")
	}
	if cfg.Ledger.VotingContract == "" {
		return errors.New("ledger.voting_contract is required")
	}
	if cfg.Executor.Mode != "agent" && cfg.Executor.Mode != "relay" {
		return fmt.Errorf("executor.mode must be \"agent\" or \"relay\", got %q", cfg.Executor.Mode)
	}
	if cfg.Stream.MaxAttempts < 1 {
		return errors.New("stream.max_attempts must be >= 1")
	}
	if cfg.Stream.Workers < 1 {
		return errors.New("stream.workers must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setList splits a comma-separated env value into a string slice.
func setList(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
