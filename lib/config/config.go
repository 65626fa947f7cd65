// Copyright 2026 The Claimlink Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "CLAIMLINK_SIGNER_CONFIG"

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the signer configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	Identity   IdentityConfig   `yaml:"identity"`
	Agent      AgentConfig      `yaml:"agent"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Delegation DelegationConfig `yaml:"delegation"`
	Batch      BatchConfig      `yaml:"batch"`
	Log        LogConfig        `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment sections. Only non-empty fields
// replace base values.
type Overrides struct {
	Identity *IdentityConfig `yaml:"identity,omitempty"`
	Agent    *AgentConfig    `yaml:"agent,omitempty"`
	Gateway  *GatewayConfig  `yaml:"gateway,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
}

// IdentityConfig locates the signing key.
type IdentityConfig struct {
	// File is a PKCS#8 Ed25519 PEM, optionally age-encrypted. Empty
	// means the anonymous identity.
	File string `yaml:"file"`

	// AgeIdentityFile holds AGE-SECRET-KEY-1 lines that decrypt File.
	AgeIdentityFile string `yaml:"age_identity_file"`

	// PassphraseEnv names an environment variable holding the scrypt
	// passphrase for File. When File is encrypted and neither this nor
	// AgeIdentityFile is set, the CLI prompts on the terminal.
	PassphraseEnv string `yaml:"passphrase_env"`
}

// AgentConfig configures the replica HTTP agent.
type AgentConfig struct {
	// Host is the replica or boundary node base URL.
	Host string `yaml:"host"`

	// FetchRootKey asks the replica for its root key at startup. Only
	// for local replicas: mainnet's key is built in.
	FetchRootKey bool `yaml:"fetch_root_key"`

	// IngressExpiry is how far in the future call envelopes expire.
	IngressExpiry string `yaml:"ingress_expiry"`

	// RequestTimeout bounds each HTTP round trip.
	RequestTimeout string `yaml:"request_timeout"`

	Poll PollConfig `yaml:"poll"`
}

// PollConfig shapes the exponential backoff used while waiting for a
// call to reach a terminal status.
type PollConfig struct {
	InitialDelay string  `yaml:"initial_delay"`
	MaxDelay     string  `yaml:"max_delay"`
	Multiplier   float64 `yaml:"multiplier"`
	Timeout      string  `yaml:"timeout"`
}

// GatewayConfig configures the network endpoint.
type GatewayConfig struct {
	// Listen is the TCP address, e.g. "127.0.0.1:8765".
	Listen string `yaml:"listen"`

	// AllowedOrigins lists WebSocket origin patterns accepted besides
	// same-origin requests.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageBytes bounds one inbound JSON-RPC message.
	MaxMessageBytes int64 `yaml:"max_message_bytes"`

	// Compress enables gzip for HTTP responses.
	Compress bool `yaml:"compress"`
}

// DelegationConfig configures icrc34_delegation.
type DelegationConfig struct {
	// DefaultTTL applies when the request omits maxTimeToLive.
	DefaultTTL string `yaml:"default_ttl"`
}

// BatchConfig configures icrc112_batch_call_canister.
type BatchConfig struct {
	// ValidatorMethod is called on the validation canister when the
	// request does not name one.
	ValidatorMethod string `yaml:"validator_method"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is auto, text, or json. Auto picks text on a terminal.
	Format string `yaml:"format"`
}

// Default returns the configuration used as the base for every load.
func Default() *Config {
	return &Config{
		Environment: Development,
		Agent: AgentConfig{
			Host:           "https://icp-api.io",
			IngressExpiry:  "4m",
			RequestTimeout: "30s",
			Poll: PollConfig{
				InitialDelay: "500ms",
				MaxDelay:     "1s",
				Multiplier:   1.4,
				Timeout:      "5m",
			},
		},
		Gateway: GatewayConfig{
			Listen:          "127.0.0.1:8765",
			MaxMessageBytes: 1 << 20,
			Compress:        true,
		},
		Delegation: DelegationConfig{DefaultTTL: "8h"},
		Batch:      BatchConfig{ValidatorMethod: "icrc114_validate"},
		Log:        LogConfig{Level: "info", Format: "auto"},
	}
}

// Load reads the file named by CLAIMLINK_SIGNER_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads the file at path over Default, applies the matching
// environment section, and expands variables.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := Parse(data, IsJSONC(path))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return config, nil
}

// IsJSONC reports whether path is read as JSON with comments.
func IsJSONC(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	}
	return false
}

// Parse decodes data over Default. JSON is a subset of YAML, so JSONC
// input is stripped and then decoded with the same field tags.
func Parse(data []byte, isJSONC bool) (*Config, error) {
	config := Default()
	if isJSONC {
		data = jsonc.ToJSON(data)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	config.applyEnvironmentOverrides()
	config.expandVariables()
	return config, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if o := overrides.Identity; o != nil {
		setString(&c.Identity.File, o.File)
		setString(&c.Identity.AgeIdentityFile, o.AgeIdentityFile)
		setString(&c.Identity.PassphraseEnv, o.PassphraseEnv)
	}
	if o := overrides.Agent; o != nil {
		setString(&c.Agent.Host, o.Host)
		// Bools always apply from an override section that sets the
		// agent block.
		c.Agent.FetchRootKey = o.FetchRootKey
		setString(&c.Agent.IngressExpiry, o.IngressExpiry)
		setString(&c.Agent.RequestTimeout, o.RequestTimeout)
		setString(&c.Agent.Poll.InitialDelay, o.Poll.InitialDelay)
		setString(&c.Agent.Poll.MaxDelay, o.Poll.MaxDelay)
		setString(&c.Agent.Poll.Timeout, o.Poll.Timeout)
		if o.Poll.Multiplier != 0 {
			c.Agent.Poll.Multiplier = o.Poll.Multiplier
		}
	}
	if o := overrides.Gateway; o != nil {
		setString(&c.Gateway.Listen, o.Listen)
		if len(o.AllowedOrigins) > 0 {
			c.Gateway.AllowedOrigins = o.AllowedOrigins
		}
		if o.MaxMessageBytes != 0 {
			c.Gateway.MaxMessageBytes = o.MaxMessageBytes
		}
		c.Gateway.Compress = o.Compress
	}
	if o := overrides.Log; o != nil {
		setString(&c.Log.Level, o.Level)
		setString(&c.Log.Format, o.Format)
	}
}

func setString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func (c *Config) expandVariables() {
	c.Identity.File = expandVars(c.Identity.File)
	c.Identity.AgeIdentityFile = expandVars(c.Identity.AgeIdentityFile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default} from the process
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Agent.Host == "" {
		errs = append(errs, errors.New("agent.host is required"))
	}
	if c.Gateway.Listen == "" {
		errs = append(errs, errors.New("gateway.listen is required"))
	}
	if c.Gateway.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("gateway.max_message_bytes must be positive"))
	}
	if c.Agent.Poll.Multiplier < 1 {
		errs = append(errs, fmt.Errorf("agent.poll.multiplier must be at least 1, got %v", c.Agent.Poll.Multiplier))
	}
	if c.Batch.ValidatorMethod == "" {
		errs = append(errs, errors.New("batch.validator_method is required"))
	}
	if c.Identity.AgeIdentityFile != "" && c.Identity.PassphraseEnv != "" {
		errs = append(errs, errors.New("identity.age_identity_file and identity.passphrase_env are mutually exclusive"))
	}

	durations := []struct {
		name  string
		value string
	}{
		{"agent.ingress_expiry", c.Agent.IngressExpiry},
		{"agent.request_timeout", c.Agent.RequestTimeout},
		{"agent.poll.initial_delay", c.Agent.Poll.InitialDelay},
		{"agent.poll.max_delay", c.Agent.Poll.MaxDelay},
		{"agent.poll.timeout", c.Agent.Poll.Timeout},
		{"delegation.default_ttl", c.Delegation.DefaultTTL},
	}
	for _, field := range durations {
		if _, err := parsePositiveDuration(field.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level))
	}
	if !slices.Contains([]string{"auto", "text", "json"}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of auto, text, json; got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

func parsePositiveDuration(value string) (time.Duration, error) {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", value)
	}
	return duration, nil
}

// mustDuration parses a field Validate has already accepted.
func mustDuration(value string) time.Duration {
	duration, err := parsePositiveDuration(value)
	if err != nil {
		panic(fmt.Sprintf("config: unvalidated duration %q: %v", value, err))
	}
	return duration
}

// IngressExpiry returns Agent.IngressExpiry. Call Validate first.
func (c *Config) IngressExpiry() time.Duration { return mustDuration(c.Agent.IngressExpiry) }

// RequestTimeout returns Agent.RequestTimeout. Call Validate first.
func (c *Config) RequestTimeout() time.Duration { return mustDuration(c.Agent.RequestTimeout) }

// PollInitialDelay returns Agent.Poll.InitialDelay. Call Validate first.
func (c *Config) PollInitialDelay() time.Duration { return mustDuration(c.Agent.Poll.InitialDelay) }

// PollMaxDelay returns Agent.Poll.MaxDelay. Call Validate first.
func (c *Config) PollMaxDelay() time.Duration { return mustDuration(c.Agent.Poll.MaxDelay) }

// PollTimeout returns Agent.Poll.Timeout. Call Validate first.
func (c *Config) PollTimeout() time.Duration { return mustDuration(c.Agent.Poll.Timeout) }

// DelegationTTL returns Delegation.DefaultTTL. Call Validate first.
func (c *Config) DelegationTTL() time.Duration { return mustDuration(c.Delegation.DefaultTTL) }
