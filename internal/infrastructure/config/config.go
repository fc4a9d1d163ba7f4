package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Cooker Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Relay     RelayConfig     `yaml:"relay"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RelayConfig contains vendor relay connection settings.
type RelayConfig struct {
	// URL is the websocket endpoint of the vendor relay (ws:// or wss://).
	URL string `yaml:"url"`

	// Token is the account credential presented during connection
	// establishment. It is never included in message payloads.
	Token string `yaml:"token"`

	// Accessories is the capability filter announced at connect time.
	Accessories string `yaml:"accessories"`

	// DeviceID optionally pins the bridge to a specific cooker when the
	// account has more than one. Empty means first device announced.
	DeviceID string `yaml:"device_id"`

	Timeouts  RelayTimeoutConfig   `yaml:"timeouts"`
	Reconnect RelayReconnectConfig `yaml:"reconnect"`
}

// RelayTimeoutConfig contains relay timeout settings in seconds.
type RelayTimeoutConfig struct {
	Connect   int `yaml:"connect"`
	Command   int `yaml:"command"`
	Discovery int `yaml:"discovery"`
}

// RelayReconnectConfig contains relay reconnection settings.
// Delays are in seconds. MaxAttempts of 0 means unlimited.
type RelayReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// MQTTConfig contains MQTT broker connection settings for status fan-out.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// AssistantConfig contains settings for the stdio tool surface.
type AssistantConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: COOKERD_SECTION_KEY
// For example: COOKERD_RELAY_TOKEN, COOKERD_MQTT_HOST
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Relay: RelayConfig{
			Accessories: "APC",
			Timeouts: RelayTimeoutConfig{
				Connect:   10,
				Command:   10,
				Discovery: 30,
			},
			Reconnect: RelayReconnectConfig{
				InitialDelay: 2,
				MaxDelay:     120,
				MaxAttempts:  0,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "cookerd",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		// stderr keeps stdout clean for the assistant's MCP stream.
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: COOKERD_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Relay
	if v := os.Getenv("COOKERD_RELAY_URL"); v != "" {
		cfg.Relay.URL = v
	}
	if v := os.Getenv("COOKERD_RELAY_TOKEN"); v != "" {
		cfg.Relay.Token = v
	}
	if v := os.Getenv("COOKERD_RELAY_DEVICE_ID"); v != "" {
		cfg.Relay.DeviceID = v
	}

	// MQTT
	if v := os.Getenv("COOKERD_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("COOKERD_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("COOKERD_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("COOKERD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Relay validation
	if c.Relay.URL == "" {
		errs = append(errs, "relay.url is required")
	} else if u, err := url.Parse(c.Relay.URL); err != nil {
		errs = append(errs, fmt.Sprintf("relay.url is not a valid URL: %v", err))
	} else if u.Scheme != "ws" && u.Scheme != "wss" {
		errs = append(errs, "relay.url scheme must be ws or wss")
	}

	// The relay rejects unauthenticated upgrades, so an empty token can
	// never produce a working bridge. Fail fast at startup instead.
	if c.Relay.Token == "" {
		errs = append(errs, "relay.token is required (set COOKERD_RELAY_TOKEN environment variable)")
	}

	if c.Relay.Timeouts.Connect < 1 {
		errs = append(errs, "relay.timeouts.connect must be at least 1 second")
	}
	if c.Relay.Timeouts.Command < 1 {
		errs = append(errs, "relay.timeouts.command must be at least 1 second")
	}
	if c.Relay.Timeouts.Discovery < 1 {
		errs = append(errs, "relay.timeouts.discovery must be at least 1 second")
	}
	if c.Relay.Reconnect.InitialDelay < 1 {
		errs = append(errs, "relay.reconnect.initial_delay must be at least 1 second")
	}
	if c.Relay.Reconnect.MaxDelay < c.Relay.Reconnect.InitialDelay {
		errs = append(errs, "relay.reconnect.max_delay must be >= initial_delay")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the relay connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Connect) * time.Second
}

// GetCommandTimeout returns the relay command timeout as a Duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Command) * time.Second
}

// GetDiscoveryTimeout returns the device discovery timeout as a Duration.
func (c *Config) GetDiscoveryTimeout() time.Duration {
	return time.Duration(c.Relay.Timeouts.Discovery) * time.Second
}

// GetReconnectInitialDelay returns the initial relay reconnect delay as a Duration.
func (c *Config) GetReconnectInitialDelay() time.Duration {
	return time.Duration(c.Relay.Reconnect.InitialDelay) * time.Second
}

// GetReconnectMaxDelay returns the maximum relay reconnect delay as a Duration.
func (c *Config) GetReconnectMaxDelay() time.Duration {
	return time.Duration(c.Relay.Reconnect.MaxDelay) * time.Second
}
