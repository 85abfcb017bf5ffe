package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the ComfoAir bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	History  HistoryConfig  `yaml:"history"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SerialConfig contains settings for the RS-232 link to the ventilation unit.
type SerialConfig struct {
	// Device is the serial device path (e.g. /dev/ttyUSB0).
	Device string `yaml:"device"`

	// Baud is the line speed. The ComfoAir RS-232 port is fixed at 9600.
	Baud int `yaml:"baud"`

	// PollInterval is how often fan state and temperatures are requested
	// from the unit, in seconds. The unit also emits unsolicited traffic
	// when a CC Ease panel is attached; polling guarantees updates either way.
	PollInterval int `yaml:"poll_interval"`

	// ReconnectInterval is the delay between serial reopen attempts, in seconds.
	ReconnectInterval int `yaml:"reconnect_interval"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
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
// The bridge retries at a fixed interval, forever.
type MQTTReconnectConfig struct {
	Interval int `yaml:"interval"`
}

// HistoryConfig contains settings for the optional SQLite value history.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	BusyTimeout   int    `yaml:"busy_timeout"`
	RetentionDays int    `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
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
// Environment variables follow the pattern: COMFOBRIDGE_SECTION_KEY
// For example: COMFOBRIDGE_SERIAL_DEVICE, COMFOBRIDGE_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded configuration (not yet validated; callers may still
//     apply CLI flag overrides before calling Validate)
//   - error: If file cannot be read or parsed
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Baud:              9600,
			PollInterval:      30,
			ReconnectInterval: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "comfobridge",
			},
			QoS: 0,
			Reconnect: MQTTReconnectConfig{
				Interval: 3,
			},
		},
		History: HistoryConfig{
			Path:          "./data/comfobridge.db",
			BusyTimeout:   5,
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadDefault returns the built-in defaults with environment variable
// overrides applied, for running without a configuration file.
func LoadDefault() *Config {
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: COMFOBRIDGE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Serial
	if v := os.Getenv("COMFOBRIDGE_SERIAL_DEVICE"); v != "" {
		cfg.Serial.Device = v
	}

	// MQTT
	if v := os.Getenv("COMFOBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("COMFOBRIDGE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("COMFOBRIDGE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// History
	if v := os.Getenv("COMFOBRIDGE_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}

	// InfluxDB
	if v := os.Getenv("COMFOBRIDGE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// ApplyBrokerURL parses an MQTT URL of the form scheme://host:port and
// applies it to the broker settings. Accepted schemes are mqtt, tcp
// (plaintext) and mqtts, ssl (TLS).
func (c *Config) ApplyBrokerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing MQTT URL: %w", err)
	}

	switch u.Scheme {
	case "mqtt", "tcp":
		c.MQTT.Broker.TLS = false
	case "mqtts", "ssl":
		c.MQTT.Broker.TLS = true
	default:
		return fmt.Errorf("unsupported MQTT URL scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return fmt.Errorf("MQTT URL %q has no host", raw)
	}
	c.MQTT.Broker.Host = u.Hostname()

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("parsing MQTT URL port: %w", err)
		}
		c.MQTT.Broker.Port = port
	}

	if u.User != nil {
		c.MQTT.Auth.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.MQTT.Auth.Password = pw
		}
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Serial validation
	if c.Serial.Device == "" {
		errs = append(errs, "serial.device is required")
	}
	if c.Serial.Baud <= 0 {
		errs = append(errs, "serial.baud must be positive")
	}
	if c.Serial.ReconnectInterval < 1 {
		errs = append(errs, "serial.reconnect_interval must be at least 1 second")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Reconnect.Interval < 1 {
		errs = append(errs, "mqtt.reconnect.interval must be at least 1 second")
	}

	// History validation
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, "history.path is required when history is enabled")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetPollInterval returns the device poll interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Serial.PollInterval) * time.Second
}

// GetSerialReconnectInterval returns the serial reopen delay as a Duration.
func (c *Config) GetSerialReconnectInterval() time.Duration {
	return time.Duration(c.Serial.ReconnectInterval) * time.Second
}

// GetMQTTReconnectInterval returns the MQTT retry delay as a Duration.
func (c *Config) GetMQTTReconnectInterval() time.Duration {
	return time.Duration(c.MQTT.Reconnect.Interval) * time.Second
}
