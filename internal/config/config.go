package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default values matching the classroom ping/pong setup
const (
	DefaultUDPPort       = 9009
	DefaultBindAddress   = "0.0.0.0"
	DefaultServerHost    = "127.0.0.1"
	DefaultBufferSize    = 1024
	DefaultEncoding      = "windows-1250"
	DefaultMessage       = "Ping Python"
	DefaultReplyPrefix   = "python udp server received msg: "
	DefaultReceivePrefix = "python udp server received msg: "

	// EnvPrefix is prepended to environment overrides, e.g. PINGPONG_SERVER_UDP_PORT
	EnvPrefix = "PINGPONG"
)

// Config represents the complete service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Client   ClientConfig   `yaml:"client"`
	HTTP     HTTPConfig     `yaml:"http"`
	Codec    CodecConfig    `yaml:"codec"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains UDP server configuration
type ServerConfig struct {
	UDPPort       int    `yaml:"udp_port"`
	BindAddress   string `yaml:"bind_address"`
	BufferSize    int    `yaml:"buffer_size"`
	ReceivePrefix string `yaml:"receive_prefix"`
	JournalPath   string `yaml:"journal_path"`
}

// ClientConfig contains UDP client configuration
type ClientConfig struct {
	ServerHost  string `yaml:"server_host"`
	ServerPort  int    `yaml:"server_port"`
	BufferSize  int    `yaml:"buffer_size"`
	Message     string `yaml:"message"`
	ReplyPrefix string `yaml:"reply_prefix"`
	Count       int    `yaml:"count"`
	Interval    int    `yaml:"interval"` // milliseconds
	Timeout     int    `yaml:"timeout"`  // milliseconds, 0 blocks forever
}

// HTTPConfig contains HTTP monitoring API configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// CodecConfig selects the wire text encoding
type CodecConfig struct {
	Encoding string `yaml:"encoding"`
}

// DispatchConfig lists keyword rules in match order
type DispatchConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig is a single keyword → reply mapping
type RuleConfig struct {
	Keyword string `yaml:"keyword"`
	Reply   string `yaml:"reply"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the built-in configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			UDPPort:       DefaultUDPPort,
			BindAddress:   DefaultBindAddress,
			BufferSize:    DefaultBufferSize,
			ReceivePrefix: DefaultReceivePrefix,
		},
		Client: ClientConfig{
			ServerHost:  DefaultServerHost,
			ServerPort:  DefaultUDPPort,
			BufferSize:  DefaultBufferSize,
			Message:     DefaultMessage,
			ReplyPrefix: DefaultReplyPrefix,
			Count:       1,
			Interval:    1000,
		},
		HTTP: HTTPConfig{
			Port:    9090,
			Address: "127.0.0.1",
		},
		Codec: CodecConfig{
			Encoding: DefaultEncoding,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads the configuration file on top of the defaults, applies
// environment overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	ApplyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides scalar settings from PINGPONG_* environment variables
func ApplyEnv(c *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setInt("server.udp_port", &c.Server.UDPPort)
	setString("server.bind_address", &c.Server.BindAddress)
	setInt("server.buffer_size", &c.Server.BufferSize)
	setString("server.journal_path", &c.Server.JournalPath)

	setString("client.server_host", &c.Client.ServerHost)
	setInt("client.server_port", &c.Client.ServerPort)
	setString("client.message", &c.Client.Message)
	setInt("client.count", &c.Client.Count)
	setInt("client.interval", &c.Client.Interval)
	setInt("client.timeout", &c.Client.Timeout)

	if v.IsSet("http.enabled") {
		c.HTTP.Enabled = v.GetBool("http.enabled")
	}
	setInt("http.port", &c.HTTP.Port)
	setString("http.address", &c.HTTP.Address)

	setString("codec.encoding", &c.Codec.Encoding)

	setString("logging.level", &c.Logging.Level)
	setString("logging.format", &c.Logging.Format)
	setString("logging.output", &c.Logging.Output)
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Codec.Validate(); err != nil {
		return fmt.Errorf("codec config: %w", err)
	}

	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.UDPPort < 0 || s.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 0 and 65535, got %d", s.UDPPort)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.BufferSize < 1 || s.BufferSize > 65535 {
		return fmt.Errorf("buffer_size must be between 1 and 65535 bytes, got %d", s.BufferSize)
	}

	return nil
}

// Validate validates client configuration
func (c *ClientConfig) Validate() error {
	if c.ServerHost == "" {
		return fmt.Errorf("server_host cannot be empty")
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port must be between 1 and 65535, got %d", c.ServerPort)
	}

	if c.BufferSize < 1 || c.BufferSize > 65535 {
		return fmt.Errorf("buffer_size must be between 1 and 65535 bytes, got %d", c.BufferSize)
	}

	if c.Count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", c.Count)
	}

	if c.Interval < 0 {
		return fmt.Errorf("interval cannot be negative, got %d", c.Interval)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", c.Timeout)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate checks that an encoding name is present. Resolution happens in
// the codec package so unknown names surface with the codec's error.
func (c *CodecConfig) Validate() error {
	if strings.TrimSpace(c.Encoding) == "" {
		return fmt.Errorf("encoding cannot be empty")
	}
	return nil
}

// Validate validates dispatch rules
func (d *DispatchConfig) Validate() error {
	for i, rule := range d.Rules {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("rule %d: keyword cannot be empty", i)
		}
		if rule.Reply == "" {
			return fmt.Errorf("rule %d: reply cannot be empty", i)
		}
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// Address returns the UDP listen address in host:port form
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.UDPPort)
}

// Address returns the server address the client targets
func (c *ClientConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// GetIntervalDuration returns the pause between client exchanges
func (c *ClientConfig) GetIntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// GetTimeoutDuration returns the client receive timeout; zero means none
func (c *ClientConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}
