package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 9009, cfg.Server.UDPPort)
	assert.Equal(t, "0.0.0.0", cfg.Server.BindAddress)
	assert.Equal(t, 1024, cfg.Server.BufferSize)
	assert.Equal(t, "127.0.0.1:9009", cfg.Client.Address())
	assert.Equal(t, "Ping Python", cfg.Client.Message)
	assert.Equal(t, 1, cfg.Client.Count)
	assert.Equal(t, time.Duration(0), cfg.Client.GetTimeoutDuration())
	assert.Equal(t, "windows-1250", cfg.Codec.Encoding)
	assert.False(t, cfg.HTTP.Enabled)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:     "invalid server port",
			mutate:   func(c *Config) { c.Server.UDPPort = 70000 },
			errorMsg: "udp_port must be between 0 and 65535",
		},
		{
			name:     "empty bind address",
			mutate:   func(c *Config) { c.Server.BindAddress = "" },
			errorMsg: "bind_address cannot be empty",
		},
		{
			name:     "zero buffer",
			mutate:   func(c *Config) { c.Server.BufferSize = 0 },
			errorMsg: "buffer_size must be between 1 and 65535",
		},
		{
			name:     "client port zero",
			mutate:   func(c *Config) { c.Client.ServerPort = 0 },
			errorMsg: "server_port must be between 1 and 65535",
		},
		{
			name:     "client count zero",
			mutate:   func(c *Config) { c.Client.Count = 0 },
			errorMsg: "count must be at least 1",
		},
		{
			name:     "negative timeout",
			mutate:   func(c *Config) { c.Client.Timeout = -5 },
			errorMsg: "timeout cannot be negative",
		},
		{
			name: "http enabled without address",
			mutate: func(c *Config) {
				c.HTTP.Enabled = true
				c.HTTP.Address = ""
			},
			errorMsg: "http address cannot be empty",
		},
		{
			name:     "empty encoding",
			mutate:   func(c *Config) { c.Codec.Encoding = " " },
			errorMsg: "encoding cannot be empty",
		},
		{
			name: "rule without keyword",
			mutate: func(c *Config) {
				c.Dispatch.Rules = []RuleConfig{{Keyword: "", Reply: "Pong"}}
			},
			errorMsg: "rule 0: keyword cannot be empty",
		},
		{
			name:     "invalid log level",
			mutate:   func(c *Config) { c.Logging.Level = "trace" },
			errorMsg: "level must be one of",
		},
		{
			name:     "invalid log format",
			mutate:   func(c *Config) { c.Logging.Format = "xml" },
			errorMsg: "format must be 'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()

	validConfig := `
server:
  udp_port: 9010
  bind_address: "127.0.0.1"
  journal_path: "messages.txt"

client:
  message: "Ping Java"
  count: 5
  interval: 1000

codec:
  encoding: "iso-8859-2"

dispatch:
  rules:
    - keyword: "go"
      reply: "Pong Go"

logging:
  level: "debug"
  format: "json"
`

	configPath := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(validConfig), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9010, cfg.Server.UDPPort)
	assert.Equal(t, "127.0.0.1", cfg.Server.BindAddress)
	// unspecified values keep their defaults
	assert.Equal(t, 1024, cfg.Server.BufferSize)
	assert.Equal(t, "messages.txt", cfg.Server.JournalPath)
	assert.Equal(t, "Ping Java", cfg.Client.Message)
	assert.Equal(t, 5, cfg.Client.Count)
	assert.Equal(t, time.Second, cfg.Client.GetIntervalDuration())
	assert.Equal(t, "iso-8859-2", cfg.Codec.Encoding)
	require.Len(t, cfg.Dispatch.Rules, 1)
	assert.Equal(t, RuleConfig{Keyword: "go", Reply: "Pong Go"}, cfg.Dispatch.Rules[0])
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfigErrors(t *testing.T) {
	tempDir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(tempDir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(tempDir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  udp_port: -1\n"), 0644))

		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PINGPONG_SERVER_UDP_PORT", "9100")
	t.Setenv("PINGPONG_CLIENT_MESSAGE", "Ping Java")
	t.Setenv("PINGPONG_CLIENT_TIMEOUT", "250")
	t.Setenv("PINGPONG_HTTP_ENABLED", "true")
	t.Setenv("PINGPONG_CODEC_ENCODING", "utf-8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.UDPPort)
	assert.Equal(t, "Ping Java", cfg.Client.Message)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.GetTimeoutDuration())
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, "utf-8", cfg.Codec.Encoding)
	// untouched
	assert.Equal(t, "127.0.0.1", cfg.Client.ServerHost)
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Client, cfg.Client)
	assert.Equal(t, []RuleConfig{
		{Keyword: "python", Reply: "Pong Python"},
		{Keyword: "java", Reply: "Pong Java"},
	}, cfg.Dispatch.Rules)
}
