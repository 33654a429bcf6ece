package config

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/eventpass/companion-sdk/pkg/cmd/properties"
)

func newTestProperties() properties.Properties {
	rootCmd := &cobra.Command{Use: "test"}
	props := properties.NewProperties(rootCmd)
	AddCacheConfigProperties(props)
	AddSyncConfigProperties(props)
	AddProxyConfigProperties(props)
	return props
}

func TestCacheConfigDefaults(t *testing.T) {
	props := newTestProperties()

	cfg, err := ParseCacheConfig(props)
	assert.Nil(t, err, "a default cache config should parse cleanly")
	assert.Equal(t, "companion", cfg.GetNamespace())
	assert.Equal(t, "1.0.0", cfg.GetSchemaVersion())
	assert.Equal(t, "./cache", cfg.GetStoragePath())
	assert.Equal(t, 15*time.Minute, cfg.GetDefaultTTL())
	assert.Equal(t, 24*time.Hour, cfg.GetHardMaxAge())
}

func TestCacheConfigValidate(t *testing.T) {
	cfg := NewCacheConfig()
	assert.Nil(t, cfg.Validate())

	cfg = NewCacheConfig()
	cfg.Namespace = ""
	assert.NotNil(t, cfg.Validate(), "an empty namespace is rejected")

	cfg = NewCacheConfig()
	cfg.SchemaVersion = ""
	assert.NotNil(t, cfg.Validate(), "an empty schema version is rejected")

	cfg = NewCacheConfig()
	cfg.DefaultTTL = 0
	assert.NotNil(t, cfg.Validate(), "a zero ttl is rejected")

	cfg = NewCacheConfig()
	cfg.HardMaxAge = cfg.DefaultTTL / 2
	assert.NotNil(t, cfg.Validate(), "a hard max age shorter than the ttl is rejected")
}

func TestSyncConfigDefaults(t *testing.T) {
	props := newTestProperties()

	cfg, err := ParseSyncConfig(props)
	assert.Nil(t, err, "a default sync config should parse cleanly")
	assert.Equal(t, 2, cfg.GetRetries())
	assert.Equal(t, 250*time.Millisecond, cfg.GetRetryDelay())
	assert.Equal(t, 2, cfg.GetBackoffFactor())
	assert.Equal(t, 5*time.Second, cfg.GetMaxRetryDelay())
}

func TestSyncConfigValidate(t *testing.T) {
	cfg := NewSyncConfig()
	assert.Nil(t, cfg.Validate())

	cfg = NewSyncConfig()
	cfg.Retries = -1
	assert.NotNil(t, cfg.Validate(), "negative retries are rejected")

	cfg = NewSyncConfig()
	cfg.RetryDelay = 0
	assert.NotNil(t, cfg.Validate(), "a zero retry delay is rejected")

	cfg = NewSyncConfig()
	cfg.BackoffFactor = 0
	assert.NotNil(t, cfg.Validate(), "a backoff factor below one is rejected")
}

func TestProxyConfigValidate(t *testing.T) {
	cfg := NewProxyConfig()
	cfg.BaseURL = "https://api.eventpass.example"
	assert.Nil(t, cfg.Validate())

	cfg = NewProxyConfig()
	assert.NotNil(t, cfg.Validate(), "a missing base URL is rejected")

	cfg = NewProxyConfig()
	cfg.BaseURL = "not a url"
	assert.NotNil(t, cfg.Validate(), "a malformed base URL is rejected")

	cfg = NewProxyConfig()
	cfg.BaseURL = "https://api.eventpass.example"
	cfg.Timeout = 0
	assert.NotNil(t, cfg.Validate(), "a zero timeout is rejected")
}

func TestProxyConfigFromFlags(t *testing.T) {
	rootCmd := &cobra.Command{Use: "test"}
	props := properties.NewProperties(rootCmd)
	AddProxyConfigProperties(props)

	err := rootCmd.PersistentFlags().Parse([]string{
		"--proxybaseURL", "https://api.eventpass.example",
		"--proxytimeout", "30s",
		"--proxysessionToken", "session-abc",
	})
	assert.Nil(t, err)

	cfg, err := ParseProxyConfig(props)
	assert.Nil(t, err)
	assert.Equal(t, "https://api.eventpass.example", cfg.GetBaseURL())
	assert.Equal(t, 30*time.Second, cfg.GetTimeout())
	assert.Equal(t, "session-abc", cfg.GetSessionToken())
}
