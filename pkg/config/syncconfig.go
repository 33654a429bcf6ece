package config

import (
	"time"

	"github.com/eventpass/companion-sdk/pkg/cmd/properties"
)

// SyncConfig - Interface for the background sync config
type SyncConfig interface {
	GetRetries() int
	GetRetryDelay() time.Duration
	GetBackoffFactor() int
	GetMaxRetryDelay() time.Duration
	Validate() error
}

// SyncConfiguration -
type SyncConfiguration struct {
	Retries       int           `config:"retries"`
	RetryDelay    time.Duration `config:"retryDelay"`
	BackoffFactor int           `config:"backoffFactor"`
	MaxRetryDelay time.Duration `config:"maxRetryDelay"`
}

// NewSyncConfig - create a sync config with default values
func NewSyncConfig() *SyncConfiguration {
	return &SyncConfiguration{
		Retries:       2,
		RetryDelay:    250 * time.Millisecond,
		BackoffFactor: 2,
		MaxRetryDelay: 5 * time.Second,
	}
}

// GetRetries - Returns the additional attempts after a failed fetch
func (c *SyncConfiguration) GetRetries() int {
	return c.Retries
}

// GetRetryDelay - Returns the base delay before the first retry
func (c *SyncConfiguration) GetRetryDelay() time.Duration {
	return c.RetryDelay
}

// GetBackoffFactor - Returns the multiplier applied between retries
func (c *SyncConfiguration) GetBackoffFactor() int {
	return c.BackoffFactor
}

// GetMaxRetryDelay - Returns the cap on the delay between retries
func (c *SyncConfiguration) GetMaxRetryDelay() time.Duration {
	return c.MaxRetryDelay
}

// Validate - checks the sync config values
func (c *SyncConfiguration) Validate() error {
	if c.Retries < 0 {
		return ErrBadConfig.FormatError("sync.retries")
	}
	if c.RetryDelay <= 0 {
		return ErrBadConfig.FormatError("sync.retryDelay")
	}
	if c.BackoffFactor < 1 {
		return ErrBadConfig.FormatError("sync.backoffFactor")
	}
	return nil
}

const (
	pathRetries       = "sync.retries"
	pathRetryDelay    = "sync.retryDelay"
	pathBackoffFactor = "sync.backoffFactor"
	pathMaxRetryDelay = "sync.maxRetryDelay"
)

// AddSyncConfigProperties - Adds the command properties needed for Sync Config
func AddSyncConfigProperties(props properties.Properties) {
	defaults := NewSyncConfig()
	props.AddIntProperty(pathRetries, defaults.Retries, "Additional fetch attempts after a failure")
	props.AddDurationProperty(pathRetryDelay, defaults.RetryDelay, "Base delay before the first retry")
	props.AddIntProperty(pathBackoffFactor, defaults.BackoffFactor, "Multiplier applied to the delay between retries")
	props.AddDurationProperty(pathMaxRetryDelay, defaults.MaxRetryDelay, "Cap on the delay between retries")
}

// ParseSyncConfig - Parses the Sync Config values from the command line
func ParseSyncConfig(props properties.Properties) (SyncConfig, error) {
	cfg := &SyncConfiguration{
		Retries:       props.IntPropertyValue(pathRetries),
		RetryDelay:    props.DurationPropertyValue(pathRetryDelay),
		BackoffFactor: props.IntPropertyValue(pathBackoffFactor),
		MaxRetryDelay: props.DurationPropertyValue(pathMaxRetryDelay),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
