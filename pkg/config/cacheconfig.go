package config

import (
	"time"

	"github.com/eventpass/companion-sdk/pkg/cmd/properties"
)

// CacheConfig - Interface for the local cache config
type CacheConfig interface {
	GetNamespace() string
	GetSchemaVersion() string
	GetStoragePath() string
	GetDefaultTTL() time.Duration
	GetHardMaxAge() time.Duration
	Validate() error
}

// CacheConfiguration -
type CacheConfiguration struct {
	Namespace     string        `config:"namespace"`
	SchemaVersion string        `config:"schemaVersion"`
	StoragePath   string        `config:"storagePath"`
	DefaultTTL    time.Duration `config:"defaultTTL"`
	HardMaxAge    time.Duration `config:"hardMaxAge"`
}

// NewCacheConfig - create a cache config with default values
func NewCacheConfig() *CacheConfiguration {
	return &CacheConfiguration{
		Namespace:     "companion",
		SchemaVersion: "1.0.0",
		StoragePath:   "./cache",
		DefaultTTL:    15 * time.Minute,
		HardMaxAge:    24 * time.Hour,
	}
}

// GetNamespace - Returns the key prefix shared by all cache entries
func (c *CacheConfiguration) GetNamespace() string {
	return c.Namespace
}

// GetSchemaVersion - Returns the schema version stamped on written entries
func (c *CacheConfiguration) GetSchemaVersion() string {
	return c.SchemaVersion
}

// GetStoragePath - Returns the directory used by the file storage backend
func (c *CacheConfiguration) GetStoragePath() string {
	return c.StoragePath
}

// GetDefaultTTL - Returns the ttl applied when a table declares no override
func (c *CacheConfiguration) GetDefaultTTL() time.Duration {
	return c.DefaultTTL
}

// GetHardMaxAge - Returns the age past which stale entries are evicted outright
func (c *CacheConfiguration) GetHardMaxAge() time.Duration {
	return c.HardMaxAge
}

// Validate - checks the cache config values
func (c *CacheConfiguration) Validate() error {
	if c.Namespace == "" {
		return ErrBadConfig.FormatError("cache.namespace")
	}
	if c.SchemaVersion == "" {
		return ErrBadConfig.FormatError("cache.schemaVersion")
	}
	if c.DefaultTTL <= 0 {
		return ErrBadConfig.FormatError("cache.defaultTTL")
	}
	if c.HardMaxAge > 0 && c.HardMaxAge < c.DefaultTTL {
		return ErrBadConfig.FormatError("cache.hardMaxAge")
	}
	return nil
}

const (
	pathNamespace     = "cache.namespace"
	pathSchemaVersion = "cache.schemaVersion"
	pathStoragePath   = "cache.storagePath"
	pathDefaultTTL    = "cache.defaultTTL"
	pathHardMaxAge    = "cache.hardMaxAge"
)

// AddCacheConfigProperties - Adds the command properties needed for Cache Config
func AddCacheConfigProperties(props properties.Properties) {
	defaults := NewCacheConfig()
	props.AddStringProperty(pathNamespace, defaults.Namespace, "Key prefix shared by every cache entry")
	props.AddStringProperty(pathSchemaVersion, defaults.SchemaVersion, "Schema version stamped on written entries")
	props.AddStringProperty(pathStoragePath, defaults.StoragePath, "Directory used by the file storage backend")
	props.AddDurationProperty(pathDefaultTTL, defaults.DefaultTTL, "Time before a cached table is considered stale")
	props.AddDurationProperty(pathHardMaxAge, defaults.HardMaxAge, "Age past which stale entries are evicted outright")
}

// ParseCacheConfig - Parses the Cache Config values from the command line
func ParseCacheConfig(props properties.Properties) (CacheConfig, error) {
	cfg := &CacheConfiguration{
		Namespace:     props.StringPropertyValue(pathNamespace),
		SchemaVersion: props.StringPropertyValue(pathSchemaVersion),
		StoragePath:   props.StringPropertyValue(pathStoragePath),
		DefaultTTL:    props.DurationPropertyValue(pathDefaultTTL),
		HardMaxAge:    props.DurationPropertyValue(pathHardMaxAge),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
