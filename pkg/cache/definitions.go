package cache

import (
	"time"
)

// defaults applied when the configuration leaves a policy unset
const (
	// DefaultTTL - how long an entry is served before it is flagged stale
	DefaultTTL = 15 * time.Minute
	// DefaultHardMaxAgeFactor - multiple of the ttl after which a stale entry
	// is evicted outright instead of served
	DefaultHardMaxAgeFactor = 4
	// DefaultHardMaxAgeFloor - hard max-age never drops below this bound
	DefaultHardMaxAgeFloor = 24 * time.Hour
)

// Config - policy for one cache instance
type Config struct {
	// Namespace prefixes every storage key so clearing the cache never
	// touches unrelated application state
	Namespace string
	// SchemaVersion is stamped on every written entry and checked on read
	SchemaVersion string
	// TTL applied when a table declares no override
	DefaultTTL time.Duration
	// HardMaxAge evicts entries this old even when they are otherwise intact.
	// Zero selects DefaultHardMaxAgeFactor times the ttl, floored at
	// DefaultHardMaxAgeFloor.
	HardMaxAge time.Duration
}

// TableSpec - the declaration for one logical table handled by the cache
type TableSpec struct {
	// Name of the logical table, e.g. attendees
	Name string
	// EntityTag selects the redact policy applied before persistence
	EntityTag string
	// TTL overrides the cache default when non-zero
	TTL time.Duration
}

// Lookup - the outcome of a cache read. A Lookup never carries corrupt or
// wrong-version data; those entries are evicted during the read.
type Lookup struct {
	// Data is the cached payload, nil on a miss
	Data interface{}
	// Found is true when valid data was returned
	Found bool
	// Stale is true when the returned data is past its ttl and should be
	// refreshed in the background
	Stale bool
	// Evicted is true when the read found an entry and had to remove it
	Evicted bool
	// Reasons carries the validation reasons when an entry was evicted
	Reasons []string
}

// KeyState - the validation state of one key in a health snapshot
type KeyState string

// key states reported by HealthStatus
const (
	KeyStateValid   KeyState = "valid"
	KeyStateStale   KeyState = "stale"
	KeyStateInvalid KeyState = "invalid"
)

// KeyStatus - health detail for one cached key
type KeyStatus struct {
	Key   string   `json:"key"`
	State KeyState `json:"state"`
	Size  int      `json:"size"`
	Age   string   `json:"age,omitempty"`
}

// HealthStatus - read-only diagnostic snapshot of the cache
type HealthStatus struct {
	Keys              []KeyStatus `json:"keys"`
	InvalidCount      int         `json:"invalidCount"`
	StaleCount        int         `json:"staleCount"`
	TotalSizeEstimate int         `json:"totalSizeEstimate"`
}

// Cache - Interface for managing the companion data cache
type Cache interface {
	RegisterTable(spec TableSpec)
	Get(table string) Lookup
	Set(table string, data interface{}) error
	SetWithTTL(table string, data interface{}, ttl time.Duration) error
	Remove(table string) error
	Invalidate(table string) error
	Clear() error
	HealthStatus() HealthStatus
}
