package syncer

import (
	"context"
	"time"
)

// defaults for the retry policy
const (
	// DefaultRetries - additional attempts after the first failed fetch
	DefaultRetries = 2
	// DefaultRetryDelay - base delay before the first retry
	DefaultRetryDelay = 250 * time.Millisecond
	// DefaultBackoffFactor - multiplier applied to the delay between retries
	DefaultBackoffFactor = 2
	// DefaultMaxRetryDelay - cap on the delay between retries
	DefaultMaxRetryDelay = 5 * time.Second
)

// Fetcher - fetches the current records for a table from the network data source
type Fetcher func(ctx context.Context) (interface{}, error)

// Config - retry policy for background refreshes
type Config struct {
	Retries       int
	RetryDelay    time.Duration
	BackoffFactor int
	MaxRetryDelay time.Duration
}

// Result - the structured outcome of one refresh. Nothing the orchestrator
// does propagates as an uncaught error into consumer code.
type Result struct {
	Success bool
	Table   string
	// Data is the freshly fetched payload on success
	Data interface{}
	// Discarded is true when the fetch succeeded but a fresher result had
	// already been applied for the table
	Discarded bool
	Err       error
}

// EventType - the kind of notification published after a refresh
type EventType string

// event types published to subscribers
const (
	EventUpdated EventType = "updated"
	EventError   EventType = "error"
)

// Event - published to subscribers when a background refresh finishes
type Event struct {
	Type     EventType
	Table    string
	Data     interface{}
	Records  int
	Checksum string
	Err      error
}

// refreshOptions - per-call overrides of the syncer policy
type refreshOptions struct {
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
}

// RefreshOption - optional per-call override for Refresh
type RefreshOption func(*refreshOptions)

// WithTTL - cache the refreshed data with an explicit ttl
func WithTTL(ttl time.Duration) RefreshOption {
	return func(o *refreshOptions) {
		o.ttl = ttl
	}
}

// WithRetries - override the retry count for this refresh
func WithRetries(retries int) RefreshOption {
	return func(o *refreshOptions) {
		o.retries = retries
	}
}

// WithRetryDelay - override the base retry delay for this refresh
func WithRetryDelay(delay time.Duration) RefreshOption {
	return func(o *refreshOptions) {
		o.retryDelay = delay
	}
}

// Syncer - coordinates background refreshes: at most one in-flight fetch per
// table, results written through the cache, subscribers notified
type Syncer interface {
	Refresh(ctx context.Context, table string, fetch Fetcher, options ...RefreshOption) Result
	Subscribe(callback func(Event)) string
	Unsubscribe(id string) error
	Reset()
	Stop()
}
