// Package loader is the consumer-facing surface of the companion data layer.
// UI code asks the loader for a named table and gets cached data immediately
// when any valid entry exists, with a background refresh triggered on every
// load; consumers subscribe to be told when fresher data lands. Nothing
// outside this package should reach into the cache or the syncer directly.
package loader

import (
	"context"
	"sync"
	"time"

	"github.com/eventpass/companion-sdk/pkg/cache"
	"github.com/eventpass/companion-sdk/pkg/syncer"
	"github.com/eventpass/companion-sdk/pkg/util/log"
)

// Options - per-table loading policy
type Options struct {
	// TTL for entries written by this table's refreshes, zero keeps the
	// table or cache default
	TTL time.Duration
	// Retries overrides the refresh retry count when set; a pointer to zero
	// forces a single attempt, nil keeps the syncer default
	Retries *int
	// RetryDelay overrides the base retry delay when non-zero
	RetryDelay time.Duration
}

// Loader - hands out table handles and routes refresh events to them
type Loader struct {
	cache          cache.Cache
	syncer         syncer.Syncer
	logger         log.FieldLogger
	subscriptionID string

	handlesMutex sync.Mutex
	handles      map[string][]*Handle
}

// New - create a loader over a cache and its syncer
func New(companionCache cache.Cache, companionSyncer syncer.Syncer) *Loader {
	l := &Loader{
		cache:   companionCache,
		syncer:  companionSyncer,
		logger:  log.NewFieldLogger().WithField("component", "loader"),
		handles: make(map[string][]*Handle),
	}
	l.subscriptionID = companionSyncer.Subscribe(l.onEvent)
	return l
}

// Load - return a handle for a table. Cached data, stale included, is
// available on the handle synchronously; Loading reports true only when
// there was nothing cached to show. A background refresh is always kicked.
func (l *Loader) Load(ctx context.Context, table string, fetch syncer.Fetcher, opts Options) *Handle {
	lookup := l.cache.Get(table)

	handle := &Handle{
		table:       table,
		loader:      l,
		fetch:       fetch,
		opts:        opts,
		data:        lookup.Data,
		hasData:     lookup.Found,
		loading:     !lookup.Found,
		subscribers: make(map[int]func(interface{})),
	}

	l.handlesMutex.Lock()
	l.handles[table] = append(l.handles[table], handle)
	l.handlesMutex.Unlock()

	go l.refresh(ctx, handle)
	return handle
}

// Teardown - the sign-out hook: clears every cached entry in the namespace,
// resets in-flight refresh state and detaches all handles
func (l *Loader) Teardown() error {
	l.handlesMutex.Lock()
	l.handles = make(map[string][]*Handle)
	l.handlesMutex.Unlock()

	l.syncer.Reset()
	if err := l.cache.Clear(); err != nil {
		l.logger.WithError(err).Error("failed to clear cache during teardown")
		return err
	}
	return nil
}

func (l *Loader) refresh(ctx context.Context, handle *Handle) {
	options := []syncer.RefreshOption{}
	if handle.opts.TTL > 0 {
		options = append(options, syncer.WithTTL(handle.opts.TTL))
	}
	if handle.opts.Retries != nil {
		options = append(options, syncer.WithRetries(*handle.opts.Retries))
	}
	if handle.opts.RetryDelay > 0 {
		options = append(options, syncer.WithRetryDelay(handle.opts.RetryDelay))
	}
	l.syncer.Refresh(ctx, handle.table, handle.fetch, options...)
}

// onEvent - routes refresh outcomes to every active handle for the table
func (l *Loader) onEvent(event syncer.Event) {
	l.handlesMutex.Lock()
	handles := append([]*Handle{}, l.handles[event.Table]...)
	l.handlesMutex.Unlock()

	for _, handle := range handles {
		switch event.Type {
		case syncer.EventUpdated:
			handle.applyData(event.Data)
		case syncer.EventError:
			handle.applyError(event.Err)
		}
	}
}

// Handle - one consumer's view of a table
type Handle struct {
	table  string
	loader *Loader
	fetch  syncer.Fetcher
	opts   Options

	mutex       sync.Mutex
	data        interface{}
	hasData     bool
	loading     bool
	err         error
	nextSubID   int
	subscribers map[int]func(interface{})
}

// Data - the latest data for the table, nil when nothing has loaded yet
func (h *Handle) Data() interface{} {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.data
}

// Loading - true only during a cache-miss cold start, never when stale data
// is being shown while a refresh runs
func (h *Handle) Loading() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.loading
}

// Err - the last refresh failure, cleared by the next successful refresh.
// When cached data exists the data keeps being served alongside the error.
func (h *Handle) Err() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.err
}

// Refresh - force an immediate re-fetch regardless of staleness. A refresh
// already in flight for the table is joined, not duplicated.
func (h *Handle) Refresh(ctx context.Context) {
	h.loader.refresh(ctx, h)
}

// Subscribe - register a callback invoked with fresh data after every
// successful refresh of this table; returns an id for Unsubscribe
func (h *Handle) Subscribe(callback func(data interface{})) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.nextSubID++
	h.subscribers[h.nextSubID] = callback
	return h.nextSubID
}

// Unsubscribe - remove a callback registered with Subscribe
func (h *Handle) Unsubscribe(id int) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.subscribers, id)
}

func (h *Handle) applyData(data interface{}) {
	h.mutex.Lock()
	h.data = data
	h.hasData = true
	h.loading = false
	h.err = nil
	callbacks := make([]func(interface{}), 0, len(h.subscribers))
	for _, callback := range h.subscribers {
		callbacks = append(callbacks, callback)
	}
	h.mutex.Unlock()

	for _, callback := range callbacks {
		callback(data)
	}
}

func (h *Handle) applyError(err error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.loading = false
	h.err = err
}
