// Package syncer coordinates the revalidate half of stale-while-revalidate:
// fetch fresh data from the network, write it through the cache, and tell
// subscribers that it landed. Concurrent refreshes of the same table are
// coalesced onto a single fetch, and results are applied by freshness, never
// by arrival order.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventpass/companion-sdk/pkg/cache"
	"github.com/eventpass/companion-sdk/pkg/envelope"
	"github.com/eventpass/companion-sdk/pkg/notification"
	utilerrors "github.com/eventpass/companion-sdk/pkg/util/errors"
	"github.com/eventpass/companion-sdk/pkg/util/log"
)

type refreshState struct {
	seq    uint64
	epoch  uint64
	done   chan struct{}
	result Result
}

type companionSyncer struct {
	cfg          Config
	cache        cache.Cache
	logger       log.FieldLogger
	notifier     notification.Notifier
	notifierName string
	events       chan interface{}

	inFlightMutex sync.Mutex
	inFlight      map[string]*refreshState
	nextSeq       map[string]uint64
	lastApplied   map[string]uint64
	// epoch is bumped by Reset; results from an earlier epoch are never
	// written, so a sign-out cannot be undone by a fetch still in flight
	epoch uint64
}

// New - create a syncer writing through the given cache
func New(cfg Config, companionCache cache.Cache) Syncer {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.BackoffFactor <= 1 {
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = DefaultMaxRetryDelay
	}

	notifierName := "companion-sync-" + uuid.New().String()
	events := make(chan interface{}, 32)
	notifier, err := notification.RegisterNotifier(notifierName, events)
	if err != nil {
		// uuid suffixed names cannot collide
		panic(err)
	}
	notifier.Start()

	return &companionSyncer{
		cfg:          cfg,
		cache:        companionCache,
		logger:       log.NewFieldLogger().WithField("component", "syncer"),
		notifier:     notifier,
		notifierName: notifierName,
		events:       events,
		inFlight:     make(map[string]*refreshState),
		nextSeq:      make(map[string]uint64),
		lastApplied:  make(map[string]uint64),
	}
}

// Refresh - fetch fresh data for a table and write it through the cache. A
// call made while a refresh for the same table is in flight attaches to the
// existing operation and receives its result; exactly one network fetch runs.
// The attaching caller's options are ignored, the in-flight operation wins.
func (s *companionSyncer) Refresh(ctx context.Context, table string, fetch Fetcher, options ...RefreshOption) Result {
	opts := refreshOptions{
		retries:    s.cfg.Retries,
		retryDelay: s.cfg.RetryDelay,
	}
	for _, o := range options {
		o(&opts)
	}

	s.inFlightMutex.Lock()
	if state, ok := s.inFlight[table]; ok {
		s.inFlightMutex.Unlock()
		<-state.done
		return state.result
	}
	s.nextSeq[table]++
	state := &refreshState{
		seq:   s.nextSeq[table],
		epoch: s.epoch,
		done:  make(chan struct{}),
	}
	s.inFlight[table] = state
	s.inFlightMutex.Unlock()

	state.result = s.execute(ctx, table, fetch, state, opts)

	s.inFlightMutex.Lock()
	if s.inFlight[table] == state {
		delete(s.inFlight, table)
	}
	s.inFlightMutex.Unlock()
	close(state.done)
	return state.result
}

// execute - run the fetch with the bounded retry policy
func (s *companionSyncer) execute(ctx context.Context, table string, fetch Fetcher, state *refreshState, opts refreshOptions) Result {
	if opts.retries < 0 {
		opts.retries = 0
	}
	if opts.retryDelay <= 0 {
		opts.retryDelay = s.cfg.RetryDelay
	}
	retryTimeout := newBackoffTimeout(opts.retryDelay, s.cfg.MaxRetryDelay, s.cfg.BackoffFactor)
	attempts := opts.retries + 1

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		data, err := fetch(ctx)
		if err == nil {
			return s.apply(table, state, data, opts.ttl)
		}
		lastErr = err
		s.logger.WithError(err).WithField("table", table).WithField("attempt", attempt+1).
			Debug("background refresh attempt failed")
		if attempt < attempts-1 {
			retryTimeout.sleep()
			retryTimeout.increaseTimeout()
		}
	}

	// the existing cache entry, stale or not, is deliberately left in place
	err := fmt.Errorf("%s: %v", utilerrors.ErrSyncFetchFailed.FormatError(table, attempts).Error(), lastErr)
	s.logger.WithError(lastErr).WithField("table", table).Warn("background refresh failed, keeping last known good data")
	s.publish(Event{Type: EventError, Table: table, Err: err})
	return Result{Success: false, Table: table, Err: err}
}

// apply - write the fetched data through the cache unless a fresher refresh
// already landed for this table or Reset ran since the fetch started
func (s *companionSyncer) apply(table string, state *refreshState, data interface{}, ttl time.Duration) Result {
	s.inFlightMutex.Lock()
	if state.epoch != s.epoch || state.seq <= s.lastApplied[table] {
		s.inFlightMutex.Unlock()
		s.logger.WithField("table", table).Debug(utilerrors.ErrSyncStaleSequence.FormatError(table).Error())
		return Result{Success: true, Table: table, Data: data, Discarded: true}
	}
	s.lastApplied[table] = state.seq
	s.inFlightMutex.Unlock()

	if err := s.cache.SetWithTTL(table, data, ttl); err != nil {
		s.publish(Event{Type: EventError, Table: table, Err: err})
		return Result{Success: false, Table: table, Err: err}
	}

	// deliver the filtered, persisted form of the data, not the raw fetch
	lookup := s.cache.Get(table)
	event := Event{Type: EventUpdated, Table: table, Data: lookup.Data}
	if records, ok := lookup.Data.([]interface{}); ok {
		event.Records = len(records)
	}
	if checksum, err := envelope.ComputeChecksum(lookup.Data); err == nil {
		event.Checksum = checksum
	}
	s.publish(event)
	return Result{Success: true, Table: table, Data: lookup.Data}
}

func (s *companionSyncer) publish(event Event) {
	s.events <- event
}

// Subscribe - register a callback invoked for every refresh event
func (s *companionSyncer) Subscribe(callback func(Event)) string {
	channel := make(chan interface{}, 16)
	subscriber, err := notification.Subscribe(s.notifierName, channel)
	if err != nil {
		return ""
	}

	go func() {
		for msg := range channel {
			if event, ok := msg.(Event); ok {
				callback(event)
			}
		}
	}()

	return subscriber.GetID()
}

// Unsubscribe - stop delivering events to the subscriber identified by id
func (s *companionSyncer) Unsubscribe(id string) error {
	return notification.Unsubscribe(s.notifierName, id)
}

// Reset - forget all in-flight markers and sequence state. Called on cache
// clear so a sign-out/sign-in cycle cannot leave a stale in-flight marker
// blocking future refreshes.
func (s *companionSyncer) Reset() {
	s.inFlightMutex.Lock()
	defer s.inFlightMutex.Unlock()
	s.inFlight = make(map[string]*refreshState)
	s.nextSeq = make(map[string]uint64)
	s.lastApplied = make(map[string]uint64)
	s.epoch++
}

// Stop - shut down event delivery
func (s *companionSyncer) Stop() {
	s.notifier.Stop()
}
