// Package cache implements the unified store for companion data: every entry
// is filtered, versioned and checksummed on the way in, and validated with a
// repair-or-evict policy on the way out. The cache owns the read/write path to
// persistent storage; no other component touches the storage keys.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eventpass/companion-sdk/pkg/envelope"
	"github.com/eventpass/companion-sdk/pkg/redact"
	"github.com/eventpass/companion-sdk/pkg/storage"
	utilerrors "github.com/eventpass/companion-sdk/pkg/util/errors"
	"github.com/eventpass/companion-sdk/pkg/util/log"
)

type action int

const (
	getAction action = iota
	setAction
	removeAction
	clearAction
	healthAction
	registerAction
)

type cacheAction struct {
	action action
	table  string
	data   interface{}
	ttl    time.Duration
	spec   TableSpec
}

type reply struct {
	lookup Lookup
	health HealthStatus
	err    error
}

// companionCache - Cache implementation over a storage.Store. All calls are
// serialized through the action channel to prevent locking issues.
type companionCache struct {
	cfg           Config
	store         storage.Store
	tables        map[string]TableSpec
	logger        log.FieldLogger
	actionChannel chan cacheAction
	replyChannel  chan reply
}

// New - create a new cache over the given storage backend
func New(cfg Config, store storage.Store) Cache {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	newCache := &companionCache{
		cfg:           cfg,
		store:         store,
		tables:        make(map[string]TableSpec),
		logger:        log.NewFieldLogger().WithField("component", "cache").WithField("namespace", cfg.Namespace),
		actionChannel: make(chan cacheAction),
		replyChannel:  make(chan reply),
	}
	go newCache.handleAction()
	return newCache
}

// handleAction - handles all calls to the cache to prevent locking issues
func (c *companionCache) handleAction() {
	for {
		thisAction := <-c.actionChannel
		switch thisAction.action {
		case getAction:
			c.get(thisAction.table)
		case setAction:
			c.set(thisAction.table, thisAction.data, thisAction.ttl)
		case removeAction:
			c.remove(thisAction.table)
		case clearAction:
			c.clear()
		case healthAction:
			c.health()
		case registerAction:
			c.register(thisAction.spec)
		}
	}
}

func (c *companionCache) runAction(thisAction cacheAction) reply {
	c.actionChannel <- thisAction
	return <-c.replyChannel
}

func (c *companionCache) storageKey(table string) string {
	return fmt.Sprintf("%s_%s", c.cfg.Namespace, table)
}

func (c *companionCache) keyPrefix() string {
	return c.cfg.Namespace + "_"
}

func (c *companionCache) register(spec TableSpec) {
	c.tables[spec.Name] = spec
	c.replyChannel <- reply{}
}

// get - read, validate and possibly evict the entry for a table
func (c *companionCache) get(table string) {
	thisReply := reply{lookup: Lookup{}}
	defer func() {
		c.replyChannel <- thisReply
	}()

	raw, err := c.store.Get(c.storageKey(table))
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			// degrade to a miss, storage trouble never reaches the caller
			c.logger.WithError(err).WithField("table", table).Error("cache read failed, treating as miss")
		}
		return
	}

	entry := &envelope.Entry{}
	if err := json.Unmarshal(raw, entry); err != nil {
		// malformed JSON is corruption, evict
		c.evict(table, []string{"stored entry is not valid JSON"})
		thisReply.lookup.Evicted = true
		thisReply.lookup.Reasons = []string{"stored entry is not valid JSON"}
		return
	}

	res := envelope.Validate(entry, c.cfg.SchemaVersion)
	if !res.Valid {
		c.evict(table, res.Reasons)
		thisReply.lookup.Evicted = true
		thisReply.lookup.Reasons = res.Reasons
		return
	}

	if age := entry.Age(time.Now()); age > c.hardMaxAge(entry) {
		reasons := []string{fmt.Sprintf("entry age %s is past the hard max-age", age.Truncate(time.Second))}
		c.evict(table, reasons)
		thisReply.lookup.Evicted = true
		thisReply.lookup.Reasons = reasons
		return
	}

	thisReply.lookup.Data = entry.Data
	thisReply.lookup.Found = true
	thisReply.lookup.Stale = res.Stale
}

// hardMaxAge - bound after which even a checksum-valid entry is evicted, so a
// permanently failing refresh cannot keep serving ancient data forever
func (c *companionCache) hardMaxAge(entry *envelope.Entry) time.Duration {
	if c.cfg.HardMaxAge > 0 {
		return c.cfg.HardMaxAge
	}
	maxAge := time.Duration(entry.TTL) * time.Millisecond * DefaultHardMaxAgeFactor
	if maxAge < DefaultHardMaxAgeFloor {
		maxAge = DefaultHardMaxAgeFloor
	}
	return maxAge
}

func (c *companionCache) evict(table string, reasons []string) {
	c.logger.WithField("table", table).WithField("reasons", reasons).Warn("evicting invalid cache entry")
	if err := c.store.Remove(c.storageKey(table)); err != nil {
		c.logger.WithError(err).WithField("table", table).Error("failed to evict cache entry")
	}
}

// set - filter, wrap and persist data for a table. The previous entry is left
// untouched when serialization or the storage write fails.
func (c *companionCache) set(table string, data interface{}, ttl time.Duration) {
	thisReply := reply{}
	defer func() {
		c.replyChannel <- thisReply
	}()

	spec := c.tables[table]

	canonical, err := canonicalize(data)
	if err != nil {
		thisReply.err = utilerrors.ErrCacheSerialization.FormatError(table)
		return
	}

	if redact.IsConfidential(spec.EntityTag) {
		canonical = c.filter(table, spec.EntityTag, canonical)
	}

	if ttl <= 0 {
		ttl = spec.TTL
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	entry, err := envelope.Wrap(canonical, c.cfg.SchemaVersion, ttl)
	if err != nil {
		thisReply.err = utilerrors.ErrCacheSerialization.FormatError(table)
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		thisReply.err = utilerrors.ErrCacheSerialization.FormatError(table)
		return
	}

	if err := c.store.Set(c.storageKey(table), raw); err != nil {
		c.logger.WithError(err).WithField("table", table).Error("cache write failed")
		if errors.Is(err, storage.ErrUnavailable) {
			thisReply.err = utilerrors.ErrCacheStorageUnavailable
			return
		}
		thisReply.err = utilerrors.ErrCacheWriteFailed.FormatError(table)
	}
}

// filter - apply the confidential-field filter and log any would-be leak
func (c *companionCache) filter(table, tag string, data interface{}) interface{} {
	if records, isSlice := data.([]interface{}); isSlice {
		for i, record := range records {
			if audit := redact.Audit(tag, record); !audit.Clean {
				c.logger.WithField("table", table).WithField("index", i).
					WithField("fields", audit.LeakedFields).
					Warn("confidential fields in payload were dropped before caching")
				break
			}
		}
		return redact.FilterSlice(tag, records)
	}
	if audit := redact.Audit(tag, data); !audit.Clean {
		c.logger.WithField("table", table).WithField("fields", audit.LeakedFields).
			Warn("confidential fields in payload were dropped before caching")
	}
	return redact.Filter(tag, data)
}

func (c *companionCache) remove(table string) {
	thisReply := reply{}
	if err := c.store.Remove(c.storageKey(table)); err != nil {
		thisReply.err = err
	}
	c.replyChannel <- thisReply
}

// clear - remove every key in the cache namespace, unrelated storage stays
func (c *companionCache) clear() {
	thisReply := reply{}
	defer func() {
		c.replyChannel <- thisReply
	}()

	keys, err := c.store.Keys(c.keyPrefix())
	if err != nil {
		thisReply.err = err
		return
	}
	for _, key := range keys {
		if err := c.store.Remove(key); err != nil && thisReply.err == nil {
			thisReply.err = err
		}
	}
}

// health - read-only snapshot, entries are validated but never evicted here
func (c *companionCache) health() {
	thisReply := reply{health: HealthStatus{Keys: []KeyStatus{}}}
	defer func() {
		c.replyChannel <- thisReply
	}()

	keys, err := c.store.Keys(c.keyPrefix())
	if err != nil {
		thisReply.err = err
		return
	}

	now := time.Now()
	for _, key := range keys {
		raw, err := c.store.Get(key)
		if err != nil {
			continue
		}
		status := KeyStatus{Key: key, Size: len(raw)}
		entry := &envelope.Entry{}
		if err := json.Unmarshal(raw, entry); err != nil {
			status.State = KeyStateInvalid
		} else {
			res := envelope.Validate(entry, c.cfg.SchemaVersion)
			status.Age = entry.Age(now).Truncate(time.Second).String()
			switch {
			case !res.Valid:
				status.State = KeyStateInvalid
			case res.Stale:
				status.State = KeyStateStale
			default:
				status.State = KeyStateValid
			}
		}
		switch status.State {
		case KeyStateInvalid:
			thisReply.health.InvalidCount++
		case KeyStateStale:
			thisReply.health.StaleCount++
		}
		thisReply.health.TotalSizeEstimate += status.Size
		thisReply.health.Keys = append(thisReply.health.Keys, status)
	}
}

// canonicalize - normalize data to generic JSON values so the redact filter
// and the checksum both see the same shape the storage layer will persist
func canonicalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var canonical interface{}
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return nil, err
	}
	return canonical, nil
}

// RegisterTable - declare a logical table, its entity tag and ttl override
func (c *companionCache) RegisterTable(spec TableSpec) {
	c.runAction(cacheAction{
		action: registerAction,
		spec:   spec,
	})
}

// Get - return the cached data for a table. Corrupt, wrong-version or
// too-old entries are evicted during the read and reported as a miss; stale
// but intact entries are returned with the Stale flag set.
func (c *companionCache) Get(table string) Lookup {
	getReply := c.runAction(cacheAction{
		action: getAction,
		table:  table,
	})
	return getReply.lookup
}

// Set - filter, wrap and persist data for a table with its declared ttl
func (c *companionCache) Set(table string, data interface{}) error {
	return c.SetWithTTL(table, data, 0)
}

// SetWithTTL - Set with an explicit ttl override
func (c *companionCache) SetWithTTL(table string, data interface{}, ttl time.Duration) error {
	setReply := c.runAction(cacheAction{
		action: setAction,
		table:  table,
		data:   data,
		ttl:    ttl,
	})
	return setReply.err
}

// Remove - delete the entry for a table, absent entries are not an error
func (c *companionCache) Remove(table string) error {
	removeReply := c.runAction(cacheAction{
		action: removeAction,
		table:  table,
	})
	return removeReply.err
}

// Invalidate - programmatic cache-busting for a table, e.g. on a schema bump
func (c *companionCache) Invalidate(table string) error {
	return c.Remove(table)
}

// Clear - remove every entry in this cache namespace, used on sign-out
func (c *companionCache) Clear() error {
	clearReply := c.runAction(cacheAction{
		action: clearAction,
	})
	return clearReply.err
}

// HealthStatus - read-only diagnostic snapshot for monitoring
func (c *companionCache) HealthStatus() HealthStatus {
	healthReply := c.runAction(cacheAction{
		action: healthAction,
	})
	return healthReply.health
}
