// Package envelope defines the versioned, checksummed wrapper persisted around
// every cached payload, and the validation applied when an entry is read back.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eventpass/companion-sdk/pkg/util"
)

// Entry - the persisted envelope for one cached table
type Entry struct {
	Data      interface{} `json:"data"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	TTL       int64       `json:"ttl"` // milliseconds
	Checksum  string      `json:"checksum"`
}

// Result - the outcome of validating an entry
type Result struct {
	Valid   bool
	Stale   bool
	Reasons []string
}

// ComputeChecksum - deterministic hash of the canonical JSON serialization of data.
// The payload is round-tripped through encoding/json first so that structs and
// maps with identical content always hash the same regardless of field order.
func ComputeChecksum(data interface{}) (string, error) {
	canonical, err := canonicalize(data)
	if err != nil {
		return "", err
	}
	return util.ComputeHashString(canonical)
}

// Wrap - produces an envelope for data stamped with the writer's schema version,
// the creation time and the checksum of the payload
func Wrap(data interface{}, version string, ttl time.Duration) (*Entry, error) {
	checksum, err := ComputeChecksum(data)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Data:      data,
		Version:   version,
		Timestamp: time.Now(),
		TTL:       ttl.Milliseconds(),
		Checksum:  checksum,
	}, nil
}

// Validate - checks an entry against the reader's expected schema version. The
// checks run in order: structure, version, checksum, staleness. Staleness is
// reported but does not make the entry invalid; a stale entry may still be
// served while a background refresh runs.
func Validate(entry *Entry, expectedVersion string) Result {
	res := Result{Valid: true, Reasons: []string{}}

	if entry == nil {
		res.Valid = false
		res.Reasons = append(res.Reasons, "entry is missing")
		return res
	}
	if entry.Version == "" || entry.Checksum == "" || entry.Timestamp.IsZero() || entry.TTL <= 0 {
		res.Valid = false
		res.Reasons = append(res.Reasons, "entry envelope is malformed")
		return res
	}

	if entry.Version != expectedVersion {
		res.Valid = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("schema version mismatch, entry has %s, expected %s", entry.Version, expectedVersion))
	}

	checksum, err := ComputeChecksum(entry.Data)
	if err != nil {
		res.Valid = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("could not recompute checksum: %s", err.Error()))
	} else if checksum != entry.Checksum {
		res.Valid = false
		res.Reasons = append(res.Reasons, fmt.Sprintf("checksum mismatch, entry has %s, computed %s", entry.Checksum, checksum))
	}

	if entry.IsStale(time.Now()) {
		res.Stale = true
		res.Reasons = append(res.Reasons, "entry is past its ttl")
	}

	return res
}

// ExpiresAt - the moment this entry becomes stale
func (e *Entry) ExpiresAt() time.Time {
	return e.Timestamp.Add(time.Duration(e.TTL) * time.Millisecond)
}

// IsStale - true once the entry is past its ttl
func (e *Entry) IsStale(now time.Time) bool {
	return now.After(e.ExpiresAt())
}

// Age - how long ago the entry was written
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// canonicalize - normalize a payload to the generic JSON representation, maps
// with sorted keys, so the checksum does not depend on the caller's types
func canonicalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("could not marshal payload for checksum")
	}
	var canonical interface{}
	if err := json.Unmarshal(raw, &canonical); err != nil {
		return nil, fmt.Errorf("could not canonicalize payload for checksum")
	}
	return canonical, nil
}
