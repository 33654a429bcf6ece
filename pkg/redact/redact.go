// Package redact strips confidential fields from records before they are
// allowed to reach persistent storage. Filtering dispatches on an entity tag
// declared at registration time, never on the runtime shape of the record.
package redact

import (
	"sync"
)

// Policy - the filtering rules for one entity tag
type Policy struct {
	// Confidential marks the entity as carrying fields that must never be
	// persisted. Non-confidential entities pass through the filter unchanged.
	Confidential bool
	// Allowed is the complete set of fields that may be persisted for a
	// confidential entity. Everything else is removed.
	Allowed []string
	// Blocked is the documented block list used by Audit to detect leaks.
	Blocked []string
}

// AuditResult - the outcome of scanning a filtered record for leaks
type AuditResult struct {
	Clean        bool
	LeakedFields []string
}

// TagAttendee - the confidential-bearing entity shipped with the SDK
const TagAttendee = "attendee"

var (
	policiesMutex sync.RWMutex
	policies      map[string]Policy
)

func init() {
	policies = make(map[string]Policy)

	// attendee records carry contact, travel and personal details that must
	// never land in the local cache
	Register(TagAttendee, Policy{
		Confidential: true,
		Allowed: []string{
			"id", "name", "title", "company", "bio", "photo_url", "public_email",
		},
		Blocked: []string{
			"mobile_phone", "phone", "hotel_name", "room_number",
			"dietary_requirements", "spouse_details", "home_address",
			"internal_id", "access_code", "emergency_contact",
		},
	})
}

// Register - declare the filtering policy for an entity tag
func Register(tag string, policy Policy) {
	policiesMutex.Lock()
	defer policiesMutex.Unlock()
	policies[tag] = policy
}

// Lookup - returns the policy for a tag and whether the tag is registered
func Lookup(tag string) (Policy, bool) {
	policiesMutex.RLock()
	defer policiesMutex.RUnlock()
	policy, ok := policies[tag]
	return policy, ok
}

// IsConfidential - true when records tagged with tag must be filtered before
// persistence. Unregistered tags are treated as confidential; an unknown
// entity is never cached verbatim.
func IsConfidential(tag string) bool {
	policy, ok := Lookup(tag)
	if !ok {
		return true
	}
	return policy.Confidential
}

// Filter - returns a copy of record containing only the fields allowed for
// tag. Non-confidential tags return the record unchanged. A confidential
// record whose shape is not recognized is reduced to an empty safe shape
// rather than cached as-is. The input is never mutated and the call never
// panics on malformed input.
func Filter(tag string, record interface{}) interface{} {
	policy, ok := Lookup(tag)
	if ok && !policy.Confidential {
		return record
	}

	fields, isMap := record.(map[string]interface{})
	if !isMap {
		// drop rather than leak
		return map[string]interface{}{}
	}

	safe := make(map[string]interface{})
	for _, field := range policy.Allowed {
		if value, present := fields[field]; present {
			safe[field] = value
		}
	}
	return safe
}

// FilterSlice - maps Filter over records, preserving order and length
func FilterSlice(tag string, records []interface{}) []interface{} {
	if records == nil {
		return nil
	}
	safe := make([]interface{}, len(records))
	for i, record := range records {
		safe[i] = Filter(tag, record)
	}
	return safe
}

// Audit - rescans a filtered record against the block list for tag and
// reports any field that should never appear. Intended for tests and
// monitoring of the should-never-happen leak class.
func Audit(tag string, record interface{}) AuditResult {
	res := AuditResult{Clean: true, LeakedFields: []string{}}

	policy, ok := Lookup(tag)
	if !ok || !policy.Confidential {
		return res
	}

	fields, isMap := record.(map[string]interface{})
	if !isMap {
		return res
	}

	for _, blocked := range policy.Blocked {
		if _, present := fields[blocked]; present {
			res.Clean = false
			res.LeakedFields = append(res.LeakedFields, blocked)
		}
	}
	return res
}
