package api

import (
	"time"

	"github.com/eventpass/companion-sdk/pkg/cache"
	"github.com/eventpass/companion-sdk/pkg/redact"
)

// logical table names served by the proxy
const (
	TableAttendees     = "attendees"
	TableSponsors      = "sponsors"
	TableAgendaItems   = "agenda_items"
	TableMeetList      = "meet_list"
	TableAnnouncements = "announcements"
)

// TagMeetEntry - meet-list entries reference other attendees and carry the
// same confidentiality concerns
const TagMeetEntry = "meet_entry"

// DefaultTables - the standard table set of the companion app with their
// entity tags and refresh windows
var DefaultTables = []cache.TableSpec{
	{Name: TableAttendees, EntityTag: redact.TagAttendee, TTL: 15 * time.Minute},
	{Name: TableSponsors, EntityTag: "sponsor", TTL: time.Hour},
	{Name: TableAgendaItems, EntityTag: "agenda_item", TTL: 5 * time.Minute},
	{Name: TableMeetList, EntityTag: TagMeetEntry, TTL: 5 * time.Minute},
	{Name: TableAnnouncements, EntityTag: "announcement", TTL: time.Minute},
}

func init() {
	// sponsor, agenda and announcement records are public conference content
	redact.Register("sponsor", redact.Policy{Confidential: false})
	redact.Register("agenda_item", redact.Policy{Confidential: false})
	redact.Register("announcement", redact.Policy{Confidential: false})

	redact.Register(TagMeetEntry, redact.Policy{
		Confidential: true,
		Allowed:      []string{"id", "attendee_id", "name", "company", "status", "requested_at"},
		Blocked:      []string{"contact_details", "notes", "mobile_phone", "access_code"},
	})
}

// RegisterDefaultTables - declare the standard table set on a cache
func RegisterDefaultTables(c cache.Cache) {
	for _, spec := range DefaultTables {
		c.RegisterTable(spec)
	}
}
