package almoner

import (
	"slices"
	"strings"
	"time"
)

type ActorType string

const (
	ActorTypeSystem ActorType = "system"
	ActorTypeUser   ActorType = "user"
)

// Capability scopes supplied by the external identity system.
const (
	CapNotificationsSend = "notifications:send"
	CapDonorsManage      = "donors:manage"
	CapDonationsRead     = "donations:read"
	CapAuditRead         = "audit:read"
)

// Actor is the authenticated principal attributed to an action. The identity
// system terminates authentication; this core only consumes the result.
type Actor struct {
	ID    string    `json:"id"`
	Type  ActorType `json:"type"`
	Email string    `json:"email,omitempty"`

	Capabilities []string `json:"-"`
}

func (a *Actor) HasCapability(cap string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Capabilities, cap)
}

var SystemActor = Actor{ID: "system", Type: ActorTypeSystem}

type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// AuditEntry is one immutable row in the organization-scoped audit log.
// Before and After are redacted with RedactMap prior to persistence, never
// after.
type AuditEntry struct {
	ID        int       `json:"id"`
	OrgID     int       `json:"org_id"`
	Action    string    `json:"action"`
	Actor     Actor     `json:"actor"`
	Entity    EntityRef `json:"entity"`
	Timestamp time.Time `json:"timestamp"`

	Before   map[string]any `json:"before,omitempty"`
	After    map[string]any `json:"after,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

const RedactedValue = "[REDACTED]"

// redactedFields is the deny-list of sensitive field names scrubbed from
// audit snapshots: credentials, tax identifiers and payment instrument
// numbers. Matching is case-insensitive on the exact key name.
var redactedFields = map[string]struct{}{
	"password":       {},
	"secret":         {},
	"token":          {},
	"api_key":        {},
	"authorization":  {},
	"ssn":            {},
	"ein":            {},
	"tax_id":         {},
	"account_number": {},
	"routing_number": {},
	"card_number":    {},
	"cvv":            {},
}

// RedactMap returns a deep copy of m with every deny-listed field replaced
// by RedactedValue, recursing through nested maps and slices. The input map
// is not modified.
func RedactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := redactedFields[strings.ToLower(k)]; ok {
			out[k] = RedactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return RedactMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item)
		}
		return out
	default:
		return v
	}
}
