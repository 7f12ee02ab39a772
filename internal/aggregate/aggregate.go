// Package aggregate computes the per-contact facts shown by every contact
// list: the time of the last call, whether an open followup exists, and the
// due date of the open followups.
//
// The facts are evaluated per query as correlated sub-selects so they always
// reflect the calls and followups present when the query runs.
package aggregate

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/query"
)

// Column aliases produced by Columns
const (
	LastCallAtColumn          = "last_call_at"
	HasOpenFollowupColumn     = "has_open_followup"
	NextOpenFollowupDueColumn = "next_open_followup_due"
)

// LastCallExpr is MAX(call_at) over the calls of the contact aliased as contact
func LastCallExpr(contact string) string {
	return "(SELECT MAX(cl.call_at) FROM calls cl WHERE cl.contact_id = " + contact + ".id)"
}

func openFollowupExistsExpr(contact string) string {
	return "EXISTS (SELECT 1 FROM followups f WHERE f.contact_id = " + contact + ".id AND f.status = ?)"
}

// nextDueExpr takes the latest due date among open followups. This mirrors the
// behaviour users already rely on even though "soonest" reads more naturally.
func nextDueExpr(contact string) string {
	return "(SELECT MAX(f.due_date) FROM followups f WHERE f.contact_id = " + contact + ".id AND f.status = ?)"
}

// Columns returns the select list fragment computing every aggregate for the
// contact aliased as contact.
func Columns(contact string) query.Predicate {
	sqlText := strings.Join([]string{
		LastCallExpr(contact) + " AS " + LastCallAtColumn,
		"CASE WHEN " + openFollowupExistsExpr(contact) + " THEN 1 ELSE 0 END AS " + HasOpenFollowupColumn,
		nextDueExpr(contact) + " AS " + NextOpenFollowupDueColumn,
	}, ", ")
	return query.Predicate{
		SQL:  sqlText,
		Args: []any{string(domain.FollowupOpen), string(domain.FollowupOpen)},
	}
}

// HasOpenFollowup filters contacts on the presence of an open followup
func HasOpenFollowup(contact string, want *bool) query.Predicate {
	if want == nil {
		return query.Predicate{}
	}
	expr := openFollowupExistsExpr(contact)
	if !*want {
		expr = "NOT " + expr
	}
	return query.Predicate{SQL: expr, Args: []any{string(domain.FollowupOpen)}}
}

// LastCallBetween filters contacts whose last call falls inside r. Contacts
// without any call never match a bounded range.
func LastCallBetween(contact string, r domain.DateRange) query.Predicate {
	return query.Range(LastCallExpr(contact), r.From, r.To)
}

// Raw holds the undecoded aggregate columns as returned by the driver.
// SQLite yields text for computed timestamps; other drivers yield native
// timestamps which database/sql renders as RFC 3339 strings.
type Raw struct {
	LastCallAt          sql.NullString `gorm:"column:last_call_at"`
	HasOpenFollowup     int64          `gorm:"column:has_open_followup"`
	NextOpenFollowupDue sql.NullString `gorm:"column:next_open_followup_due"`
}

// Decode converts raw columns into domain aggregates
func (r Raw) Decode() (domain.ContactAggregates, error) {
	var out domain.ContactAggregates
	out.HasOpenFollowup = r.HasOpenFollowup != 0

	if r.LastCallAt.Valid {
		t, err := ParseTimestamp(r.LastCallAt.String)
		if err != nil {
			return out, fmt.Errorf("decode last call: %w", err)
		}
		out.LastCallAt = &t
	}
	if r.NextOpenFollowupDue.Valid {
		t, err := ParseTimestamp(r.NextOpenFollowupDue.String)
		if err != nil {
			return out, fmt.Errorf("decode next due: %w", err)
		}
		out.NextOpenFollowupDue = &t
	}
	return out, nil
}

// timestampLayouts covers the text encodings written by the SQLite driver
// and RFC 3339 as produced by database/sql for native time values.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a stored timestamp in any known encoding, in UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FromHistory computes the aggregates of one contact from its loaded calls
// and followups. It must agree with the SQL expressions of Columns.
func FromHistory(calls []domain.Call, followups []domain.Followup) domain.ContactAggregates {
	var out domain.ContactAggregates
	for i := range calls {
		at := calls[i].CallAt
		if out.LastCallAt == nil || at.After(*out.LastCallAt) {
			out.LastCallAt = &at
		}
	}
	for i := range followups {
		if followups[i].Status != domain.FollowupOpen {
			continue
		}
		out.HasOpenFollowup = true
		due := followups[i].DueDate
		if out.NextOpenFollowupDue == nil || due.After(*out.NextOpenFollowupDue) {
			out.NextOpenFollowupDue = &due
		}
	}
	return out
}
