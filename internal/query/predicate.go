// Package query composes WHERE predicates from optional criteria.
//
// Column expressions passed to the builder must be code constants; caller
// supplied values only ever travel as bound parameters.
package query

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Predicate is one SQL condition with its bound arguments
type Predicate struct {
	SQL  string
	Args []any
}

// IsEmpty reports whether the predicate contributes nothing
func (p Predicate) IsEmpty() bool {
	return strings.TrimSpace(p.SQL) == ""
}

// Builder accumulates predicates that are combined with AND
type Builder struct {
	preds []Predicate
}

// New returns an empty builder
func New() *Builder {
	return &Builder{}
}

// Add appends p unless it is empty
func (b *Builder) Add(p Predicate) *Builder {
	if !p.IsEmpty() {
		b.preds = append(b.preds, p)
	}
	return b
}

// Eq adds "col = ?" when v is not nil
func (b *Builder) Eq(col string, v *uint) *Builder {
	if v == nil {
		return b
	}
	return b.Add(Predicate{SQL: col + " = ?", Args: []any{*v}})
}

// Text adds a case-insensitive substring match of q against any of cols
func (b *Builder) Text(q string, cols ...string) *Builder {
	return b.Add(Text(q, cols...))
}

// Len returns the number of clauses collected so far
func (b *Builder) Len() int {
	return len(b.preds)
}

// Predicates returns the collected clauses
func (b *Builder) Predicates() []Predicate {
	out := make([]Predicate, len(b.preds))
	copy(out, b.preds)
	return out
}

// Build joins every clause into a single conjunctive predicate
func (b *Builder) Build() Predicate {
	if len(b.preds) == 0 {
		return Predicate{}
	}
	parts := make([]string, 0, len(b.preds))
	var args []any
	for _, p := range b.preds {
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

// Apply adds every clause to db as a WHERE condition
func (b *Builder) Apply(db *gorm.DB) *gorm.DB {
	for _, p := range b.preds {
		db = db.Where(p.SQL, p.Args...)
	}
	return db
}

// Text matches q as a case-insensitive substring of any of cols
func Text(q string, cols ...string) Predicate {
	q = strings.TrimSpace(q)
	if q == "" || len(cols) == 0 {
		return Predicate{}
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, "LOWER("+c+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	if len(parts) == 1 {
		return Predicate{SQL: parts[0], Args: args}
	}
	return Predicate{SQL: "(" + strings.Join(parts, " OR ") + ")", Args: args}
}

// In matches col against a set of values
func In[T any](col string, values []T) Predicate {
	if len(values) == 0 {
		return Predicate{}
	}
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return Predicate{SQL: col + " IN (" + strings.Join(marks, ", ") + ")", Args: args}
}

// Range bounds col by whole days. Both ends are inclusive; the upper bound
// is rendered as "< next midnight" so time-of-day values on the last day match.
func Range(col string, from, to *time.Time) Predicate {
	var parts []string
	var args []any
	if from != nil {
		parts = append(parts, col+" >= ?")
		args = append(args, StartOfDay(*from))
	}
	if to != nil {
		parts = append(parts, col+" < ?")
		args = append(args, StartOfDay(*to).AddDate(0, 0, 1))
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}

// StartOfDay truncates t to midnight UTC of its calendar day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
