package domain

import "time"

// DateRange bounds a date column. Both ends are inclusive whole days and
// either may be nil.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.From == nil && r.To == nil
}

// Page limits a list result. Zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// ContactFilter holds the optional criteria of the contact list
type ContactFilter struct {
	FirstName       string
	LastName        string
	Name            string // full name or company name
	Statuses        []ContactStatus
	Levels          []Level
	Created         DateRange
	OwnerIDs        []uint
	CompanyID       *uint
	HasOpenFollowup *bool
	LastCall        DateRange
	Page
}

// CallFilter holds the optional criteria of the call list
type CallFilter struct {
	Name      string
	Outcomes  []CallOutcome
	Period    DateRange
	ContactID *uint
	OwnerIDs  []uint
	Page
}

// FollowupFilter holds the optional criteria of the followup list
type FollowupFilter struct {
	Name      string
	Statuses  []FollowupStatus
	Due       DateRange
	ContactID *uint
	OwnerIDs  []uint
	Page
}

// CompanyFilter holds the optional criteria of the company list
type CompanyFilter struct {
	Name     string
	Levels   []Level
	Statuses []CompanyStatus
	Page
}
