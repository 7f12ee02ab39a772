package domain

import (
	"strings"
	"time"
)

// Role is the access role of a login account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleAgent Role = "agent"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent
}

// CallOutcome is the result of a logged phone call
type CallOutcome string

const (
	CallFailed      CallOutcome = "failed"
	CallSuccessful  CallOutcome = "successful"
	CallSwitchedOff CallOutcome = "switched_off"
	CallRejected    CallOutcome = "rejected"
)

// CallOutcomes lists every accepted call outcome
var CallOutcomes = []CallOutcome{CallFailed, CallSuccessful, CallSwitchedOff, CallRejected}

// Valid reports whether o is a known outcome
func (o CallOutcome) Valid() bool {
	for _, v := range CallOutcomes {
		if o == v {
			return true
		}
	}
	return false
}

// FollowupStatus is the state of a follow-up task
type FollowupStatus string

const (
	FollowupOpen FollowupStatus = "open"
	FollowupDone FollowupStatus = "done"
)

// Valid reports whether s is a known followup status
func (s FollowupStatus) Valid() bool {
	return s == FollowupOpen || s == FollowupDone
}

// CanTransitionTo reports whether a followup may move from s to next.
// The only real transition is open -> done; staying in place is allowed.
func (s FollowupStatus) CanTransitionTo(next FollowupStatus) bool {
	if s == next {
		return true
	}
	return s == FollowupOpen && next == FollowupDone
}

// ContactStatus tracks where a contact is in the sales pipeline
type ContactStatus string

const (
	ContactNoStatus    ContactStatus = "no_status"
	ContactFollowingUp ContactStatus = "following_up"
	ContactProforma    ContactStatus = "proforma"
	ContactCustomer    ContactStatus = "customer"
)

// ContactStatuses lists every accepted contact status
var ContactStatuses = []ContactStatus{ContactNoStatus, ContactFollowingUp, ContactProforma, ContactCustomer}

// Valid reports whether s is a known contact status
func (s ContactStatus) Valid() bool {
	for _, v := range ContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CompanyStatus is the lifecycle state of a company
type CompanyStatus string

const (
	CompanyNoStatus CompanyStatus = "none"
	CompanyActive   CompanyStatus = "active"
	CompanyInactive CompanyStatus = "inactive"
)

// Valid reports whether s is a known company status
func (s CompanyStatus) Valid() bool {
	return s == CompanyNoStatus || s == CompanyActive || s == CompanyInactive
}

// Level is the tier of a company or contact
type Level string

const (
	LevelNone   Level = "none"
	LevelGold   Level = "gold"
	LevelSilver Level = "silver"
	LevelBronze Level = "bronze"
)

// Levels lists every accepted tier
var Levels = []Level{LevelNone, LevelGold, LevelSilver, LevelBronze}

// Valid reports whether l is a known tier
func (l Level) Valid() bool {
	for _, v := range Levels {
		if l == v {
			return true
		}
	}
	return false
}

// Identity is the caller established by a valid session
type Identity struct {
	AccountID uint
	Role      Role
}

// IsAdmin reports whether the caller has the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Company represents an organization
type Company struct {
	ID        uint
	Name      string
	Phone     string
	Address   string
	Note      string
	Level     Level
	Status    CompanyStatus
	CreatedAt time.Time
	CreatedBy *uint
}

// Contact represents a person, optionally attached to a company
type Contact struct {
	ID        uint
	FirstName string
	LastName  string
	FullName  string
	Phone     string
	Role      string
	CompanyID *uint
	Note      string
	Status    ContactStatus
	Domain    string
	Province  string
	Level     Level
	OwnerID   *uint
	CreatedAt time.Time
	CreatedBy *uint

	// NewCompany names the company to look up or create on insert when
	// CompanyID is nil.
	NewCompany string
}

// FullNameOf derives the display name of a contact
func FullNameOf(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// ContactPatch carries the fields of a partial contact update.
// A nil field is left untouched. ClearCompany and ClearOwner null the
// corresponding reference and win over CompanyID/OwnerID.
type ContactPatch struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Role         *string
	CompanyID    *uint
	ClearCompany bool
	Note         *string
	Status       *ContactStatus
	Domain       *string
	Province     *string
	Level        *Level
	OwnerID      *uint
	ClearOwner   bool
}

// IsEmpty reports whether the patch changes nothing
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Role == nil &&
		p.CompanyID == nil && !p.ClearCompany && p.Note == nil && p.Status == nil &&
		p.Domain == nil && p.Province == nil && p.Level == nil && p.OwnerID == nil && !p.ClearOwner
}

// Call is a logged phone contact with a Contact. Calls are immutable.
type Call struct {
	ID          uint
	ContactID   uint
	CallAt      time.Time
	Outcome     CallOutcome
	Description string
	CreatedAt   time.Time
	CreatedBy   *uint
}

// Followup is a scheduled action tied to a Contact
type Followup struct {
	ID        uint
	ContactID uint
	Title     string
	Details   string
	DueDate   time.Time
	Status    FollowupStatus
	CreatedAt time.Time
	CreatedBy *uint
}

// Account represents a login identity
type Account struct {
	ID              uint
	Username        string
	PasswordHash    string
	Role            Role
	LinkedContactID *uint
	CreatedAt       time.Time
}

// Identity returns the caller identity of the account
func (a *Account) Identity() Identity {
	return Identity{AccountID: a.ID, Role: a.Role}
}

// Session represents a successful login
type Session struct {
	Token     string
	AccountID uint
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginResult is returned by a successful login
type LoginResult struct {
	AccountID uint
	Username  string
	Role      Role
	Token     string
	ExpiresAt time.Time
}

// ContactAggregates are facts derived from a contact's calls and followups
type ContactAggregates struct {
	LastCallAt          *time.Time
	HasOpenFollowup     bool
	NextOpenFollowupDue *time.Time
}

// ContactSummary is one row of the contact list view
type ContactSummary struct {
	Contact
	CompanyName   string
	OwnerUsername string
	ContactAggregates
}

// CallRow is one row of the call list view
type CallRow struct {
	Call
	ContactName string
	CompanyName string
}

// FollowupRow is one row of the followup list view
type FollowupRow struct {
	Followup
	ContactName string
	CompanyName string
}

// ContactRef is a lightweight contact reference for pickers
type ContactRef struct {
	ID        uint
	FullName  string
	CompanyID *uint
}

// Coworker is another contact of the same company
type Coworker struct {
	ID        uint
	FirstName string
	LastName  string
	Phone     string
	Role      string
}

// ContactProfile is the detail view of a single contact
type ContactProfile struct {
	Summary   ContactSummary
	Calls     []Call
	Followups []Followup
	Coworkers []Coworker
}

// DashboardStats are the headline counters shown after login
type DashboardStats struct {
	CallsToday           int64
	SuccessfulCallsToday int64
	CallsLast7Days       int64
	OverdueFollowups     int64
	Companies            int64
	Contacts             int64
}
