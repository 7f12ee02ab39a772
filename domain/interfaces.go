package domain

import (
	"context"
	"time"
)

// CompanyRepository defines company data access operations
type CompanyRepository interface {
	Create(ctx context.Context, company *Company) error
	GetOrCreate(ctx context.Context, name string, createdBy *uint) (uint, error)
	FindByID(ctx context.Context, id uint) (*Company, error)
	List(ctx context.Context, caller Identity, filter CompanyFilter) ([]Company, error)
	Delete(ctx context.Context, id uint) error
}

// ContactRepository defines contact data access operations
type ContactRepository interface {
	Create(ctx context.Context, contact *Contact) error
	Update(ctx context.Context, id uint, patch ContactPatch) error
	FindByID(ctx context.Context, id uint) (*Contact, error)
	PhoneExists(ctx context.Context, phone string, ignoreID uint) (bool, error)
	Summary(ctx context.Context, caller Identity, id uint) (*ContactSummary, error)
	List(ctx context.Context, caller Identity, filter ContactFilter) ([]ContactSummary, error)
	ListRefs(ctx context.Context, caller Identity) ([]ContactRef, error)
	Coworkers(ctx context.Context, caller Identity, companyID, excludeID uint) ([]Coworker, error)
	ScopedIDs(ctx context.Context, caller Identity, ids []uint) ([]uint, error)
	ReassignOwner(ctx context.Context, ids []uint, newOwnerID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

// CallRepository defines call data access operations
type CallRepository interface {
	Create(ctx context.Context, call *Call) error
	List(ctx context.Context, caller Identity, filter CallFilter) ([]CallRow, error)
	ForContact(ctx context.Context, contactID uint) ([]Call, error)
}

// FollowupRepository defines followup data access operations
type FollowupRepository interface {
	Create(ctx context.Context, followup *Followup) error
	FindByID(ctx context.Context, id uint) (*Followup, error)
	UpdateStatus(ctx context.Context, id uint, status FollowupStatus) error
	List(ctx context.Context, caller Identity, filter FollowupFilter) ([]FollowupRow, error)
	ForContact(ctx context.Context, contactID uint) ([]Followup, error)
}

// AccountRepository defines account data access operations
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	Count(ctx context.Context) (int64, error)
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StatsRepository computes dashboard counters
type StatsRepository interface {
	CountCalls(ctx context.Context, caller Identity, period DateRange, outcome *CallOutcome) (int64, error)
	CountOverdueFollowups(ctx context.Context, caller Identity, today time.Time) (int64, error)
	CountCompanies(ctx context.Context, caller Identity) (int64, error)
	CountContacts(ctx context.Context, caller Identity) (int64, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// TokenGenerator issues opaque session tokens
type TokenGenerator interface {
	Generate() (string, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	Authorize(caller Identity, resource, action string) error
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}

// AuthService defines authentication business logic
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ValidateSession(ctx context.Context, token string) (Identity, bool, error)
	Logout(ctx context.Context, token string) error
	CreateAccount(ctx context.Context, caller Identity, input NewAccount) (*Account, error)
	ListAccounts(ctx context.Context, caller Identity) ([]Account, error)
	GetAccount(ctx context.Context, id uint) (*Account, error)
	EnsureBootstrapAdmin(ctx context.Context, password string) (bool, error)
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// NewAccount carries the input of account creation
type NewAccount struct {
	Username        string
	Password        string
	Role            Role
	LinkedContactID *uint
}

// CRMService defines the scoped CRM operations. The caller identity is
// always the first argument after the context.
type CRMService interface {
	CreateCompany(ctx context.Context, caller Identity, company *Company) (uint, error)
	GetOrCreateCompany(ctx context.Context, caller Identity, name string) (uint, error)
	ListCompanies(ctx context.Context, caller Identity, filter CompanyFilter) ([]Company, error)
	DeleteCompany(ctx context.Context, caller Identity, id uint) error

	CreateContact(ctx context.Context, caller Identity, contact *Contact) (uint, error)
	UpdateContact(ctx context.Context, caller Identity, id uint, patch ContactPatch) error
	GetContactProfile(ctx context.Context, caller Identity, id uint) (*ContactProfile, error)
	ListContacts(ctx context.Context, caller Identity, filter ContactFilter) ([]ContactSummary, error)
	ListContactRefs(ctx context.Context, caller Identity) ([]ContactRef, error)
	DeleteContact(ctx context.Context, caller Identity, id uint) error
	ReassignOwner(ctx context.Context, caller Identity, contactIDs []uint, newOwnerID uint) (int64, error)

	CreateCall(ctx context.Context, caller Identity, call *Call) (uint, error)
	ListCalls(ctx context.Context, caller Identity, filter CallFilter) ([]CallRow, error)

	CreateFollowup(ctx context.Context, caller Identity, followup *Followup) (uint, error)
	UpdateFollowupStatus(ctx context.Context, caller Identity, id uint, status FollowupStatus) error
	ListFollowups(ctx context.Context, caller Identity, filter FollowupFilter) ([]FollowupRow, error)

	Dashboard(ctx context.Context, caller Identity) (*DashboardStats, error)
}
