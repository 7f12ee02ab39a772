package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

// Resources and actions guarded by the role policy
const (
	ResourceCompanies = "companies"
	ResourceContacts  = "contacts"
	ResourceCalls     = "calls"
	ResourceFollowups = "followups"
	ResourceDashboard = "dashboard"
	ResourceAccounts  = "accounts"
	ResourcePolicies  = "policies"

	ActionRead     = "read"
	ActionWrite    = "write"
	ActionDelete   = "delete"
	ActionReassign = "reassign"
)

// Model is the role to action model. A "*" object or action in a policy
// matches anything.
const Model = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// DefaultPolicies is seeded into an empty policy table
var DefaultPolicies = [][]string{
	{"admin", "*", "*"},
	{"agent", ResourceCompanies, ActionRead},
	{"agent", ResourceCompanies, ActionWrite},
	{"agent", ResourceContacts, ActionRead},
	{"agent", ResourceContacts, ActionWrite},
	{"agent", ResourceCalls, ActionRead},
	{"agent", ResourceCalls, ActionWrite},
	{"agent", ResourceFollowups, ActionRead},
	{"agent", ResourceFollowups, ActionWrite},
	{"agent", ResourceDashboard, ActionRead},
}

// NewEnforcer builds an enforcer whose policies live in the casbin_rule
// table of db. The defaults are written on first start.
func NewEnforcer(db *gorm.DB) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(Model)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy model: %w", err)
	}
	adp, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy adapter: %w", err)
	}
	e, err := casbin.NewEnforcer(m, adp)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}
	if err := e.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}

	existing, err := e.GetPolicy()
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		if _, err := e.AddPolicies(DefaultPolicies); err != nil {
			return nil, fmt.Errorf("failed to seed policies: %w", err)
		}
	}
	return e, nil
}
