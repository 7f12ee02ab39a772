// Package access derives the visibility predicate of a caller.
//
// Admins see every row. Agents see the contacts they own, and the calls,
// followups and companies reachable from those contacts. The predicate is
// always added next to caller criteria, never in place of them.
package access

import (
	"fmt"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/query"
)

// Scope is the visibility rule of one caller
type Scope struct {
	caller domain.Identity
}

// For returns the scope of caller. Unknown roles and anonymous callers are
// rejected so a missing identity can never widen visibility.
func For(caller domain.Identity) (Scope, error) {
	if caller.AccountID == 0 || !caller.Role.Valid() {
		return Scope{}, fmt.Errorf("%w: no valid caller identity", domain.ErrUnauthorized)
	}
	return Scope{caller: caller}, nil
}

// Caller returns the identity the scope was built for
func (s Scope) Caller() domain.Identity {
	return s.caller
}

// Unrestricted reports whether the caller sees every row
func (s Scope) Unrestricted() bool {
	return s.caller.Role == domain.RoleAdmin
}

// Contacts restricts rows of the contacts table aliased as alias. Calls and
// followups are scoped through the contact they are joined to.
func (s Scope) Contacts(alias string) query.Predicate {
	if s.Unrestricted() {
		return query.Predicate{}
	}
	return query.Predicate{
		SQL:  alias + ".owner_id = ?",
		Args: []any{s.caller.AccountID},
	}
}

// Companies restricts rows of the companies table aliased as alias to those
// with at least one contact owned by the caller.
func (s Scope) Companies(alias string) query.Predicate {
	if s.Unrestricted() {
		return query.Predicate{}
	}
	return query.Predicate{
		SQL:  "EXISTS (SELECT 1 FROM contacts sc WHERE sc.company_id = " + alias + ".id AND sc.owner_id = ?)",
		Args: []any{s.caller.AccountID},
	}
}

// Owns reports whether a contact with the given owner is inside the scope
func (s Scope) Owns(ownerID *uint) bool {
	if s.Unrestricted() {
		return true
	}
	return ownerID != nil && *ownerID == s.caller.AccountID
}
