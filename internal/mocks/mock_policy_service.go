package mocks

import (
	"fmt"

	"github.com/fardapack/fardapack-crm/domain"
)

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	AddPolicyFunc       func(role, resource, action string) error
	RemovePolicyFunc    func(role, resource, action string) error
	CheckPermissionFunc func(role, resource, action string) (bool, error)
	AuthorizeFunc       func(caller domain.Identity, resource, action string) error
	GetPoliciesFunc     func() [][]string
}

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// AddPolicy adds a new authorization policy
func (m *MockPolicyService) AddPolicy(role, resource, action string) error {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(role, resource, action)
	}
	return nil
}

// RemovePolicy removes an authorization policy
func (m *MockPolicyService) RemovePolicy(role, resource, action string) error {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(role, resource, action)
	}
	return nil
}

// CheckPermission checks if a role has permission for a resource and action
func (m *MockPolicyService) CheckPermission(role, resource, action string) (bool, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(role, resource, action)
	}
	// Default behavior: admin may do anything, agents may read and write
	switch role {
	case string(domain.RoleAdmin):
		return true, nil
	case string(domain.RoleAgent):
		return (action == "read" || action == "write") && resource != "accounts" && resource != "policies", nil
	}
	return false, nil
}

// Authorize checks the caller's role against the policy
func (m *MockPolicyService) Authorize(caller domain.Identity, resource, action string) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(caller, resource, action)
	}
	if caller.AccountID == 0 || !caller.Role.Valid() {
		return domain.ErrUnauthorized
	}
	ok, err := m.CheckPermission(string(caller.Role), resource, action)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", domain.ErrForbidden, action, resource)
	}
	return nil
}

// GetPolicies returns all current policies
func (m *MockPolicyService) GetPolicies() [][]string {
	if m.GetPoliciesFunc != nil {
		return m.GetPoliciesFunc()
	}
	return [][]string{
		{"admin", "*", "*"},
		{"agent", "contacts", "read"},
		{"agent", "contacts", "write"},
	}
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)
