package services

import (
	"errors"
	"testing"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/mocks"
)

var errSaveFailed = errors.New("save failed")

// createPolicyServiceForTest creates a PolicyService with mock Casbin enforcer
func createPolicyServiceForTest(t *testing.T) (domain.PolicyService, *mocks.MockCasbinEnforcer) {
	t.Helper()

	enforcer := mocks.NewMockCasbinEnforcer()
	return NewPolicyServiceWithEnforcer(enforcer), enforcer
}

func TestPolicyServiceImpl_AddPolicy(t *testing.T) {
	tests := []struct {
		name               string
		role               string
		resource           string
		action             string
		setupMock          func(*mocks.MockCasbinEnforcer)
		expectedError      error
		expectedAddCalled  bool
		expectedSaveCalled bool
	}{
		{
			name:               "successful policy addition",
			role:               "agent",
			resource:           "calls",
			action:             "read",
			expectedAddCalled:  true,
			expectedSaveCalled: true,
		},
		{
			name:     "policy already exists",
			role:     "admin",
			resource: "*",
			action:   "*",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.AddPolicyFunc = func(...interface{}) (bool, error) { return false, nil }
			},
			expectedAddCalled:  true,
			expectedSaveCalled: true,
		},
		{
			name:          "unknown role is rejected",
			role:          "guest",
			resource:      "contacts",
			action:        "read",
			expectedError: domain.ErrInvalidEnum,
		},
		{
			name:     "add policy fails",
			role:     "agent",
			resource: "contacts",
			action:   "delete",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.AddPolicyFunc = func(...interface{}) (bool, error) { return false, domain.ErrStoreBusy }
			},
			expectedError:     domain.ErrStoreBusy,
			expectedAddCalled: true,
		},
		{
			name:     "save policy fails",
			role:     "agent",
			resource: "contacts",
			action:   "delete",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.SavePolicyFunc = func() error { return errSaveFailed }
			},
			expectedError:      errSaveFailed,
			expectedAddCalled:  true,
			expectedSaveCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyService, mockEnforcer := createPolicyServiceForTest(t)
			if tt.setupMock != nil {
				tt.setupMock(mockEnforcer)
			}

			addPolicyCalled := false
			savePolicyCalled := false

			originalAddPolicy := mockEnforcer.AddPolicyFunc
			mockEnforcer.AddPolicyFunc = func(params ...interface{}) (bool, error) {
				addPolicyCalled = true
				if originalAddPolicy != nil {
					return originalAddPolicy(params...)
				}
				return true, nil
			}
			originalSavePolicy := mockEnforcer.SavePolicyFunc
			mockEnforcer.SavePolicyFunc = func() error {
				savePolicyCalled = true
				if originalSavePolicy != nil {
					return originalSavePolicy()
				}
				return nil
			}

			err := policyService.AddPolicy(tt.role, tt.resource, tt.action)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected error %v, got %v", tt.expectedError, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if addPolicyCalled != tt.expectedAddCalled {
				t.Errorf("expected AddPolicy called=%v, got %v", tt.expectedAddCalled, addPolicyCalled)
			}
			if savePolicyCalled != tt.expectedSaveCalled {
				t.Errorf("expected SavePolicy called=%v, got %v", tt.expectedSaveCalled, savePolicyCalled)
			}
		})
	}
}

func TestPolicyServiceImpl_RemovePolicy(t *testing.T) {
	tests := []struct {
		name               string
		setupMock          func(*mocks.MockCasbinEnforcer)
		expectedError      error
		expectedSaveCalled bool
	}{
		{
			name:               "successful policy removal",
			expectedSaveCalled: true,
		},
		{
			name: "remove policy fails",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.RemovePolicyFunc = func(...interface{}) (bool, error) { return false, domain.ErrStoreBusy }
			},
			expectedError: domain.ErrStoreBusy,
		},
		{
			name: "save policy fails after removal",
			setupMock: func(e *mocks.MockCasbinEnforcer) {
				e.SavePolicyFunc = func() error { return errSaveFailed }
			},
			expectedError:      errSaveFailed,
			expectedSaveCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyService, mockEnforcer := createPolicyServiceForTest(t)
			if tt.setupMock != nil {
				tt.setupMock(mockEnforcer)
			}

			savePolicyCalled := false
			originalSavePolicy := mockEnforcer.SavePolicyFunc
			mockEnforcer.SavePolicyFunc = func() error {
				savePolicyCalled = true
				if originalSavePolicy != nil {
					return originalSavePolicy()
				}
				return nil
			}

			err := policyService.RemovePolicy("agent", "contacts", "write")

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected error %v, got %v", tt.expectedError, err)
				}
			} else if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if savePolicyCalled != tt.expectedSaveCalled {
				t.Errorf("expected SavePolicy called=%v, got %v", tt.expectedSaveCalled, savePolicyCalled)
			}
			if tt.expectedError == nil {
				if ok, _ := policyService.CheckPermission("agent", "contacts", "write"); ok {
					t.Error("removed policy must no longer grant access")
				}
			}
		})
	}
}

func TestPolicyServiceImpl_CheckPermission(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		expected bool
	}{
		{name: "admin wildcard", role: "admin", resource: "accounts", action: "write", expected: true},
		{name: "agent reads contacts", role: "agent", resource: "contacts", action: "read", expected: true},
		{name: "agent cannot reassign", role: "agent", resource: "contacts", action: "reassign", expected: false},
		{name: "agent cannot manage accounts", role: "agent", resource: "accounts", action: "read", expected: false},
		{name: "unknown role", role: "guest", resource: "contacts", action: "read", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyService, _ := createPolicyServiceForTest(t)
			allowed, err := policyService.CheckPermission(tt.role, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if allowed != tt.expected {
				t.Errorf("expected permission %v, got %v", tt.expected, allowed)
			}
		})
	}
}

func TestPolicyServiceImpl_Authorize(t *testing.T) {
	tests := []struct {
		name          string
		caller        domain.Identity
		resource      string
		action        string
		enforceErr    error
		expectedError error
	}{
		{name: "admin allowed", caller: domain.Identity{AccountID: 1, Role: domain.RoleAdmin}, resource: "contacts", action: "reassign"},
		{name: "agent allowed", caller: domain.Identity{AccountID: 2, Role: domain.RoleAgent}, resource: "contacts", action: "write"},
		{name: "agent forbidden", caller: domain.Identity{AccountID: 2, Role: domain.RoleAgent}, resource: "contacts", action: "reassign", expectedError: domain.ErrForbidden},
		{name: "anonymous caller", caller: domain.Identity{}, resource: "contacts", action: "read", expectedError: domain.ErrUnauthorized},
		{name: "unknown role", caller: domain.Identity{AccountID: 3, Role: "guest"}, resource: "contacts", action: "read", expectedError: domain.ErrUnauthorized},
		{name: "enforcer failure", caller: domain.Identity{AccountID: 2, Role: domain.RoleAgent}, resource: "contacts", action: "read", enforceErr: errSaveFailed, expectedError: errSaveFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policyService, mockEnforcer := createPolicyServiceForTest(t)
			if tt.enforceErr != nil {
				mockEnforcer.EnforceFunc = func(...interface{}) (bool, error) { return false, tt.enforceErr }
			}

			err := policyService.Authorize(tt.caller, tt.resource, tt.action)
			if tt.expectedError == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expectedError) {
				t.Errorf("expected error %v, got %v", tt.expectedError, err)
			}
		})
	}
}

func TestPolicyServiceImpl_GetPolicies(t *testing.T) {
	policyService, mockEnforcer := createPolicyServiceForTest(t)
	mockEnforcer.SetPolicies([][]string{{"admin", "*", "*"}})

	if err := policyService.AddPolicy("agent", "dashboard", "read"); err != nil {
		t.Fatalf("add policy: %v", err)
	}

	policies := policyService.GetPolicies()
	if len(policies) != 2 {
		t.Fatalf("expected 2 policies, got %d", len(policies))
	}
	if policies[1][0] != "agent" || policies[1][1] != "dashboard" {
		t.Errorf("unexpected policy %v", policies[1])
	}
}
