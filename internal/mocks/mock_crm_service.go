package mocks

import (
	"context"

	"github.com/fardapack/fardapack-crm/domain"
)

// MockCRMService implements domain.CRMService interface for testing.
// Unset functions succeed with zero values.
type MockCRMService struct {
	CreateCompanyFunc        func(ctx context.Context, caller domain.Identity, company *domain.Company) (uint, error)
	GetOrCreateCompanyFunc   func(ctx context.Context, caller domain.Identity, name string) (uint, error)
	ListCompaniesFunc        func(ctx context.Context, caller domain.Identity, filter domain.CompanyFilter) ([]domain.Company, error)
	DeleteCompanyFunc        func(ctx context.Context, caller domain.Identity, id uint) error
	CreateContactFunc        func(ctx context.Context, caller domain.Identity, contact *domain.Contact) (uint, error)
	UpdateContactFunc        func(ctx context.Context, caller domain.Identity, id uint, patch domain.ContactPatch) error
	GetContactProfileFunc    func(ctx context.Context, caller domain.Identity, id uint) (*domain.ContactProfile, error)
	ListContactsFunc         func(ctx context.Context, caller domain.Identity, filter domain.ContactFilter) ([]domain.ContactSummary, error)
	ListContactRefsFunc      func(ctx context.Context, caller domain.Identity) ([]domain.ContactRef, error)
	DeleteContactFunc        func(ctx context.Context, caller domain.Identity, id uint) error
	ReassignOwnerFunc        func(ctx context.Context, caller domain.Identity, contactIDs []uint, newOwnerID uint) (int64, error)
	CreateCallFunc           func(ctx context.Context, caller domain.Identity, call *domain.Call) (uint, error)
	ListCallsFunc            func(ctx context.Context, caller domain.Identity, filter domain.CallFilter) ([]domain.CallRow, error)
	CreateFollowupFunc       func(ctx context.Context, caller domain.Identity, followup *domain.Followup) (uint, error)
	UpdateFollowupStatusFunc func(ctx context.Context, caller domain.Identity, id uint, status domain.FollowupStatus) error
	ListFollowupsFunc        func(ctx context.Context, caller domain.Identity, filter domain.FollowupFilter) ([]domain.FollowupRow, error)
	DashboardFunc            func(ctx context.Context, caller domain.Identity) (*domain.DashboardStats, error)
}

// NewMockCRMService creates a new MockCRMService with default behaviors
func NewMockCRMService() *MockCRMService {
	return &MockCRMService{}
}

func (m *MockCRMService) CreateCompany(ctx context.Context, caller domain.Identity, company *domain.Company) (uint, error) {
	if m.CreateCompanyFunc != nil {
		return m.CreateCompanyFunc(ctx, caller, company)
	}
	return 1, nil
}

func (m *MockCRMService) GetOrCreateCompany(ctx context.Context, caller domain.Identity, name string) (uint, error) {
	if m.GetOrCreateCompanyFunc != nil {
		return m.GetOrCreateCompanyFunc(ctx, caller, name)
	}
	return 1, nil
}

func (m *MockCRMService) ListCompanies(ctx context.Context, caller domain.Identity, filter domain.CompanyFilter) ([]domain.Company, error) {
	if m.ListCompaniesFunc != nil {
		return m.ListCompaniesFunc(ctx, caller, filter)
	}
	return nil, nil
}

func (m *MockCRMService) DeleteCompany(ctx context.Context, caller domain.Identity, id uint) error {
	if m.DeleteCompanyFunc != nil {
		return m.DeleteCompanyFunc(ctx, caller, id)
	}
	return nil
}

func (m *MockCRMService) CreateContact(ctx context.Context, caller domain.Identity, contact *domain.Contact) (uint, error) {
	if m.CreateContactFunc != nil {
		return m.CreateContactFunc(ctx, caller, contact)
	}
	return 1, nil
}

func (m *MockCRMService) UpdateContact(ctx context.Context, caller domain.Identity, id uint, patch domain.ContactPatch) error {
	if m.UpdateContactFunc != nil {
		return m.UpdateContactFunc(ctx, caller, id, patch)
	}
	return nil
}

func (m *MockCRMService) GetContactProfile(ctx context.Context, caller domain.Identity, id uint) (*domain.ContactProfile, error) {
	if m.GetContactProfileFunc != nil {
		return m.GetContactProfileFunc(ctx, caller, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockCRMService) ListContacts(ctx context.Context, caller domain.Identity, filter domain.ContactFilter) ([]domain.ContactSummary, error) {
	if m.ListContactsFunc != nil {
		return m.ListContactsFunc(ctx, caller, filter)
	}
	return nil, nil
}

func (m *MockCRMService) ListContactRefs(ctx context.Context, caller domain.Identity) ([]domain.ContactRef, error) {
	if m.ListContactRefsFunc != nil {
		return m.ListContactRefsFunc(ctx, caller)
	}
	return nil, nil
}

func (m *MockCRMService) DeleteContact(ctx context.Context, caller domain.Identity, id uint) error {
	if m.DeleteContactFunc != nil {
		return m.DeleteContactFunc(ctx, caller, id)
	}
	return nil
}

func (m *MockCRMService) ReassignOwner(ctx context.Context, caller domain.Identity, contactIDs []uint, newOwnerID uint) (int64, error) {
	if m.ReassignOwnerFunc != nil {
		return m.ReassignOwnerFunc(ctx, caller, contactIDs, newOwnerID)
	}
	return int64(len(contactIDs)), nil
}

func (m *MockCRMService) CreateCall(ctx context.Context, caller domain.Identity, call *domain.Call) (uint, error) {
	if m.CreateCallFunc != nil {
		return m.CreateCallFunc(ctx, caller, call)
	}
	return 1, nil
}

func (m *MockCRMService) ListCalls(ctx context.Context, caller domain.Identity, filter domain.CallFilter) ([]domain.CallRow, error) {
	if m.ListCallsFunc != nil {
		return m.ListCallsFunc(ctx, caller, filter)
	}
	return nil, nil
}

func (m *MockCRMService) CreateFollowup(ctx context.Context, caller domain.Identity, followup *domain.Followup) (uint, error) {
	if m.CreateFollowupFunc != nil {
		return m.CreateFollowupFunc(ctx, caller, followup)
	}
	return 1, nil
}

func (m *MockCRMService) UpdateFollowupStatus(ctx context.Context, caller domain.Identity, id uint, status domain.FollowupStatus) error {
	if m.UpdateFollowupStatusFunc != nil {
		return m.UpdateFollowupStatusFunc(ctx, caller, id, status)
	}
	return nil
}

func (m *MockCRMService) ListFollowups(ctx context.Context, caller domain.Identity, filter domain.FollowupFilter) ([]domain.FollowupRow, error) {
	if m.ListFollowupsFunc != nil {
		return m.ListFollowupsFunc(ctx, caller, filter)
	}
	return nil, nil
}

func (m *MockCRMService) Dashboard(ctx context.Context, caller domain.Identity) (*domain.DashboardStats, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx, caller)
	}
	return &domain.DashboardStats{}, nil
}

// Compile-time interface compliance verification
var _ domain.CRMService = (*MockCRMService)(nil)
