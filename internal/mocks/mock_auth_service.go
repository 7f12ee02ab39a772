package mocks

import (
	"context"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc                func(ctx context.Context, username, password string) (*domain.LoginResult, error)
	ValidateSessionFunc      func(ctx context.Context, token string) (domain.Identity, bool, error)
	LogoutFunc               func(ctx context.Context, token string) error
	CreateAccountFunc        func(ctx context.Context, caller domain.Identity, input domain.NewAccount) (*domain.Account, error)
	ListAccountsFunc         func(ctx context.Context, caller domain.Identity) ([]domain.Account, error)
	GetAccountFunc           func(ctx context.Context, id uint) (*domain.Account, error)
	EnsureBootstrapAdminFunc func(ctx context.Context, password string) (bool, error)
	PurgeExpiredSessionsFunc func(ctx context.Context) (int64, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login authenticates a user
func (m *MockAuthService) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password)
	}
	// Default behavior: return a mock agent session
	return &domain.LoginResult{
		AccountID: 1,
		Username:  username,
		Role:      domain.RoleAgent,
		Token:     "mock_token",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

// ValidateSession resolves a token to the caller identity
func (m *MockAuthService) ValidateSession(ctx context.Context, token string) (domain.Identity, bool, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, token)
	}
	// Default behavior: no session
	return domain.Identity{}, false, nil
}

// Logout revokes a session
func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

// CreateAccount creates a login account
func (m *MockAuthService) CreateAccount(ctx context.Context, caller domain.Identity, input domain.NewAccount) (*domain.Account, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, caller, input)
	}
	return &domain.Account{ID: 2, Username: input.Username, Role: input.Role, CreatedAt: time.Now()}, nil
}

// ListAccounts lists login accounts
func (m *MockAuthService) ListAccounts(ctx context.Context, caller domain.Identity) ([]domain.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx, caller)
	}
	return nil, nil
}

// GetAccount returns an account by ID
func (m *MockAuthService) GetAccount(ctx context.Context, id uint) (*domain.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

// EnsureBootstrapAdmin seeds the first admin account
func (m *MockAuthService) EnsureBootstrapAdmin(ctx context.Context, password string) (bool, error) {
	if m.EnsureBootstrapAdminFunc != nil {
		return m.EnsureBootstrapAdminFunc(ctx, password)
	}
	return false, nil
}

// PurgeExpiredSessions removes expired sessions
func (m *MockAuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if m.PurgeExpiredSessionsFunc != nil {
		return m.PurgeExpiredSessionsFunc(ctx)
	}
	return 0, nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
