package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/fardapack/fardapack-crm/domain"
)

// MockAccountRepository implements domain.AccountRepository interface for testing.
// Without overrides it keeps accounts in memory.
type MockAccountRepository struct {
	CreateFunc         func(ctx context.Context, account *domain.Account) error
	FindByUsernameFunc func(ctx context.Context, username string) (*domain.Account, error)
	FindByIDFunc       func(ctx context.Context, id uint) (*domain.Account, error)
	ListFunc           func(ctx context.Context) ([]domain.Account, error)
	CountFunc          func(ctx context.Context) (int64, error)

	mu       sync.Mutex
	accounts []domain.Account
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository(seed ...domain.Account) *MockAccountRepository {
	return &MockAccountRepository{accounts: append([]domain.Account(nil), seed...)}
}

// Create stores an account, enforcing unique usernames
func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == account.Username {
			return domain.ErrDuplicateUsername
		}
	}
	account.ID = uint(len(m.accounts) + 1)
	m.accounts = append(m.accounts, *account)
	return nil
}

// FindByUsername finds an account by username
func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// FindByID finds an account by ID
func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns every account ordered by username
func (m *MockAccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.Account(nil), m.accounts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Count returns the number of accounts
func (m *MockAccountRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.accounts)), nil
}

// Compile-time interface compliance verification
var _ domain.AccountRepository = (*MockAccountRepository)(nil)
