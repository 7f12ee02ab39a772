package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/auth"
	"github.com/fardapack/fardapack-crm/internal/reliability/retry"
)

// BootstrapAdminUsername is the account created on an empty store
const BootstrapAdminUsername = "admin"

// AuthConfig holds session settings
type AuthConfig struct {
	SessionTTL time.Duration
}

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	accountRepo domain.AccountRepository
	sessionRepo domain.SessionRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenGenerator
	policySvc   domain.PolicyService
	config      AuthConfig
	runtime
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo domain.AccountRepository,
	sessionRepo domain.SessionRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenGenerator,
	policySvc domain.PolicyService,
	config AuthConfig,
	opts ...Option,
) domain.AuthService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 7 * 24 * time.Hour
	}
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		sessionRepo: sessionRepo,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		policySvc:   policySvc,
		config:      config,
		runtime:     newRuntime(opts),
	}
}

// Login implements domain.AuthService. Unknown users and wrong passwords
// fail with the same error.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*domain.LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		s.metrics.Logins.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.Logins.WithLabelValues("failure").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if !s.passwordSvc.Verify(account.PasswordHash, password) {
		s.metrics.Logins.WithLabelValues("failure").Inc()
		s.log.Info("login rejected", zap.String("username", username))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokenSvc.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	now := s.now().UTC()
	session := &domain.Session{
		Token:     token,
		AccountID: account.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	err = s.retrier.Run(ctx, "create session", func(ctx context.Context) error {
		return s.sessionRepo.Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	s.log.Info("login", zap.Uint("account_id", account.ID), zap.String("role", string(account.Role)))

	return &domain.LoginResult{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// ValidateSession implements domain.AuthService. Unknown, expired and
// orphaned sessions all report false without an error. Validation never
// writes to the store.
func (s *AuthServiceImpl) ValidateSession(ctx context.Context, token string) (domain.Identity, bool, error) {
	if token == "" {
		return domain.Identity{}, false, nil
	}

	session, err := s.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	if session.Expired(s.now()) {
		return domain.Identity{}, false, nil
	}

	account, err := s.accountRepo.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, false, nil
		}
		return domain.Identity{}, false, fmt.Errorf("failed to load account: %w", err)
	}
	return account.Identity(), true, nil
}

// Logout implements domain.AuthService. Unknown tokens are ignored.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.retrier.Run(ctx, "delete session", func(ctx context.Context) error {
		return s.sessionRepo.Delete(ctx, token)
	})
}

// CreateAccount implements domain.AuthService
func (s *AuthServiceImpl) CreateAccount(ctx context.Context, caller domain.Identity, input domain.NewAccount) (*domain.Account, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceAccounts, auth.ActionWrite); err != nil {
		return nil, err
	}
	return s.createAccount(ctx, input)
}

func (s *AuthServiceImpl) createAccount(ctx context.Context, input domain.NewAccount) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleAgent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", domain.ErrInvalidEnum, role)
	}

	hash, err := s.passwordSvc.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Username:        username,
		PasswordHash:    hash,
		Role:            role,
		LinkedContactID: input.LinkedContactID,
	}
	err = s.retrier.Run(ctx, "create account", func(ctx context.Context) error {
		return s.accountRepo.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("account created", zap.Uint("account_id", account.ID), zap.String("role", string(role)))
	return account, nil
}

// ListAccounts implements domain.AuthService
func (s *AuthServiceImpl) ListAccounts(ctx context.Context, caller domain.Identity) ([]domain.Account, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceAccounts, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.accountRepo.List(ctx)
}

// GetAccount implements domain.AuthService
func (s *AuthServiceImpl) GetAccount(ctx context.Context, id uint) (*domain.Account, error) {
	return s.accountRepo.FindByID(ctx, id)
}

// EnsureBootstrapAdmin implements domain.AuthService. It creates the admin
// account when the store has no accounts at all and reports whether it did.
func (s *AuthServiceImpl) EnsureBootstrapAdmin(ctx context.Context, password string) (bool, error) {
	n, err := s.accountRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count accounts: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.createAccount(ctx, domain.NewAccount{
		Username: BootstrapAdminUsername,
		Password: password,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return false, fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	s.log.Warn("bootstrap admin account created, change its password", zap.String("username", BootstrapAdminUsername))
	return true, nil
}

// PurgeExpiredSessions implements domain.AuthService
func (s *AuthServiceImpl) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return retry.Do(ctx, s.retrier, "purge sessions", func(ctx context.Context) (int64, error) {
		return s.sessionRepo.DeleteExpired(ctx, s.now())
	})
}
