package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/access"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/auth"
	"github.com/fardapack/fardapack-crm/internal/query"
	"github.com/fardapack/fardapack-crm/internal/reliability/retry"
)

// CRMRepositories groups the stores used by the CRM service
type CRMRepositories struct {
	Companies domain.CompanyRepository
	Contacts  domain.ContactRepository
	Calls     domain.CallRepository
	Followups domain.FollowupRepository
	Stats     domain.StatsRepository
	Accounts  domain.AccountRepository
}

// CRMServiceImpl implements domain.CRMService. Every operation first checks
// the role permission, then narrows rows through the caller's scope.
type CRMServiceImpl struct {
	repos     CRMRepositories
	policySvc domain.PolicyService
	runtime
}

// NewCRMService creates a new CRM service
func NewCRMService(repos CRMRepositories, policySvc domain.PolicyService, opts ...Option) domain.CRMService {
	return &CRMServiceImpl{
		repos:     repos,
		policySvc: policySvc,
		runtime:   newRuntime(opts),
	}
}

// CreateCompany implements domain.CRMService
func (s *CRMServiceImpl) CreateCompany(ctx context.Context, caller domain.Identity, company *domain.Company) (uint, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceCompanies, auth.ActionWrite); err != nil {
		return 0, err
	}
	company.CreatedBy = accountRef(caller)
	err := s.retrier.Run(ctx, "create company", func(ctx context.Context) error {
		return s.repos.Companies.Create(ctx, company)
	})
	if err != nil {
		return 0, err
	}
	return company.ID, nil
}

// GetOrCreateCompany implements domain.CRMService
func (s *CRMServiceImpl) GetOrCreateCompany(ctx context.Context, caller domain.Identity, name string) (uint, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceCompanies, auth.ActionWrite); err != nil {
		return 0, err
	}
	return retry.Do(ctx, s.retrier, "get or create company", func(ctx context.Context) (uint, error) {
		return s.repos.Companies.GetOrCreate(ctx, name, accountRef(caller))
	})
}

// ListCompanies implements domain.CRMService
func (s *CRMServiceImpl) ListCompanies(ctx context.Context, caller domain.Identity, filter domain.CompanyFilter) ([]domain.Company, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceCompanies, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Companies.List(ctx, caller, filter)
}

// DeleteCompany implements domain.CRMService. Contacts of the company are
// kept and lose their company reference.
func (s *CRMServiceImpl) DeleteCompany(ctx context.Context, caller domain.Identity, id uint) error {
	if err := s.policySvc.Authorize(caller, auth.ResourceCompanies, auth.ActionDelete); err != nil {
		return err
	}
	err := s.retrier.Run(ctx, "delete company", func(ctx context.Context) error {
		return s.repos.Companies.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("company deleted", zap.Uint("company_id", id), zap.Uint("by", caller.AccountID))
	return nil
}

// CreateContact implements domain.CRMService. Agents always own the
// contacts they create. A NewCompany name is resolved in the same write.
func (s *CRMServiceImpl) CreateContact(ctx context.Context, caller domain.Identity, contact *domain.Contact) (uint, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionWrite); err != nil {
		return 0, err
	}
	if !caller.IsAdmin() {
		if contact.OwnerID != nil && *contact.OwnerID != caller.AccountID {
			return 0, fmt.Errorf("%w: agents may only create their own contacts", domain.ErrForbidden)
		}
		contact.OwnerID = accountRef(caller)
	}
	if contact.CompanyID == nil && strings.TrimSpace(contact.NewCompany) != "" {
		if err := s.policySvc.Authorize(caller, auth.ResourceCompanies, auth.ActionWrite); err != nil {
			return 0, err
		}
	}
	contact.CreatedBy = accountRef(caller)

	err := s.retrier.Run(ctx, "create contact", func(ctx context.Context) error {
		return s.repos.Contacts.Create(ctx, contact)
	})
	if err != nil {
		return 0, err
	}
	return contact.ID, nil
}

// UpdateContact implements domain.CRMService. Only admins may change the
// owner of a contact.
func (s *CRMServiceImpl) UpdateContact(ctx context.Context, caller domain.Identity, id uint, patch domain.ContactPatch) error {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionWrite); err != nil {
		return err
	}
	if _, err := s.visibleContact(ctx, caller, id); err != nil {
		return err
	}
	if !caller.IsAdmin() && (patch.ClearOwner || (patch.OwnerID != nil && *patch.OwnerID != caller.AccountID)) {
		return fmt.Errorf("%w: agents may not change contact ownership", domain.ErrForbidden)
	}
	if patch.IsEmpty() {
		return nil
	}

	return s.retrier.Run(ctx, "update contact", func(ctx context.Context) error {
		return s.repos.Contacts.Update(ctx, id, patch)
	})
}

// GetContactProfile implements domain.CRMService. Contacts outside the
// caller's scope are reported as not found.
func (s *CRMServiceImpl) GetContactProfile(ctx context.Context, caller domain.Identity, id uint) (*domain.ContactProfile, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionRead); err != nil {
		return nil, err
	}

	summary, err := s.repos.Contacts.Summary(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	profile := &domain.ContactProfile{Summary: *summary}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		calls, err := s.repos.Calls.ForContact(gctx, id)
		profile.Calls = calls
		return err
	})
	g.Go(func() error {
		followups, err := s.repos.Followups.ForContact(gctx, id)
		profile.Followups = followups
		return err
	})
	if summary.CompanyID != nil {
		g.Go(func() error {
			coworkers, err := s.repos.Contacts.Coworkers(gctx, caller, *summary.CompanyID, id)
			profile.Coworkers = coworkers
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load contact profile: %w", err)
	}
	return profile, nil
}

// ListContacts implements domain.CRMService
func (s *CRMServiceImpl) ListContacts(ctx context.Context, caller domain.Identity, filter domain.ContactFilter) ([]domain.ContactSummary, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Contacts.List(ctx, caller, filter)
}

// ListContactRefs implements domain.CRMService
func (s *CRMServiceImpl) ListContactRefs(ctx context.Context, caller domain.Identity) ([]domain.ContactRef, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Contacts.ListRefs(ctx, caller)
}

// DeleteContact implements domain.CRMService. Calls and followups of the
// contact are removed with it.
func (s *CRMServiceImpl) DeleteContact(ctx context.Context, caller domain.Identity, id uint) error {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionDelete); err != nil {
		return err
	}
	if _, err := s.visibleContact(ctx, caller, id); err != nil {
		return err
	}
	err := s.retrier.Run(ctx, "delete contact", func(ctx context.Context) error {
		return s.repos.Contacts.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("contact deleted", zap.Uint("contact_id", id), zap.Uint("by", caller.AccountID))
	return nil
}

// ReassignOwner implements domain.CRMService. The selection is narrowed to
// the caller's scope and moved in one transaction; the result counts the
// contacts whose owner actually changed.
func (s *CRMServiceImpl) ReassignOwner(ctx context.Context, caller domain.Identity, contactIDs []uint, newOwnerID uint) (int64, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceContacts, auth.ActionReassign); err != nil {
		return 0, err
	}
	if len(contactIDs) == 0 {
		return 0, nil
	}
	if _, err := s.repos.Accounts.FindByID(ctx, newOwnerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("%w: owner account %d", domain.ErrValidation, newOwnerID)
		}
		return 0, err
	}

	ids, err := s.repos.Contacts.ScopedIDs(ctx, caller, contactIDs)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := retry.Do(ctx, s.retrier, "reassign owner", func(ctx context.Context) (int64, error) {
		return s.repos.Contacts.ReassignOwner(ctx, ids, newOwnerID)
	})
	if err != nil {
		return 0, err
	}

	s.metrics.Reassignments.Add(float64(n))
	s.log.Info("contacts reassigned",
		zap.Uint("by", caller.AccountID),
		zap.Uint("new_owner", newOwnerID),
		zap.Int("selected", len(contactIDs)),
		zap.Int("in_scope", len(ids)),
		zap.Int64("changed", n),
	)
	return n, nil
}

// CreateCall implements domain.CRMService
func (s *CRMServiceImpl) CreateCall(ctx context.Context, caller domain.Identity, call *domain.Call) (uint, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceCalls, auth.ActionWrite); err != nil {
		return 0, err
	}
	if err := s.checkParentContact(ctx, caller, call.ContactID); err != nil {
		return 0, err
	}
	call.CreatedBy = accountRef(caller)
	err := s.retrier.Run(ctx, "create call", func(ctx context.Context) error {
		return s.repos.Calls.Create(ctx, call)
	})
	if err != nil {
		return 0, err
	}
	return call.ID, nil
}

// ListCalls implements domain.CRMService
func (s *CRMServiceImpl) ListCalls(ctx context.Context, caller domain.Identity, filter domain.CallFilter) ([]domain.CallRow, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceCalls, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Calls.List(ctx, caller, filter)
}

// CreateFollowup implements domain.CRMService
func (s *CRMServiceImpl) CreateFollowup(ctx context.Context, caller domain.Identity, followup *domain.Followup) (uint, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceFollowups, auth.ActionWrite); err != nil {
		return 0, err
	}
	if err := s.checkParentContact(ctx, caller, followup.ContactID); err != nil {
		return 0, err
	}
	followup.CreatedBy = accountRef(caller)
	err := s.retrier.Run(ctx, "create followup", func(ctx context.Context) error {
		return s.repos.Followups.Create(ctx, followup)
	})
	if err != nil {
		return 0, err
	}
	return followup.ID, nil
}

// UpdateFollowupStatus implements domain.CRMService
func (s *CRMServiceImpl) UpdateFollowupStatus(ctx context.Context, caller domain.Identity, id uint, status domain.FollowupStatus) error {
	if err := s.policySvc.Authorize(caller, auth.ResourceFollowups, auth.ActionWrite); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: followup status %q", domain.ErrInvalidEnum, status)
	}

	followup, err := s.repos.Followups.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.visibleContact(ctx, caller, followup.ContactID); err != nil {
		return err
	}

	return s.retrier.Run(ctx, "update followup status", func(ctx context.Context) error {
		return s.repos.Followups.UpdateStatus(ctx, id, status)
	})
}

// ListFollowups implements domain.CRMService
func (s *CRMServiceImpl) ListFollowups(ctx context.Context, caller domain.Identity, filter domain.FollowupFilter) ([]domain.FollowupRow, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceFollowups, auth.ActionRead); err != nil {
		return nil, err
	}
	return s.repos.Followups.List(ctx, caller, filter)
}

// Dashboard implements domain.CRMService. The counters run concurrently
// and are all restricted to the caller's scope. The weekly counter takes
// every call from the day seven days ago onwards.
func (s *CRMServiceImpl) Dashboard(ctx context.Context, caller domain.Identity) (*domain.DashboardStats, error) {
	if err := s.policySvc.Authorize(caller, auth.ResourceDashboard, auth.ActionRead); err != nil {
		return nil, err
	}

	today := query.StartOfDay(s.now().UTC())
	weekStart := today.AddDate(0, 0, -7)
	todayOnly := domain.DateRange{From: &today, To: &today}
	lastWeek := domain.DateRange{From: &weekStart}
	successful := domain.CallSuccessful

	stats := &domain.DashboardStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.CallsToday, err = s.repos.Stats.CountCalls(gctx, caller, todayOnly, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.SuccessfulCallsToday, err = s.repos.Stats.CountCalls(gctx, caller, todayOnly, &successful)
		return err
	})
	g.Go(func() (err error) {
		stats.CallsLast7Days, err = s.repos.Stats.CountCalls(gctx, caller, lastWeek, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.OverdueFollowups, err = s.repos.Stats.CountOverdueFollowups(gctx, caller, today)
		return err
	})
	g.Go(func() (err error) {
		stats.Companies, err = s.repos.Stats.CountCompanies(gctx, caller)
		return err
	})
	g.Go(func() (err error) {
		stats.Contacts, err = s.repos.Stats.CountContacts(gctx, caller)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute dashboard: %w", err)
	}
	return stats, nil
}

// visibleContact loads a contact and hides it when it is outside the scope
func (s *CRMServiceImpl) visibleContact(ctx context.Context, caller domain.Identity, id uint) (*domain.Contact, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}
	contact, err := s.repos.Contacts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Owns(contact.OwnerID) {
		return nil, domain.ErrNotFound
	}
	return contact, nil
}

// checkParentContact rejects children of missing or foreign contacts alike
func (s *CRMServiceImpl) checkParentContact(ctx context.Context, caller domain.Identity, contactID uint) error {
	if contactID == 0 {
		return fmt.Errorf("%w: contact is required", domain.ErrValidation)
	}
	if _, err := s.visibleContact(ctx, caller, contactID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: contact %d", domain.ErrForeignKeyViolation, contactID)
		}
		return err
	}
	return nil
}

func accountRef(caller domain.Identity) *uint {
	id := caller.AccountID
	return &id
}
