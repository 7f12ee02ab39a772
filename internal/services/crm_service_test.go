package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/auth"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/database"
	"github.com/fardapack/fardapack-crm/internal/infrastructure/repositories"
	"github.com/fardapack/fardapack-crm/internal/mocks"
	"github.com/fardapack/fardapack-crm/internal/observability"
)

type crmFixture struct {
	db      *gorm.DB
	svc     domain.CRMService
	metrics *observability.Metrics
	now     time.Time
	admin   domain.Identity
	sara    domain.Identity
	omid    domain.Identity
}

// setupCRM builds the service over a migrated SQLite file with the seeded
// casbin policies, one admin and two agents.
func setupCRM(t *testing.T) *crmFixture {
	t.Helper()

	db, err := database.Open(database.Config{DSN: filepath.Join(t.TempDir(), "crm.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))

	enforcer, err := auth.NewEnforcer(db)
	require.NoError(t, err)

	accounts := repositories.NewAccountRepository(db)
	ids := make([]uint, 0, 3)
	for _, a := range []domain.Account{
		{Username: "admin", PasswordHash: "x", Role: domain.RoleAdmin},
		{Username: "sara", PasswordHash: "x", Role: domain.RoleAgent},
		{Username: "omid", PasswordHash: "x", Role: domain.RoleAgent},
	} {
		a := a
		require.NoError(t, accounts.Create(context.Background(), &a))
		ids = append(ids, a.ID)
	}

	f := &crmFixture{
		db:      db,
		metrics: observability.NewMetrics(nil),
		now:     time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC),
		admin:   domain.Identity{AccountID: ids[0], Role: domain.RoleAdmin},
		sara:    domain.Identity{AccountID: ids[1], Role: domain.RoleAgent},
		omid:    domain.Identity{AccountID: ids[2], Role: domain.RoleAgent},
	}
	f.svc = NewCRMService(CRMRepositories{
		Companies: repositories.NewCompanyRepository(db),
		Contacts:  repositories.NewContactRepository(db),
		Calls:     repositories.NewCallRepository(db),
		Followups: repositories.NewFollowupRepository(db),
		Stats:     repositories.NewStatsRepository(db),
		Accounts:  accounts,
	}, NewPolicyService(enforcer), WithMetrics(f.metrics), WithClock(func() time.Time { return f.now }))
	return f
}

func (f *crmFixture) contact(t *testing.T, caller domain.Identity, c domain.Contact) uint {
	t.Helper()
	id, err := f.svc.CreateContact(context.Background(), caller, &c)
	require.NoError(t, err)
	return id
}

func TestCRMServiceImpl_CreateContactOwnership(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	id := f.contact(t, f.sara, domain.Contact{FirstName: "Reza", LastName: "Karimi", Phone: "0912"})
	profile, err := f.svc.GetContactProfile(ctx, f.sara, id)
	require.NoError(t, err)
	require.NotNil(t, profile.Summary.OwnerID)
	assert.Equal(t, f.sara.AccountID, *profile.Summary.OwnerID)
	assert.Equal(t, "sara", profile.Summary.OwnerUsername)
	assert.Equal(t, "Reza Karimi", profile.Summary.FullName)

	_, err = f.svc.CreateContact(ctx, f.sara, &domain.Contact{FirstName: "X", OwnerID: &f.omid.AccountID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.CreateContact(ctx, f.omid, &domain.Contact{FirstName: "Dup", Phone: "0912"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePhone)

	unowned := f.contact(t, f.admin, domain.Contact{FirstName: "Nobody"})
	_, err = f.svc.GetContactProfile(ctx, f.sara, unowned)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.CreateContact(ctx, domain.Identity{}, &domain.Contact{FirstName: "Anon"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCRMServiceImpl_CreateContactWithNewCompany(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	first := f.contact(t, f.sara, domain.Contact{FirstName: "Ali", Phone: "555-0100", NewCompany: " Tak Pack "})
	second := f.contact(t, f.omid, domain.Contact{FirstName: "Mina", NewCompany: "Tak Pack"})

	a, err := f.svc.GetContactProfile(ctx, f.admin, first)
	require.NoError(t, err)
	b, err := f.svc.GetContactProfile(ctx, f.admin, second)
	require.NoError(t, err)
	require.NotNil(t, a.Summary.CompanyID)
	require.NotNil(t, b.Summary.CompanyID)
	assert.Equal(t, *a.Summary.CompanyID, *b.Summary.CompanyID)
	assert.Equal(t, "Tak Pack", a.Summary.CompanyName)

	_, err = f.svc.CreateContact(ctx, f.sara, &domain.Contact{FirstName: "Dup", Phone: "555-0100", NewCompany: "Orphan Co"})
	assert.ErrorIs(t, err, domain.ErrDuplicatePhone)
	_, err = f.svc.CreateContact(ctx, f.sara, &domain.Contact{FirstName: "Bad", Level: "platinum", NewCompany: "Orphan Co"})
	assert.ErrorIs(t, err, domain.ErrInvalidEnum)

	companies, err := f.svc.ListCompanies(ctx, f.admin, domain.CompanyFilter{})
	require.NoError(t, err)
	require.Len(t, companies, 1, "a rejected contact must not leave its company behind")
	assert.Equal(t, "Tak Pack", companies[0].Name)
}

func TestCRMServiceImpl_UpdateContact(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	mine := f.contact(t, f.sara, domain.Contact{FirstName: "Ali"})
	theirs := f.contact(t, f.omid, domain.Contact{FirstName: "Mina"})
	newName := "Alireza"

	tests := []struct {
		name    string
		caller  domain.Identity
		id      uint
		patch   domain.ContactPatch
		wantErr error
	}{
		{name: "owner renames", caller: f.sara, id: mine, patch: domain.ContactPatch{FirstName: &newName}},
		{name: "empty patch is a no-op", caller: f.sara, id: mine},
		{name: "foreign contact looks missing", caller: f.sara, id: theirs, patch: domain.ContactPatch{FirstName: &newName}, wantErr: domain.ErrNotFound},
		{name: "unknown id", caller: f.admin, id: 999, patch: domain.ContactPatch{FirstName: &newName}, wantErr: domain.ErrNotFound},
		{name: "agent cannot give away", caller: f.sara, id: mine, patch: domain.ContactPatch{OwnerID: &f.omid.AccountID}, wantErr: domain.ErrForbidden},
		{name: "agent cannot clear owner", caller: f.sara, id: mine, patch: domain.ContactPatch{ClearOwner: true}, wantErr: domain.ErrForbidden},
		{name: "admin moves owner", caller: f.admin, id: theirs, patch: domain.ContactPatch{OwnerID: &f.sara.AccountID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.UpdateContact(ctx, tt.caller, tt.id, tt.patch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	profile, err := f.svc.GetContactProfile(ctx, f.sara, theirs)
	require.NoError(t, err, "contact moved by the admin becomes visible to its new owner")
	assert.Equal(t, "Mina", profile.Summary.FullName)

	profile, err = f.svc.GetContactProfile(ctx, f.sara, mine)
	require.NoError(t, err)
	assert.Equal(t, "Alireza", profile.Summary.FullName)
}

func TestCRMServiceImpl_ContactProfile(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	companyID, err := f.svc.GetOrCreateCompany(ctx, f.sara, "Pars Pack")
	require.NoError(t, err)
	again, err := f.svc.GetOrCreateCompany(ctx, f.omid, "Pars Pack")
	require.NoError(t, err)
	assert.Equal(t, companyID, again)

	id := f.contact(t, f.sara, domain.Contact{FirstName: "Hamed", LastName: "Z", CompanyID: &companyID})
	f.contact(t, f.omid, domain.Contact{FirstName: "Bahar", LastName: "A", CompanyID: &companyID})
	f.contact(t, f.omid, domain.Contact{FirstName: "Amir", LastName: "A", CompanyID: &companyID})

	for i, outcome := range []domain.CallOutcome{domain.CallFailed, domain.CallSuccessful} {
		_, err := f.svc.CreateCall(ctx, f.sara, &domain.Call{
			ContactID: id,
			Outcome:   outcome,
			CallAt:    f.now.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	for i, title := range []string{"send catalogue", "visit"} {
		_, err := f.svc.CreateFollowup(ctx, f.sara, &domain.Followup{
			ContactID: id,
			Title:     title,
			DueDate:   f.now.AddDate(0, 0, i+1),
		})
		require.NoError(t, err)
	}

	profile, err := f.svc.GetContactProfile(ctx, f.sara, id)
	require.NoError(t, err)

	assert.Equal(t, "Pars Pack", profile.Summary.CompanyName)
	require.Len(t, profile.Calls, 2)
	assert.Equal(t, domain.CallSuccessful, profile.Calls[0].Outcome, "calls newest first")
	require.Len(t, profile.Followups, 2)
	assert.Equal(t, "visit", profile.Followups[0].Title, "followups by due date descending")
	assert.Empty(t, profile.Coworkers, "coworkers owned by another agent stay hidden")

	require.NotNil(t, profile.Summary.LastCallAt)
	assert.True(t, profile.Summary.LastCallAt.Equal(f.now.Add(time.Hour)))
	assert.True(t, profile.Summary.HasOpenFollowup)

	profile, err = f.svc.GetContactProfile(ctx, f.admin, id)
	require.NoError(t, err)
	require.Len(t, profile.Coworkers, 2)
	assert.Equal(t, "Amir", profile.Coworkers[0].FirstName)
	assert.Equal(t, "Bahar", profile.Coworkers[1].FirstName)
}

func TestCRMServiceImpl_ChildrenOfForeignContacts(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	theirs := f.contact(t, f.omid, domain.Contact{FirstName: "Mina"})

	_, err := f.svc.CreateCall(ctx, f.sara, &domain.Call{ContactID: theirs, Outcome: domain.CallFailed})
	assert.ErrorIs(t, err, domain.ErrForeignKeyViolation)

	_, err = f.svc.CreateCall(ctx, f.admin, &domain.Call{ContactID: 4040, Outcome: domain.CallFailed})
	assert.ErrorIs(t, err, domain.ErrForeignKeyViolation)

	_, err = f.svc.CreateFollowup(ctx, f.sara, &domain.Followup{ContactID: theirs, Title: "x", DueDate: f.now})
	assert.ErrorIs(t, err, domain.ErrForeignKeyViolation)

	_, err = f.svc.CreateCall(ctx, f.sara, &domain.Call{Outcome: domain.CallFailed})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCRMServiceImpl_UpdateFollowupStatus(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	id := f.contact(t, f.sara, domain.Contact{FirstName: "Ali"})
	followupID, err := f.svc.CreateFollowup(ctx, f.sara, &domain.Followup{ContactID: id, Title: "call back", DueDate: f.now})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.UpdateFollowupStatus(ctx, f.omid, followupID, domain.FollowupDone), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.UpdateFollowupStatus(ctx, f.sara, followupID, "later"), domain.ErrInvalidEnum)
	assert.ErrorIs(t, f.svc.UpdateFollowupStatus(ctx, f.sara, 999, domain.FollowupDone), domain.ErrNotFound)

	require.NoError(t, f.svc.UpdateFollowupStatus(ctx, f.sara, followupID, domain.FollowupDone))
	require.NoError(t, f.svc.UpdateFollowupStatus(ctx, f.sara, followupID, domain.FollowupDone))
	assert.ErrorIs(t, f.svc.UpdateFollowupStatus(ctx, f.sara, followupID, domain.FollowupOpen), domain.ErrInvalidTransition)

	rows, err := f.svc.ListFollowups(ctx, f.sara, domain.FollowupFilter{Statuses: []domain.FollowupStatus{domain.FollowupOpen}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCRMServiceImpl_ReassignOwner(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	a := f.contact(t, f.sara, domain.Contact{FirstName: "A"})
	b := f.contact(t, f.sara, domain.Contact{FirstName: "B"})
	c := f.contact(t, f.omid, domain.Contact{FirstName: "C"})

	_, err := f.svc.ReassignOwner(ctx, f.sara, []uint{a}, f.omid.AccountID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "agents lack the reassign permission")

	_, err = f.svc.ReassignOwner(ctx, f.admin, []uint{a}, 777)
	assert.ErrorIs(t, err, domain.ErrValidation)

	n, err := f.svc.ReassignOwner(ctx, f.admin, nil, f.omid.AccountID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.svc.ReassignOwner(ctx, f.admin, []uint{a, b, c, a}, f.omid.AccountID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "c already belongs to omid")
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Reassignments))

	mine, err := f.svc.ListContacts(ctx, f.sara, domain.ContactFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := f.svc.ListContacts(ctx, f.omid, domain.ContactFilter{})
	require.NoError(t, err)
	assert.Len(t, theirs, 3)
}

func TestCRMServiceImpl_DeletePermissions(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	id := f.contact(t, f.sara, domain.Contact{FirstName: "Ali"})
	companyID, err := f.svc.CreateCompany(ctx, f.admin, &domain.Company{Name: "Tak"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteContact(ctx, f.sara, id), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteCompany(ctx, f.sara, companyID), domain.ErrForbidden)

	require.NoError(t, f.svc.DeleteContact(ctx, f.admin, id))
	assert.ErrorIs(t, f.svc.DeleteContact(ctx, f.admin, id), domain.ErrNotFound)
	require.NoError(t, f.svc.DeleteCompany(ctx, f.admin, companyID))
}

func TestCRMServiceImpl_Dashboard(t *testing.T) {
	f := setupCRM(t)
	ctx := context.Background()

	companyID, err := f.svc.CreateCompany(ctx, f.admin, &domain.Company{Name: "Tak"})
	require.NoError(t, err)
	mine := f.contact(t, f.sara, domain.Contact{FirstName: "Ali", CompanyID: &companyID})
	theirs := f.contact(t, f.omid, domain.Contact{FirstName: "Mina"})

	calls := []struct {
		contact uint
		outcome domain.CallOutcome
		at      time.Time
	}{
		{mine, domain.CallSuccessful, f.now.Add(-time.Hour)},
		{mine, domain.CallFailed, f.now.Add(-2 * time.Hour)},
		{mine, domain.CallFailed, f.now.AddDate(0, 0, -6)},
		{mine, domain.CallFailed, f.now.AddDate(0, 0, -7)},
		{mine, domain.CallFailed, f.now.AddDate(0, 0, -8)},
		{mine, domain.CallFailed, f.now.AddDate(0, 0, 1)},
		{theirs, domain.CallSuccessful, f.now},
	}
	for _, c := range calls {
		_, err := f.svc.CreateCall(ctx, f.admin, &domain.Call{ContactID: c.contact, Outcome: c.outcome, CallAt: c.at})
		require.NoError(t, err)
	}
	for _, due := range []time.Time{f.now.AddDate(0, 0, -1), f.now, f.now.AddDate(0, 0, 2)} {
		_, err := f.svc.CreateFollowup(ctx, f.admin, &domain.Followup{ContactID: mine, Title: "t", DueDate: due})
		require.NoError(t, err)
	}

	stats, err := f.svc.Dashboard(ctx, f.sara)
	require.NoError(t, err)
	assert.Equal(t, &domain.DashboardStats{
		CallsToday:           2,
		SuccessfulCallsToday: 1,
		CallsLast7Days:       5,
		OverdueFollowups:     1,
		Companies:            1,
		Contacts:             1,
	}, stats)

	stats, err = f.svc.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.CallsToday)
	assert.Equal(t, int64(2), stats.Contacts)

	_, err = f.svc.Dashboard(ctx, domain.Identity{AccountID: 5, Role: "guest"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCRMServiceImpl_WithMocks(t *testing.T) {
	ctx := context.Background()
	caller := domain.Identity{AccountID: 1, Role: domain.RoleAdmin}

	t.Run("policy denial stops before the store", func(t *testing.T) {
		policy := mocks.NewMockPolicyService()
		policy.AuthorizeFunc = func(domain.Identity, string, string) error { return domain.ErrForbidden }
		svc := NewCRMService(CRMRepositories{}, policy)

		_, err := svc.ListContacts(ctx, caller, domain.ContactFilter{})
		assert.ErrorIs(t, err, domain.ErrForbidden)
		_, err = svc.Dashboard(ctx, caller)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("dashboard surfaces the first failure", func(t *testing.T) {
		boom := errors.New("disk full")
		svc := NewCRMService(CRMRepositories{Stats: failingStats{err: boom}}, mocks.NewMockPolicyService())

		_, err := svc.Dashboard(ctx, caller)
		assert.ErrorIs(t, err, boom)
	})
}

type failingStats struct{ err error }

func (s failingStats) CountCalls(context.Context, domain.Identity, domain.DateRange, *domain.CallOutcome) (int64, error) {
	return 0, s.err
}

func (s failingStats) CountOverdueFollowups(context.Context, domain.Identity, time.Time) (int64, error) {
	return 0, s.err
}

func (s failingStats) CountCompanies(context.Context, domain.Identity) (int64, error) {
	return 0, s.err
}

func (s failingStats) CountContacts(context.Context, domain.Identity) (int64, error) {
	return 0, s.err
}
