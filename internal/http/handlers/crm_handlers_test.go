package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/http/middleware"
	"github.com/fardapack/fardapack-crm/internal/mocks"
)

func newCRMRouter(crm *mocks.MockCRMService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCRMHandlers(crm)
	r := gin.New()
	v := r.Group("/", middleware.AuthMiddleware(sessionAuthService()))
	v.GET("/companies", h.ListCompanies)
	v.POST("/companies", h.CreateCompany)
	v.DELETE("/companies/:id", h.DeleteCompany)
	v.GET("/contacts", h.ListContacts)
	v.POST("/contacts", h.CreateContact)
	v.GET("/contacts/refs", h.ListContactRefs)
	v.POST("/contacts/reassign", h.ReassignContacts)
	v.GET("/contacts/:id", h.GetContact)
	v.PATCH("/contacts/:id", h.UpdateContact)
	v.DELETE("/contacts/:id", h.DeleteContact)
	v.GET("/calls", h.ListCalls)
	v.POST("/calls", h.CreateCall)
	v.GET("/followups", h.ListFollowups)
	v.POST("/followups", h.CreateFollowup)
	v.PATCH("/followups/:id/status", h.UpdateFollowupStatus)
	v.GET("/dashboard", h.Dashboard)
	return r
}

func TestCRMHandlers_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrDuplicatePhone, http.StatusConflict},
		{domain.ErrDuplicateUsername, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidEnum, http.StatusBadRequest},
		{domain.ErrInvalidTransition, http.StatusBadRequest},
		{fmt.Errorf("%w: title is required", domain.ErrValidation), http.StatusBadRequest},
		{domain.ErrForeignKeyViolation, http.StatusUnprocessableEntity},
		{fmt.Errorf("create call: %w", domain.ErrStoreBusy), http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			crm := mocks.NewMockCRMService()
			crm.CreateCallFunc = func(context.Context, domain.Identity, *domain.Call) (uint, error) {
				return 0, tt.err
			}
			w := performRequest(newCRMRouter(crm), http.MethodPost, "/calls",
				CreateCallRequest{ContactID: 1, Outcome: "failed"}, agentToken)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestCRMHandlers_ListContactsFilter(t *testing.T) {
	var got domain.ContactFilter
	var gotCaller domain.Identity
	crm := mocks.NewMockCRMService()
	crm.ListContactsFunc = func(ctx context.Context, caller domain.Identity, filter domain.ContactFilter) ([]domain.ContactSummary, error) {
		got, gotCaller = filter, caller
		due := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
		return []domain.ContactSummary{{
			Contact:           domain.Contact{ID: 7, FullName: "Ali Rezaei", Status: domain.ContactCustomer, Level: domain.LevelGold},
			CompanyName:       "Tak",
			ContactAggregates: domain.ContactAggregates{HasOpenFollowup: true, NextOpenFollowupDue: &due},
		}}, nil
	}

	w := performRequest(newCRMRouter(crm), http.MethodGet,
		"/contacts?q=ali&status=customer,proforma&level=gold&owner_id=2&owner_id=3&has_open_followup=true&created_from=2024-01-01&last_call_to=2024-06-30&limit=50",
		nil, agentToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, testAgent, gotCaller)
	assert.Equal(t, "ali", got.Name)
	assert.Equal(t, []domain.ContactStatus{domain.ContactCustomer, domain.ContactProforma}, got.Statuses)
	assert.Equal(t, []domain.Level{domain.LevelGold}, got.Levels)
	assert.Equal(t, []uint{2, 3}, got.OwnerIDs)
	require.NotNil(t, got.HasOpenFollowup)
	assert.True(t, *got.HasOpenFollowup)
	require.NotNil(t, got.Created.From)
	assert.Equal(t, "2024-01-01", got.Created.From.Format(DateLayout))
	assert.Nil(t, got.Created.To)
	require.NotNil(t, got.LastCall.To)
	assert.Equal(t, 50, got.Limit)

	body := decodeBody(t, w)
	rows := body["data"].([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "2024-06-20", row["next_open_followup_due"])
	assert.Equal(t, "Tak", row["company_name"])
	assert.Nil(t, row["last_call_at"])
}

func TestCRMHandlers_BadQuery(t *testing.T) {
	paths := []string{
		"/contacts?created_from=01/02/2024",
		"/contacts?owner_id=abc",
		"/contacts?has_open_followup=maybe",
		"/contacts?limit=-1",
		"/calls?from=yesterday",
		"/followups?contact_id=x",
	}
	r := newCRMRouter(mocks.NewMockCRMService())
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			w := performRequest(r, http.MethodGet, p, nil, agentToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCRMHandlers_CreateContact(t *testing.T) {
	t.Run("company name is passed to the contact write", func(t *testing.T) {
		crm := mocks.NewMockCRMService()
		crm.GetOrCreateCompanyFunc = func(context.Context, domain.Identity, string) (uint, error) {
			t.Error("company must not be created ahead of the contact")
			return 0, nil
		}
		crm.CreateContactFunc = func(ctx context.Context, caller domain.Identity, c *domain.Contact) (uint, error) {
			assert.Nil(t, c.CompanyID)
			assert.Equal(t, "Pars Pack", c.NewCompany)
			return 40, nil
		}
		w := performRequest(newCRMRouter(crm), http.MethodPost, "/contacts",
			CreateContactRequest{FirstName: "Ali", CompanyName: "Pars Pack"}, agentToken)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(40), decodeBody(t, w)["data"].(map[string]interface{})["id"])
	})

	t.Run("duplicate phone", func(t *testing.T) {
		crm := mocks.NewMockCRMService()
		crm.CreateContactFunc = func(context.Context, domain.Identity, *domain.Contact) (uint, error) {
			return 0, domain.ErrDuplicatePhone
		}
		w := performRequest(newCRMRouter(crm), http.MethodPost, "/contacts",
			CreateContactRequest{FirstName: "Ali", Phone: "0912"}, agentToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestCRMHandlers_UpdateContact(t *testing.T) {
	var gotID uint
	var gotPatch domain.ContactPatch
	crm := mocks.NewMockCRMService()
	crm.UpdateContactFunc = func(ctx context.Context, caller domain.Identity, id uint, patch domain.ContactPatch) error {
		gotID, gotPatch = id, patch
		return nil
	}
	r := newCRMRouter(crm)

	w := performRequest(r, http.MethodPatch, "/contacts/9", `{"last_name":"Karimi","status":"proforma","clear_company":true}`, agentToken)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, uint(9), gotID)
	require.NotNil(t, gotPatch.LastName)
	assert.Equal(t, "Karimi", *gotPatch.LastName)
	assert.Nil(t, gotPatch.FirstName, "absent fields stay nil")
	require.NotNil(t, gotPatch.Status)
	assert.Equal(t, domain.ContactProforma, *gotPatch.Status)
	assert.True(t, gotPatch.ClearCompany)

	w = performRequest(r, http.MethodPatch, "/contacts/abc", `{}`, agentToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCRMHandlers_Profile(t *testing.T) {
	crm := mocks.NewMockCRMService()
	crm.GetContactProfileFunc = func(ctx context.Context, caller domain.Identity, id uint) (*domain.ContactProfile, error) {
		if caller.Role != domain.RoleAdmin {
			return nil, domain.ErrNotFound
		}
		return &domain.ContactProfile{
			Summary:   domain.ContactSummary{Contact: domain.Contact{ID: id, FullName: "Ali"}},
			Calls:     []domain.Call{{ID: 1, ContactID: id, Outcome: domain.CallSuccessful}},
			Followups: []domain.Followup{{ID: 2, ContactID: id, Title: "visit", DueDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Status: domain.FollowupOpen}},
			Coworkers: []domain.Coworker{{ID: 3, FirstName: "Mina"}},
		}, nil
	}
	r := newCRMRouter(crm)

	w := performRequest(r, http.MethodGet, "/contacts/5", nil, agentToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(r, http.MethodGet, "/contacts/5", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["calls"], 1)
	assert.Len(t, data["coworkers"], 1)
	followup := data["followups"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "2024-07-01", followup["due_date"])
}

func TestCRMHandlers_Activities(t *testing.T) {
	crm := mocks.NewMockCRMService()
	var followup domain.Followup
	crm.CreateFollowupFunc = func(ctx context.Context, caller domain.Identity, f *domain.Followup) (uint, error) {
		followup = *f
		return 8, nil
	}
	crm.UpdateFollowupStatusFunc = func(ctx context.Context, caller domain.Identity, id uint, status domain.FollowupStatus) error {
		if status == domain.FollowupOpen {
			return domain.ErrInvalidTransition
		}
		return nil
	}
	crm.ReassignOwnerFunc = func(ctx context.Context, caller domain.Identity, ids []uint, owner uint) (int64, error) {
		if !caller.IsAdmin() {
			return 0, domain.ErrForbidden
		}
		return 2, nil
	}
	r := newCRMRouter(crm)

	w := performRequest(r, http.MethodPost, "/followups", CreateFollowupRequest{ContactID: 1, Title: "visit", DueDate: "2024-07-01"}, agentToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), followup.DueDate)

	w = performRequest(r, http.MethodPost, "/followups", CreateFollowupRequest{ContactID: 1, Title: "visit", DueDate: "1403/04/11"}, agentToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodPatch, "/followups/8/status", UpdateFollowupStatusRequest{Status: "done"}, agentToken)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = performRequest(r, http.MethodPatch, "/followups/8/status", UpdateFollowupStatusRequest{Status: "open"}, agentToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(r, http.MethodPost, "/contacts/reassign", ReassignRequest{ContactIDs: []uint{1, 2}, OwnerID: 3}, agentToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = performRequest(r, http.MethodPost, "/contacts/reassign", ReassignRequest{ContactIDs: []uint{1, 2}, OwnerID: 3}, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["data"].(map[string]interface{})["reassigned"])

	w = performRequest(r, http.MethodGet, "/dashboard", nil, agentToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["data"], "calls_last_7_days")
}

func TestCRMHandlers_Companies(t *testing.T) {
	t.Run("list parses filters", func(t *testing.T) {
		crm := mocks.NewMockCRMService()
		crm.ListCompaniesFunc = func(ctx context.Context, caller domain.Identity, f domain.CompanyFilter) ([]domain.Company, error) {
			assert.Equal(t, testAgent, caller)
			assert.Equal(t, "pack", f.Name)
			assert.Equal(t, []domain.Level{domain.LevelGold, domain.LevelBronze}, f.Levels)
			assert.Equal(t, []domain.CompanyStatus{domain.CompanyInactive}, f.Statuses)
			return []domain.Company{{ID: 3, Name: "Tak Pack", Level: domain.LevelGold, Status: domain.CompanyInactive}}, nil
		}
		w := performRequest(newCRMRouter(crm), http.MethodGet, "/companies?q=pack&level=gold,bronze&status=inactive", nil, agentToken)
		require.Equal(t, http.StatusOK, w.Code)
		rows := decodeBody(t, w)["data"].([]interface{})
		require.Len(t, rows, 1)
		assert.Equal(t, "Tak Pack", rows[0].(map[string]interface{})["name"])
	})

	t.Run("create requires a name", func(t *testing.T) {
		w := performRequest(newCRMRouter(mocks.NewMockCRMService()), http.MethodPost, "/companies", `{"phone":"021"}`, agentToken)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create", func(t *testing.T) {
		crm := mocks.NewMockCRMService()
		crm.CreateCompanyFunc = func(ctx context.Context, caller domain.Identity, co *domain.Company) (uint, error) {
			assert.Equal(t, "Tak Pack", co.Name)
			assert.Equal(t, domain.LevelSilver, co.Level)
			return 7, nil
		}
		w := performRequest(newCRMRouter(crm), http.MethodPost, "/companies",
			CreateCompanyRequest{Name: "Tak Pack", Level: "silver"}, agentToken)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, float64(7), decodeBody(t, w)["data"].(map[string]interface{})["id"])
	})

	t.Run("delete", func(t *testing.T) {
		crm := mocks.NewMockCRMService()
		crm.DeleteCompanyFunc = func(ctx context.Context, caller domain.Identity, id uint) error {
			if !caller.IsAdmin() {
				return domain.ErrForbidden
			}
			assert.Equal(t, uint(7), id)
			return nil
		}
		r := newCRMRouter(crm)
		assert.Equal(t, http.StatusForbidden, performRequest(r, http.MethodDelete, "/companies/7", nil, agentToken).Code)
		assert.Equal(t, http.StatusNoContent, performRequest(r, http.MethodDelete, "/companies/7", nil, adminToken).Code)
		assert.Equal(t, http.StatusBadRequest, performRequest(r, http.MethodDelete, "/companies/abc", nil, adminToken).Code)
	})
}
