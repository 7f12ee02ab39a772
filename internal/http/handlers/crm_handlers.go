package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
)

// CRMHandlers handles company, contact, call and followup requests
type CRMHandlers struct {
	crmSvc domain.CRMService
}

// NewCRMHandlers creates new CRM handlers
func NewCRMHandlers(crmSvc domain.CRMService) *CRMHandlers {
	return &CRMHandlers{crmSvc: crmSvc}
}

// CreateCompanyRequest represents company creation request
type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note"`
	Level   string `json:"level"`
	Status  string `json:"status"`
}

// CreateContactRequest represents contact creation request. CompanyName
// attaches the contact to the company of that exact name, creating it when
// missing; CompanyID wins when both are set.
type CreateContactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	CompanyID   *uint  `json:"company_id"`
	CompanyName string `json:"company_name"`
	Note        string `json:"note"`
	Status      string `json:"status"`
	Domain      string `json:"domain"`
	Province    string `json:"province"`
	Level       string `json:"level"`
	OwnerID     *uint  `json:"owner_id"`
}

// UpdateContactRequest represents a partial contact update
type UpdateContactRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Phone        *string `json:"phone"`
	Role         *string `json:"role"`
	CompanyID    *uint   `json:"company_id"`
	ClearCompany bool    `json:"clear_company"`
	Note         *string `json:"note"`
	Status       *string `json:"status"`
	Domain       *string `json:"domain"`
	Province     *string `json:"province"`
	Level        *string `json:"level"`
	OwnerID      *uint   `json:"owner_id"`
	ClearOwner   bool    `json:"clear_owner"`
}

// ReassignRequest represents a bulk owner change
type ReassignRequest struct {
	ContactIDs []uint `json:"contact_ids" binding:"required"`
	OwnerID    uint   `json:"owner_id" binding:"required"`
}

// CreateCallRequest represents call logging request. A missing call_at
// means now.
type CreateCallRequest struct {
	ContactID   uint       `json:"contact_id" binding:"required"`
	CallAt      *time.Time `json:"call_at"`
	Outcome     string     `json:"outcome" binding:"required"`
	Description string     `json:"description"`
}

// CreateFollowupRequest represents followup scheduling request
type CreateFollowupRequest struct {
	ContactID uint   `json:"contact_id" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Details   string `json:"details"`
	DueDate   string `json:"due_date" binding:"required"`
	Status    string `json:"status"`
}

// UpdateFollowupStatusRequest represents a followup status change
type UpdateFollowupStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListCompanies handles GET /companies
func (h *CRMHandlers) ListCompanies(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	page, err := queryPage(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := domain.CompanyFilter{
		Name:     c.Query("q"),
		Levels:   queryEnums[domain.Level](c, "level"),
		Statuses: queryEnums[domain.CompanyStatus](c, "status"),
		Page:     page,
	}

	companies, err := h.crmSvc.ListCompanies(c.Request.Context(), identity, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]companyResponse, 0, len(companies))
	for _, co := range companies {
		out = append(out, toCompanyResponse(co))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// CreateCompany handles POST /companies
func (h *CRMHandlers) CreateCompany(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.crmSvc.CreateCompany(c.Request.Context(), identity, &domain.Company{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Note:    req.Note,
		Level:   domain.Level(req.Level),
		Status:  domain.CompanyStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

// DeleteCompany handles DELETE /companies/:id
func (h *CRMHandlers) DeleteCompany(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.crmSvc.DeleteCompany(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListContacts handles GET /contacts
func (h *CRMHandlers) ListContacts(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	filter, err := contactFilterFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}

	contacts, err := h.crmSvc.ListContacts(c.Request.Context(), identity, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]contactResponse, 0, len(contacts))
	for _, s := range contacts {
		out = append(out, toContactResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func contactFilterFrom(c *gin.Context) (domain.ContactFilter, error) {
	filter := domain.ContactFilter{
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
		Name:      c.Query("q"),
		Statuses:  queryEnums[domain.ContactStatus](c, "status"),
		Levels:    queryEnums[domain.Level](c, "level"),
	}
	var err error
	if filter.Created, err = queryRange(c, "created_from", "created_to"); err != nil {
		return filter, err
	}
	if filter.LastCall, err = queryRange(c, "last_call_from", "last_call_to"); err != nil {
		return filter, err
	}
	if filter.OwnerIDs, err = queryUints(c, "owner_id"); err != nil {
		return filter, err
	}
	if filter.CompanyID, err = queryUint(c, "company_id"); err != nil {
		return filter, err
	}
	if filter.HasOpenFollowup, err = queryBool(c, "has_open_followup"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryPage(c); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListContactRefs handles GET /contacts/refs
func (h *CRMHandlers) ListContactRefs(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	refs, err := h.crmSvc.ListContactRefs(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(refs))
	for _, r := range refs {
		out = append(out, gin.H{"id": r.ID, "full_name": r.FullName, "company_id": r.CompanyID})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// CreateContact handles POST /contacts
func (h *CRMHandlers) CreateContact(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	id, err := h.crmSvc.CreateContact(c.Request.Context(), identity, &domain.Contact{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Role:       req.Role,
		CompanyID:  req.CompanyID,
		NewCompany: req.CompanyName,
		Note:       req.Note,
		Status:     domain.ContactStatus(req.Status),
		Domain:     req.Domain,
		Province:   req.Province,
		Level:      domain.Level(req.Level),
		OwnerID:    req.OwnerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

// GetContact handles GET /contacts/:id and returns the full profile
func (h *CRMHandlers) GetContact(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.crmSvc.GetContactProfile(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	calls := make([]callResponse, 0, len(profile.Calls))
	for _, cl := range profile.Calls {
		calls = append(calls, toCallResponse(cl))
	}
	followups := make([]followupResponse, 0, len(profile.Followups))
	for _, f := range profile.Followups {
		followups = append(followups, toFollowupResponse(f))
	}
	coworkers := make([]gin.H, 0, len(profile.Coworkers))
	for _, w := range profile.Coworkers {
		coworkers = append(coworkers, gin.H{
			"id":         w.ID,
			"first_name": w.FirstName,
			"last_name":  w.LastName,
			"phone":      w.Phone,
			"role":       w.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"contact":   toContactResponse(profile.Summary),
			"calls":     calls,
			"followups": followups,
			"coworkers": coworkers,
		},
	})
}

// UpdateContact handles PATCH /contacts/:id
func (h *CRMHandlers) UpdateContact(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	patch := domain.ContactPatch{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Role:         req.Role,
		CompanyID:    req.CompanyID,
		ClearCompany: req.ClearCompany,
		Note:         req.Note,
		Domain:       req.Domain,
		Province:     req.Province,
		OwnerID:      req.OwnerID,
		ClearOwner:   req.ClearOwner,
	}
	if req.Status != nil {
		s := domain.ContactStatus(*req.Status)
		patch.Status = &s
	}
	if req.Level != nil {
		l := domain.Level(*req.Level)
		patch.Level = &l
	}

	if err := h.crmSvc.UpdateContact(c.Request.Context(), identity, id, patch); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteContact handles DELETE /contacts/:id
func (h *CRMHandlers) DeleteContact(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.crmSvc.DeleteContact(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReassignContacts handles POST /contacts/reassign
func (h *CRMHandlers) ReassignContacts(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.crmSvc.ReassignOwner(c.Request.Context(), identity, req.ContactIDs, req.OwnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reassigned": n}})
}

// ListCalls handles GET /calls
func (h *CRMHandlers) ListCalls(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	filter, err := callFilterFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.crmSvc.ListCalls(c.Request.Context(), identity, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]callResponse, 0, len(rows))
	for _, r := range rows {
		resp := toCallResponse(r.Call)
		resp.ContactName = r.ContactName
		resp.CompanyName = r.CompanyName
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func callFilterFrom(c *gin.Context) (domain.CallFilter, error) {
	filter := domain.CallFilter{
		Name:     c.Query("q"),
		Outcomes: queryEnums[domain.CallOutcome](c, "outcome"),
	}
	var err error
	if filter.Period, err = queryRange(c, "from", "to"); err != nil {
		return filter, err
	}
	if filter.ContactID, err = queryUint(c, "contact_id"); err != nil {
		return filter, err
	}
	if filter.OwnerIDs, err = queryUints(c, "owner_id"); err != nil {
		return filter, err
	}
	filter.Page, err = queryPage(c)
	return filter, err
}

// CreateCall handles POST /calls
func (h *CRMHandlers) CreateCall(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	call := &domain.Call{
		ContactID:   req.ContactID,
		Outcome:     domain.CallOutcome(req.Outcome),
		Description: req.Description,
	}
	if req.CallAt != nil {
		call.CallAt = *req.CallAt
	}

	id, err := h.crmSvc.CreateCall(c.Request.Context(), identity, call)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

// ListFollowups handles GET /followups
func (h *CRMHandlers) ListFollowups(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	filter, err := followupFilterFrom(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.crmSvc.ListFollowups(c.Request.Context(), identity, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]followupResponse, 0, len(rows))
	for _, r := range rows {
		resp := toFollowupResponse(r.Followup)
		resp.ContactName = r.ContactName
		resp.CompanyName = r.CompanyName
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func followupFilterFrom(c *gin.Context) (domain.FollowupFilter, error) {
	filter := domain.FollowupFilter{
		Name:     c.Query("q"),
		Statuses: queryEnums[domain.FollowupStatus](c, "status"),
	}
	var err error
	if filter.Due, err = queryRange(c, "due_from", "due_to"); err != nil {
		return filter, err
	}
	if filter.ContactID, err = queryUint(c, "contact_id"); err != nil {
		return filter, err
	}
	if filter.OwnerIDs, err = queryUints(c, "owner_id"); err != nil {
		return filter, err
	}
	filter.Page, err = queryPage(c)
	return filter, err
}

// CreateFollowup handles POST /followups
func (h *CRMHandlers) CreateFollowup(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	var req CreateFollowupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseDay(req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.crmSvc.CreateFollowup(c.Request.Context(), identity, &domain.Followup{
		ContactID: req.ContactID,
		Title:     req.Title,
		Details:   req.Details,
		DueDate:   due,
		Status:    domain.FollowupStatus(req.Status),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": id}})
}

// UpdateFollowupStatus handles PATCH /followups/:id/status
func (h *CRMHandlers) UpdateFollowupStatus(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateFollowupStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.crmSvc.UpdateFollowupStatus(c.Request.Context(), identity, id, domain.FollowupStatus(req.Status)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dashboard handles GET /dashboard
func (h *CRMHandlers) Dashboard(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}
	stats, err := h.crmSvc.Dashboard(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"calls_today":            stats.CallsToday,
			"successful_calls_today": stats.SuccessfulCallsToday,
			"calls_last_7_days":      stats.CallsLast7Days,
			"overdue_followups":      stats.OverdueFollowups,
			"companies":              stats.Companies,
			"contacts":               stats.Contacts,
		},
	})
}
