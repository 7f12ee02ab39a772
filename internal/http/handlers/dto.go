package handlers

import (
	"time"

	"github.com/fardapack/fardapack-crm/domain"
)

type companyResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Note      string    `json:"note,omitempty"`
	Level     string    `json:"level"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toCompanyResponse(c domain.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		Note:      c.Note,
		Level:     string(c.Level),
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
}

type contactResponse struct {
	ID                  uint       `json:"id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	FullName            string     `json:"full_name"`
	Phone               string     `json:"phone,omitempty"`
	Role                string     `json:"role,omitempty"`
	CompanyID           *uint      `json:"company_id"`
	CompanyName         string     `json:"company_name,omitempty"`
	Note                string     `json:"note,omitempty"`
	Status              string     `json:"status"`
	Domain              string     `json:"domain,omitempty"`
	Province            string     `json:"province,omitempty"`
	Level               string     `json:"level"`
	OwnerID             *uint      `json:"owner_id"`
	OwnerUsername       string     `json:"owner_username,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	LastCallAt          *time.Time `json:"last_call_at"`
	HasOpenFollowup     bool       `json:"has_open_followup"`
	NextOpenFollowupDue *string    `json:"next_open_followup_due"`
}

func toContactResponse(s domain.ContactSummary) contactResponse {
	resp := contactResponse{
		ID:              s.ID,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		FullName:        s.FullName,
		Phone:           s.Phone,
		Role:            s.Role,
		CompanyID:       s.CompanyID,
		CompanyName:     s.CompanyName,
		Note:            s.Note,
		Status:          string(s.Status),
		Domain:          s.Domain,
		Province:        s.Province,
		Level:           string(s.Level),
		OwnerID:         s.OwnerID,
		OwnerUsername:   s.OwnerUsername,
		CreatedAt:       s.CreatedAt,
		LastCallAt:      s.LastCallAt,
		HasOpenFollowup: s.HasOpenFollowup,
	}
	if s.NextOpenFollowupDue != nil {
		day := s.NextOpenFollowupDue.Format(DateLayout)
		resp.NextOpenFollowupDue = &day
	}
	return resp
}

type callResponse struct {
	ID          uint      `json:"id"`
	ContactID   uint      `json:"contact_id"`
	ContactName string    `json:"contact_name,omitempty"`
	CompanyName string    `json:"company_name,omitempty"`
	CallAt      time.Time `json:"call_at"`
	Outcome     string    `json:"outcome"`
	Description string    `json:"description,omitempty"`
}

func toCallResponse(c domain.Call) callResponse {
	return callResponse{
		ID:          c.ID,
		ContactID:   c.ContactID,
		CallAt:      c.CallAt,
		Outcome:     string(c.Outcome),
		Description: c.Description,
	}
}

type followupResponse struct {
	ID          uint   `json:"id"`
	ContactID   uint   `json:"contact_id"`
	ContactName string `json:"contact_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Title       string `json:"title"`
	Details     string `json:"details,omitempty"`
	DueDate     string `json:"due_date"`
	Status      string `json:"status"`
}

func toFollowupResponse(f domain.Followup) followupResponse {
	return followupResponse{
		ID:        f.ID,
		ContactID: f.ContactID,
		Title:     f.Title,
		Details:   f.Details,
		DueDate:   f.DueDate.Format(DateLayout),
		Status:    string(f.Status),
	}
}

type accountResponse struct {
	ID              uint      `json:"id"`
	Username        string    `json:"username"`
	Role            string    `json:"role"`
	LinkedContactID *uint     `json:"linked_contact_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:              a.ID,
		Username:        a.Username,
		Role:            string(a.Role),
		LinkedContactID: a.LinkedContactID,
		CreatedAt:       a.CreatedAt,
	}
}
