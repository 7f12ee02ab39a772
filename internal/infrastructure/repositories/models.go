package repositories

import (
	"strings"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
)

// DBCompany represents the database model for Company
type DBCompany struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"not null;size:255;index"`
	Phone     string    `gorm:"size:32"`
	Address   string    `gorm:"size:512"`
	Note      string    `gorm:"type:text"`
	Level     string    `gorm:"not null;size:16;default:none;check:chk_companies_level,level IN ('none','gold','silver','bronze')"`
	Status    string    `gorm:"not null;size:16;default:none;check:chk_companies_status,status IN ('none','active','inactive')"`
	CreatedAt time.Time `gorm:"index"`
	CreatedBy *uint
}

// TableName returns the table name for GORM
func (DBCompany) TableName() string {
	return "companies"
}

// DBContact represents the database model for Contact. Phone is stored as
// NULL when empty so the unique index only covers real numbers.
type DBContact struct {
	ID        uint       `gorm:"primaryKey"`
	FirstName string     `gorm:"size:128"`
	LastName  string     `gorm:"size:128"`
	FullName  string     `gorm:"not null;size:255;index"`
	Phone     *string    `gorm:"uniqueIndex;size:32"`
	Role      string     `gorm:"size:128"`
	CompanyID *uint      `gorm:"index"`
	Company   *DBCompany `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL"`
	Note      string     `gorm:"type:text"`
	Status    string     `gorm:"not null;size:32;default:no_status;check:chk_contacts_status,status IN ('no_status','following_up','proforma','customer')"`
	Domain    string     `gorm:"size:128"`
	Province  string     `gorm:"size:128"`
	Level     string     `gorm:"not null;size:16;default:none;check:chk_contacts_level,level IN ('none','gold','silver','bronze')"`
	OwnerID   *uint      `gorm:"index"`
	CreatedAt time.Time  `gorm:"index"`
	CreatedBy *uint
}

// TableName returns the table name for GORM
func (DBContact) TableName() string {
	return "contacts"
}

// DBCall represents the database model for Call
type DBCall struct {
	ID          uint       `gorm:"primaryKey"`
	ContactID   uint       `gorm:"not null;index:idx_calls_contact_at,priority:1"`
	Contact     *DBContact `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`
	CallAt      time.Time  `gorm:"not null;index:idx_calls_contact_at,priority:2"`
	Outcome     string     `gorm:"not null;size:16;check:chk_calls_outcome,outcome IN ('failed','successful','switched_off','rejected')"`
	Description string     `gorm:"type:text"`
	CreatedAt   time.Time
	CreatedBy   *uint
}

// TableName returns the table name for GORM
func (DBCall) TableName() string {
	return "calls"
}

// DBFollowup represents the database model for Followup
type DBFollowup struct {
	ID        uint       `gorm:"primaryKey"`
	ContactID uint       `gorm:"not null;index:idx_followups_contact_due,priority:1"`
	Contact   *DBContact `gorm:"foreignKey:ContactID;constraint:OnDelete:CASCADE"`
	Title     string     `gorm:"not null;size:255"`
	Details   string     `gorm:"type:text"`
	DueDate   time.Time  `gorm:"not null;index:idx_followups_contact_due,priority:2"`
	Status    string     `gorm:"not null;size:16;default:open;check:chk_followups_status,status IN ('open','done')"`
	CreatedAt time.Time
	CreatedBy *uint
}

// TableName returns the table name for GORM
func (DBFollowup) TableName() string {
	return "followups"
}

// DBAccount represents the database model for Account
type DBAccount struct {
	ID              uint       `gorm:"primaryKey"`
	Username        string     `gorm:"uniqueIndex;not null;size:64"`
	PasswordHash    string     `gorm:"column:password_hash;not null"`
	Role            string     `gorm:"not null;size:16;default:agent;check:chk_accounts_role,role IN ('admin','agent')"`
	LinkedContactID *uint      `gorm:"index"`
	LinkedContact   *DBContact `gorm:"foreignKey:LinkedContactID;constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time
}

// TableName returns the table name for GORM
func (DBAccount) TableName() string {
	return "accounts"
}

// DBSession represents the database model for Session
type DBSession struct {
	Token     string     `gorm:"primaryKey;size:64"`
	AccountID uint       `gorm:"not null;index"`
	Account   *DBAccount `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DBSession) TableName() string {
	return "sessions"
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&DBCompany{},
		&DBContact{},
		&DBCall{},
		&DBFollowup{},
		&DBAccount{},
		&DBSession{},
	}
}

// nullablePhone trims a phone number and maps the empty string to NULL
func nullablePhone(phone string) *string {
	p := strings.TrimSpace(phone)
	if p == "" {
		return nil
	}
	return &p
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func companyToDB(c *domain.Company) *DBCompany {
	return &DBCompany{
		ID:        c.ID,
		Name:      strings.TrimSpace(c.Name),
		Phone:     strings.TrimSpace(c.Phone),
		Address:   strings.TrimSpace(c.Address),
		Note:      strings.TrimSpace(c.Note),
		Level:     string(c.Level),
		Status:    string(c.Status),
		CreatedBy: c.CreatedBy,
	}
}

func companyToDomain(m *DBCompany) *domain.Company {
	return &domain.Company{
		ID:        m.ID,
		Name:      m.Name,
		Phone:     m.Phone,
		Address:   m.Address,
		Note:      m.Note,
		Level:     domain.Level(m.Level),
		Status:    domain.CompanyStatus(m.Status),
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

func contactToDB(c *domain.Contact) *DBContact {
	first, last := strings.TrimSpace(c.FirstName), strings.TrimSpace(c.LastName)
	return &DBContact{
		ID:        c.ID,
		FirstName: first,
		LastName:  last,
		FullName:  domain.FullNameOf(first, last),
		Phone:     nullablePhone(c.Phone),
		Role:      strings.TrimSpace(c.Role),
		CompanyID: c.CompanyID,
		Note:      strings.TrimSpace(c.Note),
		Status:    string(c.Status),
		Domain:    strings.TrimSpace(c.Domain),
		Province:  strings.TrimSpace(c.Province),
		Level:     string(c.Level),
		OwnerID:   c.OwnerID,
		CreatedBy: c.CreatedBy,
	}
}

func contactToDomain(m *DBContact) *domain.Contact {
	return &domain.Contact{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		FullName:  m.FullName,
		Phone:     derefString(m.Phone),
		Role:      m.Role,
		CompanyID: m.CompanyID,
		Note:      m.Note,
		Status:    domain.ContactStatus(m.Status),
		Domain:    m.Domain,
		Province:  m.Province,
		Level:     domain.Level(m.Level),
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

func callToDomain(m *DBCall) domain.Call {
	return domain.Call{
		ID:          m.ID,
		ContactID:   m.ContactID,
		CallAt:      m.CallAt.UTC(),
		Outcome:     domain.CallOutcome(m.Outcome),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		CreatedBy:   m.CreatedBy,
	}
}

func followupToDomain(m *DBFollowup) domain.Followup {
	return domain.Followup{
		ID:        m.ID,
		ContactID: m.ContactID,
		Title:     m.Title,
		Details:   m.Details,
		DueDate:   m.DueDate.UTC(),
		Status:    domain.FollowupStatus(m.Status),
		CreatedAt: m.CreatedAt,
		CreatedBy: m.CreatedBy,
	}
}

func accountToDomain(m *DBAccount) *domain.Account {
	return &domain.Account{
		ID:              m.ID,
		Username:        m.Username,
		PasswordHash:    m.PasswordHash,
		Role:            domain.Role(m.Role),
		LinkedContactID: m.LinkedContactID,
		CreatedAt:       m.CreatedAt,
	}
}
