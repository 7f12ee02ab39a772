package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/access"
	"github.com/fardapack/fardapack-crm/internal/query"
	"gorm.io/gorm"
)

// CompanyRepositoryImpl implements domain.CompanyRepository using GORM
type CompanyRepositoryImpl struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *gorm.DB) domain.CompanyRepository {
	return &CompanyRepositoryImpl{db: db}
}

// Create implements domain.CompanyRepository
func (r *CompanyRepositoryImpl) Create(ctx context.Context, company *domain.Company) error {
	if strings.TrimSpace(company.Name) == "" {
		return fmt.Errorf("%w: company name is required", domain.ErrValidation)
	}
	applyCompanyDefaults(company)
	if !company.Level.Valid() || !company.Status.Valid() {
		return domain.ErrInvalidEnum
	}

	m := companyToDB(company)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, nil)
	}
	company.ID = m.ID
	company.Name = m.Name
	company.CreatedAt = m.CreatedAt
	return nil
}

// GetOrCreate implements domain.CompanyRepository. The name match is exact
// and case-sensitive.
func (r *CompanyRepositoryImpl) GetOrCreate(ctx context.Context, name string, createdBy *uint) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: company name is required", domain.ErrValidation)
	}

	var id uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) (err error) {
		id, err = getOrCreateCompany(tx, name, createdBy)
		return err
	})
	if err != nil {
		return 0, translateError(err, nil)
	}
	return id, nil
}

// getOrCreateCompany resolves name to a company id inside tx, inserting a
// company with default level and status when none matches.
func getOrCreateCompany(tx *gorm.DB, name string, createdBy *uint) (uint, error) {
	var existing DBCompany
	err := tx.Where("name = ?", name).Order("id").First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	m := &DBCompany{
		Name:      name,
		Level:     string(domain.LevelNone),
		Status:    string(domain.CompanyNoStatus),
		CreatedBy: createdBy,
	}
	if err := tx.Create(m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// FindByID implements domain.CompanyRepository
func (r *CompanyRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Company, error) {
	var m DBCompany
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return companyToDomain(&m), nil
}

// List implements domain.CompanyRepository
func (r *CompanyRepositoryImpl) List(ctx context.Context, caller domain.Identity, filter domain.CompanyFilter) ([]domain.Company, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	b := query.New().
		Add(scope.Companies("co")).
		Text(filter.Name, "co.name").
		Add(query.In("co.level", filter.Levels)).
		Add(query.In("co.status", filter.Statuses))

	var rows []DBCompany
	tx := r.db.WithContext(ctx).Table("companies AS co").Select("co.*")
	tx = paginate(b.Apply(tx), filter.Page).Order("LOWER(co.name) ASC, co.id ASC")
	if err := tx.Find(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.Company, 0, len(rows))
	for i := range rows {
		out = append(out, *companyToDomain(&rows[i]))
	}
	return out, nil
}

// Delete implements domain.CompanyRepository. Contacts of the company keep
// existing with their company reference cleared by the schema.
func (r *CompanyRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&DBCompany{}, id)
	if res.Error != nil {
		return translateError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func applyCompanyDefaults(c *domain.Company) {
	if c.Level == "" {
		c.Level = domain.LevelNone
	}
	if c.Status == "" {
		c.Status = domain.CompanyNoStatus
	}
}

// paginate applies a page window when a limit is set
func paginate(db *gorm.DB, page domain.Page) *gorm.DB {
	if page.Limit > 0 {
		db = db.Limit(page.Limit)
	}
	if page.Offset > 0 {
		db = db.Offset(page.Offset)
	}
	return db
}
