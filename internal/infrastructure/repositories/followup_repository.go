package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/access"
	"github.com/fardapack/fardapack-crm/internal/query"
	"gorm.io/gorm"
)

// FollowupRepositoryImpl implements domain.FollowupRepository using GORM
type FollowupRepositoryImpl struct {
	db *gorm.DB
}

// NewFollowupRepository creates a new followup repository
func NewFollowupRepository(db *gorm.DB) domain.FollowupRepository {
	return &FollowupRepositoryImpl{db: db}
}

type followupRow struct {
	ID          uint
	ContactID   uint
	Title       string
	Details     string
	DueDate     time.Time
	Status      string
	CreatedAt   time.Time
	CreatedBy   *uint
	ContactName sql.NullString
	CompanyName sql.NullString
}

// Create implements domain.FollowupRepository. The due date is stored as
// midnight UTC of its calendar day.
func (r *FollowupRepositoryImpl) Create(ctx context.Context, followup *domain.Followup) error {
	title := strings.TrimSpace(followup.Title)
	if title == "" {
		return fmt.Errorf("%w: followup title is required", domain.ErrValidation)
	}
	if followup.ContactID == 0 {
		return fmt.Errorf("%w: contact is required", domain.ErrValidation)
	}
	if followup.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", domain.ErrValidation)
	}
	if followup.Status == "" {
		followup.Status = domain.FollowupOpen
	}
	if !followup.Status.Valid() {
		return fmt.Errorf("%w: followup status %q", domain.ErrInvalidEnum, followup.Status)
	}

	m := &DBFollowup{
		ContactID: followup.ContactID,
		Title:     title,
		Details:   strings.TrimSpace(followup.Details),
		DueDate:   query.StartOfDay(followup.DueDate),
		Status:    string(followup.Status),
		CreatedBy: followup.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, nil)
	}
	followup.ID = m.ID
	followup.Title = m.Title
	followup.Details = m.Details
	followup.DueDate = m.DueDate
	followup.CreatedAt = m.CreatedAt
	return nil
}

// FindByID implements domain.FollowupRepository
func (r *FollowupRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Followup, error) {
	var m DBFollowup
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err, nil)
	}
	f := followupToDomain(&m)
	return &f, nil
}

// UpdateStatus implements domain.FollowupRepository. Setting the current
// status again is a no-op; reopening a done followup is rejected.
func (r *FollowupRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status domain.FollowupStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: followup status %q", domain.ErrInvalidEnum, status)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current DBFollowup
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}
		from := domain.FollowupStatus(current.Status)
		if !from.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, status)
		}
		if from == status {
			return nil
		}
		return tx.Model(&DBFollowup{}).Where("id = ?", id).Update("status", string(status)).Error
	})
	return translateError(err, nil)
}

// List implements domain.FollowupRepository. Followups are scoped through the
// owner of their contact and ordered by due date.
func (r *FollowupRepositoryImpl) List(ctx context.Context, caller domain.Identity, filter domain.FollowupFilter) ([]domain.FollowupRow, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	b := query.New().
		Add(scope.Contacts("c")).
		Text(filter.Name, "c.full_name", "co.name").
		Add(query.In("f.status", filter.Statuses)).
		Add(query.Range("f.due_date", filter.Due.From, filter.Due.To)).
		Eq("f.contact_id", filter.ContactID).
		Add(query.In("c.owner_id", filter.OwnerIDs))

	tx := r.db.WithContext(ctx).
		Table("followups AS f").
		Select("f.*, c.full_name AS contact_name, co.name AS company_name").
		Joins("JOIN contacts c ON c.id = f.contact_id").
		Joins("LEFT JOIN companies co ON co.id = c.company_id")
	tx = paginate(b.Apply(tx), filter.Page).Order("f.due_date ASC, f.id DESC")

	var rows []followupRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.FollowupRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.FollowupRow{
			Followup: domain.Followup{
				ID:        row.ID,
				ContactID: row.ContactID,
				Title:     row.Title,
				Details:   row.Details,
				DueDate:   row.DueDate.UTC(),
				Status:    domain.FollowupStatus(row.Status),
				CreatedAt: row.CreatedAt,
				CreatedBy: row.CreatedBy,
			},
			ContactName: row.ContactName.String,
			CompanyName: row.CompanyName.String,
		})
	}
	return out, nil
}

// ForContact implements domain.FollowupRepository, latest due first
func (r *FollowupRepositoryImpl) ForContact(ctx context.Context, contactID uint) ([]domain.Followup, error) {
	var rows []DBFollowup
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("due_date DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.Followup, 0, len(rows))
	for i := range rows {
		out = append(out, followupToDomain(&rows[i]))
	}
	return out, nil
}
