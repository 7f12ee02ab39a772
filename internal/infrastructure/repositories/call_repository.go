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

// CallRepositoryImpl implements domain.CallRepository using GORM
type CallRepositoryImpl struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *gorm.DB) domain.CallRepository {
	return &CallRepositoryImpl{db: db, now: time.Now}
}

// callRow is one scanned row of the call list query
type callRow struct {
	ID          uint
	ContactID   uint
	CallAt      time.Time
	Outcome     string
	Description string
	CreatedAt   time.Time
	CreatedBy   *uint
	ContactName sql.NullString
	CompanyName sql.NullString
}

// Create implements domain.CallRepository. A zero CallAt records the call at
// the current time. Times are kept in UTC with second precision.
func (r *CallRepositoryImpl) Create(ctx context.Context, call *domain.Call) error {
	if !call.Outcome.Valid() {
		return fmt.Errorf("%w: call outcome %q", domain.ErrInvalidEnum, call.Outcome)
	}
	if call.ContactID == 0 {
		return fmt.Errorf("%w: contact is required", domain.ErrValidation)
	}
	at := call.CallAt
	if at.IsZero() {
		at = r.now()
	}

	m := &DBCall{
		ContactID:   call.ContactID,
		CallAt:      at.UTC().Truncate(time.Second),
		Outcome:     string(call.Outcome),
		Description: strings.TrimSpace(call.Description),
		CreatedBy:   call.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateError(err, nil)
	}
	call.ID = m.ID
	call.CallAt = m.CallAt
	call.Description = m.Description
	call.CreatedAt = m.CreatedAt
	return nil
}

// List implements domain.CallRepository. Calls are scoped through the owner
// of their contact.
func (r *CallRepositoryImpl) List(ctx context.Context, caller domain.Identity, filter domain.CallFilter) ([]domain.CallRow, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	b := query.New().
		Add(scope.Contacts("c")).
		Text(filter.Name, "c.full_name", "co.name").
		Add(query.In("cl.outcome", filter.Outcomes)).
		Add(query.Range("cl.call_at", filter.Period.From, filter.Period.To)).
		Eq("cl.contact_id", filter.ContactID).
		Add(query.In("c.owner_id", filter.OwnerIDs))

	tx := r.db.WithContext(ctx).
		Table("calls AS cl").
		Select("cl.*, c.full_name AS contact_name, co.name AS company_name").
		Joins("JOIN contacts c ON c.id = cl.contact_id").
		Joins("LEFT JOIN companies co ON co.id = c.company_id")
	tx = paginate(b.Apply(tx), filter.Page).Order("cl.call_at DESC, cl.id DESC")

	var rows []callRow
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.CallRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CallRow{
			Call: domain.Call{
				ID:          row.ID,
				ContactID:   row.ContactID,
				CallAt:      row.CallAt.UTC(),
				Outcome:     domain.CallOutcome(row.Outcome),
				Description: row.Description,
				CreatedAt:   row.CreatedAt,
				CreatedBy:   row.CreatedBy,
			},
			ContactName: row.ContactName.String,
			CompanyName: row.CompanyName.String,
		})
	}
	return out, nil
}

// ForContact implements domain.CallRepository, newest first
func (r *CallRepositoryImpl) ForContact(ctx context.Context, contactID uint) ([]domain.Call, error) {
	var rows []DBCall
	err := r.db.WithContext(ctx).
		Where("contact_id = ?", contactID).
		Order("call_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.Call, 0, len(rows))
	for i := range rows {
		out = append(out, callToDomain(&rows[i]))
	}
	return out, nil
}
