package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/access"
	"github.com/fardapack/fardapack-crm/internal/aggregate"
	"github.com/fardapack/fardapack-crm/internal/query"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements domain.ContactRepository using GORM
type ContactRepositoryImpl struct {
	db *gorm.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) domain.ContactRepository {
	return &ContactRepositoryImpl{db: db}
}

// contactRow is one scanned row of the contact list query
type contactRow struct {
	ID            uint
	FirstName     string
	LastName      string
	FullName      string
	Phone         sql.NullString
	Role          string
	CompanyID     *uint
	Note          string
	Status        string
	Domain        string
	Province      string
	Level         string
	OwnerID       *uint
	CreatedAt     time.Time
	CreatedBy     *uint
	CompanyName   sql.NullString
	OwnerUsername sql.NullString
	aggregate.Raw `gorm:"embedded"`
}

func (row *contactRow) toSummary() (domain.ContactSummary, error) {
	agg, err := row.Raw.Decode()
	if err != nil {
		return domain.ContactSummary{}, err
	}
	return domain.ContactSummary{
		Contact: domain.Contact{
			ID:        row.ID,
			FirstName: row.FirstName,
			LastName:  row.LastName,
			FullName:  row.FullName,
			Phone:     row.Phone.String,
			Role:      row.Role,
			CompanyID: row.CompanyID,
			Note:      row.Note,
			Status:    domain.ContactStatus(row.Status),
			Domain:    row.Domain,
			Province:  row.Province,
			Level:     domain.Level(row.Level),
			OwnerID:   row.OwnerID,
			CreatedAt: row.CreatedAt,
			CreatedBy: row.CreatedBy,
		},
		CompanyName:       row.CompanyName.String,
		OwnerUsername:     row.OwnerUsername.String,
		ContactAggregates: agg,
	}, nil
}

// Create implements domain.ContactRepository. The phone check, the
// resolution of NewCompany and the insert share one transaction, so a
// rejected contact leaves no company behind.
func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *domain.Contact) error {
	applyContactDefaults(contact)
	m := contactToDB(contact)
	if m.FullName == "" {
		return fmt.Errorf("%w: first or last name is required", domain.ErrValidation)
	}
	if !contact.Status.Valid() || !contact.Level.Valid() {
		return domain.ErrInvalidEnum
	}
	newCompany := strings.TrimSpace(contact.NewCompany)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.Phone != nil {
			taken, err := phoneTaken(tx, *m.Phone, 0)
			if err != nil {
				return err
			}
			if taken {
				return domain.ErrDuplicatePhone
			}
		}
		if m.CompanyID == nil && newCompany != "" {
			id, err := getOrCreateCompany(tx, newCompany, m.CreatedBy)
			if err != nil {
				return err
			}
			m.CompanyID = &id
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return translateError(err, domain.ErrDuplicatePhone)
	}

	contact.ID = m.ID
	contact.CompanyID = m.CompanyID
	contact.FullName = m.FullName
	contact.Phone = derefString(m.Phone)
	contact.CreatedAt = m.CreatedAt
	return nil
}

// Update implements domain.ContactRepository. Only the fields present in the
// patch are written; an empty patch on an existing contact is a no-op.
func (r *ContactRepositoryImpl) Update(ctx context.Context, id uint, patch domain.ContactPatch) error {
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.ErrInvalidEnum
	}
	if patch.Level != nil && !patch.Level.Valid() {
		return domain.ErrInvalidEnum
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current DBContact
		if err := tx.Where("id = ?", id).First(&current).Error; err != nil {
			return err
		}

		updates, err := contactUpdates(tx, &current, patch)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&DBContact{}).Where("id = ?", id).Updates(updates).Error
	})
	return translateError(err, domain.ErrDuplicatePhone)
}

// contactUpdates builds the column map of a patch against the current row
func contactUpdates(tx *gorm.DB, current *DBContact, patch domain.ContactPatch) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	first, last := current.FirstName, current.LastName
	if patch.FirstName != nil {
		first = strings.TrimSpace(*patch.FirstName)
		updates["first_name"] = first
	}
	if patch.LastName != nil {
		last = strings.TrimSpace(*patch.LastName)
		updates["last_name"] = last
	}
	if patch.FirstName != nil || patch.LastName != nil {
		full := domain.FullNameOf(first, last)
		if full == "" {
			return nil, fmt.Errorf("%w: first or last name is required", domain.ErrValidation)
		}
		updates["full_name"] = full
	}

	if patch.Phone != nil {
		phone := nullablePhone(*patch.Phone)
		if phone == nil {
			updates["phone"] = nil
		} else {
			taken, err := phoneTaken(tx, *phone, current.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, domain.ErrDuplicatePhone
			}
			updates["phone"] = *phone
		}
	}

	if patch.Role != nil {
		updates["role"] = strings.TrimSpace(*patch.Role)
	}
	if patch.Note != nil {
		updates["note"] = strings.TrimSpace(*patch.Note)
	}
	if patch.Domain != nil {
		updates["domain"] = strings.TrimSpace(*patch.Domain)
	}
	if patch.Province != nil {
		updates["province"] = strings.TrimSpace(*patch.Province)
	}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.Level != nil {
		updates["level"] = string(*patch.Level)
	}

	switch {
	case patch.ClearCompany:
		updates["company_id"] = nil
	case patch.CompanyID != nil:
		updates["company_id"] = *patch.CompanyID
	}
	switch {
	case patch.ClearOwner:
		updates["owner_id"] = nil
	case patch.OwnerID != nil:
		updates["owner_id"] = *patch.OwnerID
	}

	return updates, nil
}

// FindByID implements domain.ContactRepository
func (r *ContactRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Contact, error) {
	var m DBContact
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return contactToDomain(&m), nil
}

// PhoneExists implements domain.ContactRepository. ignoreID excludes one
// contact from the check, zero excludes none.
func (r *ContactRepositoryImpl) PhoneExists(ctx context.Context, phone string, ignoreID uint) (bool, error) {
	p := nullablePhone(phone)
	if p == nil {
		return false, nil
	}
	taken, err := phoneTaken(r.db.WithContext(ctx), *p, ignoreID)
	if err != nil {
		return false, translateError(err, nil)
	}
	return taken, nil
}

func phoneTaken(db *gorm.DB, phone string, ignoreID uint) (bool, error) {
	tx := db.Model(&DBContact{}).Where("phone = ?", phone)
	if ignoreID != 0 {
		tx = tx.Where("id <> ?", ignoreID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// summaryQuery selects contacts joined with their company, owner and
// aggregates. Conditions are added by the caller.
func (r *ContactRepositoryImpl) summaryQuery(ctx context.Context) *gorm.DB {
	cols := aggregate.Columns("c")
	return r.db.WithContext(ctx).
		Table("contacts AS c").
		Select("c.*, co.name AS company_name, a.username AS owner_username, "+cols.SQL, cols.Args...).
		Joins("LEFT JOIN companies co ON co.id = c.company_id").
		Joins("LEFT JOIN accounts a ON a.id = c.owner_id")
}

// Summary implements domain.ContactRepository. A contact outside the
// caller's scope is reported as not found.
func (r *ContactRepositoryImpl) Summary(ctx context.Context, caller domain.Identity, id uint) (*domain.ContactSummary, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	b := query.New().Add(scope.Contacts("c")).Eq("c.id", &id)
	var rows []contactRow
	if err := b.Apply(r.summaryQuery(ctx)).Limit(1).Scan(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}

	s, err := rows[0].toSummary()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List implements domain.ContactRepository
func (r *ContactRepositoryImpl) List(ctx context.Context, caller domain.Identity, filter domain.ContactFilter) ([]domain.ContactSummary, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	b := query.New().
		Add(scope.Contacts("c")).
		Text(filter.FirstName, "c.first_name").
		Text(filter.LastName, "c.last_name").
		Text(filter.Name, "c.full_name", "co.name").
		Add(query.In("c.status", filter.Statuses)).
		Add(query.In("c.level", filter.Levels)).
		Add(query.Range("c.created_at", filter.Created.From, filter.Created.To)).
		Add(query.In("c.owner_id", filter.OwnerIDs)).
		Eq("c.company_id", filter.CompanyID).
		Add(aggregate.HasOpenFollowup("c", filter.HasOpenFollowup)).
		Add(aggregate.LastCallBetween("c", filter.LastCall))

	var rows []contactRow
	tx := paginate(b.Apply(r.summaryQuery(ctx)), filter.Page).Order("c.created_at DESC, c.id DESC")
	if err := tx.Scan(&rows).Error; err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.ContactSummary, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toSummary()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// ListRefs implements domain.ContactRepository
func (r *ContactRepositoryImpl) ListRefs(ctx context.Context, caller domain.Identity) ([]domain.ContactRef, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	var refs []domain.ContactRef
	tx := query.New().Add(scope.Contacts("c")).Apply(r.db.WithContext(ctx).Table("contacts AS c"))
	err = tx.Select("c.id, c.full_name, c.company_id").Order("c.full_name ASC, c.id ASC").Scan(&refs).Error
	if err != nil {
		return nil, translateError(err, nil)
	}
	return refs, nil
}

// Coworkers implements domain.ContactRepository. Only coworkers inside the
// caller's scope are returned.
func (r *ContactRepositoryImpl) Coworkers(ctx context.Context, caller domain.Identity, companyID, excludeID uint) ([]domain.Coworker, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}

	var rows []DBContact
	tx := query.New().Add(scope.Contacts("c")).Apply(r.db.WithContext(ctx).Table("contacts AS c"))
	err = tx.Where("c.company_id = ? AND c.id <> ?", companyID, excludeID).
		Order("c.last_name ASC, c.first_name ASC, c.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, nil)
	}

	out := make([]domain.Coworker, 0, len(rows))
	for _, m := range rows {
		out = append(out, domain.Coworker{
			ID:        m.ID,
			FirstName: m.FirstName,
			LastName:  m.LastName,
			Phone:     derefString(m.Phone),
			Role:      m.Role,
		})
	}
	return out, nil
}

// ScopedIDs implements domain.ContactRepository. It keeps the ids of ids
// that exist and are visible to caller.
func (r *ContactRepositoryImpl) ScopedIDs(ctx context.Context, caller domain.Identity, ids []uint) ([]uint, error) {
	scope, err := access.For(caller)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out []uint
	tx := query.New().
		Add(scope.Contacts("c")).
		Add(query.In("c.id", uniqueIDs(ids))).
		Apply(r.db.WithContext(ctx).Table("contacts AS c"))
	if err := tx.Order("c.id").Pluck("c.id", &out).Error; err != nil {
		return nil, translateError(err, nil)
	}
	return out, nil
}

// ReassignOwner implements domain.ContactRepository. All rows change in one
// statement inside one transaction. Contacts already owned by newOwnerID are
// not counted.
func (r *ContactRepositoryImpl) ReassignOwner(ctx context.Context, ids []uint, newOwnerID uint) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&DBContact{}).
			Where("id IN ?", ids).
			Where("(owner_id IS NULL OR owner_id <> ?)", newOwnerID).
			Update("owner_id", newOwnerID)
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, translateError(err, nil)
	}
	return changed, nil
}

// Delete implements domain.ContactRepository. Calls and followups of the
// contact are removed by the schema.
func (r *ContactRepositoryImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&DBContact{}, id)
	if res.Error != nil {
		return translateError(res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func applyContactDefaults(c *domain.Contact) {
	if c.Status == "" {
		c.Status = domain.ContactNoStatus
	}
	if c.Level == "" {
		c.Level = domain.LevelNone
	}
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
