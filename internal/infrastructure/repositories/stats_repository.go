package repositories

import (
	"context"
	"time"

	"github.com/fardapack/fardapack-crm/domain"
	"github.com/fardapack/fardapack-crm/internal/access"
	"github.com/fardapack/fardapack-crm/internal/query"
	"gorm.io/gorm"
)

// StatsRepositoryImpl implements domain.StatsRepository using GORM
type StatsRepositoryImpl struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) domain.StatsRepository {
	return &StatsRepositoryImpl{db: db}
}

// CountCalls implements domain.StatsRepository. A nil outcome counts every call.
func (r *StatsRepositoryImpl) CountCalls(ctx context.Context, caller domain.Identity, period domain.DateRange, outcome *domain.CallOutcome) (int64, error) {
	scope, err := access.For(caller)
	if err != nil {
		return 0, err
	}

	b := query.New().
		Add(scope.Contacts("c")).
		Add(query.Range("cl.call_at", period.From, period.To))
	if outcome != nil {
		b.Add(query.Predicate{SQL: "cl.outcome = ?", Args: []any{string(*outcome)}})
	}

	tx := r.db.WithContext(ctx).Table("calls AS cl").Joins("JOIN contacts c ON c.id = cl.contact_id")
	return r.count(b.Apply(tx))
}

// CountOverdueFollowups implements domain.StatsRepository. A followup is
// overdue when it is open and due before the day of today.
func (r *StatsRepositoryImpl) CountOverdueFollowups(ctx context.Context, caller domain.Identity, today time.Time) (int64, error) {
	scope, err := access.For(caller)
	if err != nil {
		return 0, err
	}

	b := query.New().
		Add(scope.Contacts("c")).
		Add(query.Predicate{SQL: "f.status = ?", Args: []any{string(domain.FollowupOpen)}}).
		Add(query.Predicate{SQL: "f.due_date < ?", Args: []any{query.StartOfDay(today)}})

	tx := r.db.WithContext(ctx).Table("followups AS f").Joins("JOIN contacts c ON c.id = f.contact_id")
	return r.count(b.Apply(tx))
}

// CountCompanies implements domain.StatsRepository
func (r *StatsRepositoryImpl) CountCompanies(ctx context.Context, caller domain.Identity) (int64, error) {
	scope, err := access.For(caller)
	if err != nil {
		return 0, err
	}
	tx := query.New().Add(scope.Companies("co")).Apply(r.db.WithContext(ctx).Table("companies AS co"))
	return r.count(tx)
}

// CountContacts implements domain.StatsRepository
func (r *StatsRepositoryImpl) CountContacts(ctx context.Context, caller domain.Identity) (int64, error) {
	scope, err := access.For(caller)
	if err != nil {
		return 0, err
	}
	tx := query.New().Add(scope.Contacts("c")).Apply(r.db.WithContext(ctx).Table("contacts AS c"))
	return r.count(tx)
}

func (r *StatsRepositoryImpl) count(tx *gorm.DB) (int64, error) {
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, translateError(err, nil)
	}
	return n, nil
}
