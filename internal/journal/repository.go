package journal

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/pkg"
)

var (
	allowedSortFields   = []string{"id", "status", "created_at"}
	allowedFilterFields = []string{"status", "method", "path", "title", "request_id"}
)

type incidentRepository struct {
	db *gorm.DB
}

// NewRepository creates a domain.IncidentRepository backed by db.
func NewRepository(db *gorm.DB) domain.IncidentRepository {
	return &incidentRepository{db: db}
}

// Migrate creates or updates the journal tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Incident{}, &domain.IncidentFieldError{})
}

// Create stores the incident and its field errors in one transaction,
// numbering field errors in their given order.
func (r *incidentRepository) Create(ctx context.Context, incident *domain.Incident) error {
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit("FieldErrors").Create(incident).Error; err != nil {
			return err
		}
		if len(incident.FieldErrors) == 0 {
			return nil
		}
		for i := range incident.FieldErrors {
			incident.FieldErrors[i].IncidentID = incident.ID
			incident.FieldErrors[i].Position = i
		}
		return tx.Create(&incident.FieldErrors).Error
	})
	return mapError(err)
}

func (r *incidentRepository) GetByID(ctx context.Context, id uint) (*domain.Incident, error) {
	var incident domain.Incident
	if err := r.db.WithContext(ctx).Preload("FieldErrors", orderByPosition).First(&incident, id).Error; err != nil {
		return nil, mapError(err)
	}
	return &incident, nil
}

// List returns a page of incidents with their field errors.
func (r *incidentRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Incident], error) {
	base := r.db.WithContext(ctx).Model(&domain.Incident{}).
		Scopes(pkg.Filter(req, allowedFilterFields))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, mapError(err)
	}

	var incidents []domain.Incident
	if err := base.Scopes(
		pkg.Paginate(req),
		pkg.Sort(req, allowedSortFields),
	).Preload("FieldErrors", orderByPosition).Find(&incidents).Error; err != nil {
		return nil, mapError(err)
	}

	return pkg.NewPageResult(incidents, total, req), nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return domain.NewAppError(domain.CodeInternal, "journal database error", err)
}
