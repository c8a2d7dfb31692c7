package domain

import "context"

// Incident is a classified failure recorded by the journal.
type Incident struct {
	BaseModel
	RequestID   string               `gorm:"size:64;index" json:"request_id"`
	Method      string               `gorm:"size:16" json:"method"`
	Path        string               `gorm:"size:512" json:"path"`
	Status      int                  `gorm:"index" json:"status"`
	Title       string               `gorm:"size:255;not null" json:"title"`
	Message     string               `gorm:"size:2048" json:"message"`
	Timestamp   string               `gorm:"size:32" json:"timestamp"`
	Route       string               `gorm:"size:512" json:"route"`
	FieldErrors []IncidentFieldError `gorm:"constraint:OnDelete:CASCADE" json:"field_errors"`
}

// IncidentFieldError is one field error attached to a validation incident.
type IncidentFieldError struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	IncidentID uint   `gorm:"index;not null" json:"-"`
	Position   int    `json:"-"`
	Field      string `gorm:"size:255" json:"field"`
	Message    string `gorm:"size:2048" json:"message"`
}

// IncidentRepository defines the data access interface for incidents.
type IncidentRepository interface {
	Create(ctx context.Context, incident *Incident) error
	GetByID(ctx context.Context, id uint) (*Incident, error)
	List(ctx context.Context, req PageRequest) (*PageResult[Incident], error)
}
