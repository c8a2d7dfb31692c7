// Package journal persists handled failures as incidents so they can be
// browsed after the fact.
package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/simp-lee/authportal/internal/domain"
	"github.com/simp-lee/authportal/internal/failure"
)

const defaultWriteTimeout = 5 * time.Second

// Service records incidents and reads them back.
type Service struct {
	repo    domain.IncidentRepository
	logger  *slog.Logger
	timeout time.Duration
}

// NewService creates a Service. A nil logger uses slog.Default.
func NewService(repo domain.IncidentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, timeout: defaultWriteTimeout}
}

// Record implements failure.Sink. The write outlives request cancellation
// but is bounded by a timeout; errors are logged, never returned.
func (s *Service) Record(ctx context.Context, rec failure.Record) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	incident := NewIncident(rec)
	if err := s.repo.Create(ctx, incident); err != nil {
		s.logger.ErrorContext(ctx, "failed to record incident",
			slog.String("title", incident.Title),
			slog.Any("error", err),
		)
		return
	}
	s.logger.DebugContext(ctx, "incident recorded", slog.Uint64("incident_id", uint64(incident.ID)))
}

// Get returns one incident with its field errors.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Incident, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of incidents.
func (s *Service) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Incident], error) {
	return s.repo.List(ctx, req)
}

// NewIncident flattens a handled failure into an Incident.
func NewIncident(rec failure.Record) *domain.Incident {
	std := rec.Model.StandardError
	incident := &domain.Incident{
		RequestID: rec.Request.RequestID,
		Method:    rec.Request.Method,
		Path:      rec.Request.Path,
		Status:    std.Status,
		Title:     std.Title,
		Message:   std.Message,
		Timestamp: std.Timestamp,
		Route:     std.Route,
	}
	for _, fe := range rec.Model.FieldErrors {
		incident.FieldErrors = append(incident.FieldErrors, domain.IncidentFieldError{
			Field:   fe.Field,
			Message: fe.Message,
		})
	}
	return incident
}
