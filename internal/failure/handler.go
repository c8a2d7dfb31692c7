package failure

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/simp-lee/authportal/internal/domain"
)

// RequestInfo identifies the request during which a failure was caught.
type RequestInfo struct {
	RequestID string
	Method    string
	Path      string
}

// Record is what a Sink receives for each handled failure.
type Record struct {
	Failure any
	Model   domain.ErrorDialogModel
	Request RequestInfo
}

// Sink receives every handled failure. Implementations must not block for
// long; the dialog is rendered after all sinks return.
type Sink interface {
	Record(ctx context.Context, rec Record)
}

// Handler is the single application-wide failure handler. It classifies a
// failure, reports it to the configured sinks and returns the dialog model.
type Handler struct {
	classifier *Classifier
	sinks      []Sink
	logger     *slog.Logger
}

// NewHandler creates a Handler. A nil classifier gets the default one.
func NewHandler(classifier *Classifier, logger *slog.Logger, sinks ...Sink) *Handler {
	if classifier == nil {
		classifier = NewClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{classifier: classifier, sinks: sinks, logger: logger}
}

// Handle classifies failure and reports it. Sink failures, including panics,
// never change the returned model.
func (h *Handler) Handle(ctx context.Context, failure any, info RequestInfo) domain.ErrorDialogModel {
	model := h.classifier.Classify(failure)
	rec := Record{Failure: failure, Model: model, Request: info}
	for _, s := range h.sinks {
		h.report(ctx, s, rec)
	}
	return model
}

func (h *Handler) report(ctx context.Context, s Sink, rec Record) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "failure sink panicked", slog.Any("panic", r))
		}
	}()
	s.Record(ctx, rec)
}

// ResponseStatus is the HTTP status the dialog page is served with: the
// model status when it is a client or server error, 502 when the backend
// was unreachable, and 500 otherwise.
func ResponseStatus(model domain.ErrorDialogModel) int {
	s := model.StandardError.Status
	switch {
	case s >= 400 && s <= 599:
		return s
	case s == 0:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
