// Package failure turns any caught failure into the model rendered by the
// error dialog, and hosts the single application-wide failure handler.
package failure

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/simp-lee/authportal/internal/apiclient"
	"github.com/simp-lee/authportal/internal/domain"
)

// Titles and messages of synthesized errors.
const (
	TitleCommunication = "Communication Error"
	TitleApplication   = "Application Error"
	TitleUnexpected    = "Unexpected Error"

	MessageNoConnection = "could not connect to server, check your network"
	MessageUnexpected   = "An unexpected error occurred in the application."

	RouteUnknown = "Unknown"

	// TimestampLayout renders as dd/MM/yyyy HH:mm.
	TimestampLayout = "02/01/2006 15:04"

	// DefaultTimezone is the zone synthetic timestamps are stamped in.
	DefaultTimezone = "America/Sao_Paulo"
)

// Classifier maps caught failures to domain.ErrorDialogModel values.
type Classifier struct {
	now  func() time.Time
	loc  *time.Location
	lang language.Tag
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the zone synthetic timestamps are rendered in.
func WithLocation(loc *time.Location) ClassifierOption {
	return func(c *Classifier) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithCollation sets the language whose collation orders field errors.
func WithCollation(tag language.Tag) ClassifierOption {
	return func(c *Classifier) {
		c.lang = tag
	}
}

// NewClassifier creates a Classifier stamping timestamps in DefaultTimezone
// unless WithLocation says otherwise.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		now:  time.Now,
		loc:  defaultLocation(),
		lang: language.BrazilianPortuguese,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// defaultLocation falls back to a fixed UTC-3 zone when the tz database is
// unavailable.
func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Classify maps failure to a dialog model:
//   - backend validation envelope: nested error, field errors sorted by field;
//   - backend standard envelope: returned as is;
//   - other HTTP failures: synthetic communication error;
//   - other errors: synthetic application error;
//   - anything else: synthetic unexpected error.
func (c *Classifier) Classify(failure any) domain.ErrorDialogModel {
	err, ok := failure.(error)
	if !ok || err == nil {
		return c.synthetic(TitleUnexpected, MessageUnexpected, RouteUnknown, http.StatusInternalServerError)
	}

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		return c.classifyHTTP(httpErr)
	}
	return c.synthetic(TitleApplication, err.Error(), RouteUnknown, http.StatusInternalServerError)
}

func (c *Classifier) classifyHTTP(e *apiclient.HTTPError) domain.ErrorDialogModel {
	switch p := ParsePayload(e.Body).(type) {
	case ValidationPayload:
		return domain.ErrorDialogModel{
			StandardError: p.Envelope.Error,
			FieldErrors:   c.sortFieldErrors(p.Envelope.FieldErrors),
		}
	case StandardPayload:
		return domain.ErrorDialogModel{
			StandardError: p.Error,
			FieldErrors:   []domain.FieldError{},
		}
	default:
		route := e.URL
		if route == "" {
			route = RouteUnknown
		}
		message := fmt.Sprintf("An error occurred while accessing the server (Status: %d).", e.Status)
		if e.Status == 0 {
			message = MessageNoConnection
		}
		return c.synthetic(TitleCommunication, message, route, e.Status)
	}
}

// sortFieldErrors returns a sorted copy ordered by field name using the
// configured collation, falling back to byte order on ties.
func (c *Classifier) sortFieldErrors(in []domain.FieldError) []domain.FieldError {
	out := slices.Clone(in)
	if out == nil {
		return []domain.FieldError{}
	}
	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(c.lang)
	slices.SortStableFunc(out, func(a, b domain.FieldError) int {
		if r := col.CompareString(a.Field, b.Field); r != 0 {
			return r
		}
		return strings.Compare(a.Field, b.Field)
	})
	return out
}

func (c *Classifier) synthetic(title, message, route string, status int) domain.ErrorDialogModel {
	return domain.ErrorDialogModel{
		StandardError: domain.StandardError{
			Status:    status,
			Title:     title,
			Message:   message,
			Timestamp: c.now().In(c.loc).Format(TimestampLayout),
			Route:     route,
		},
		FieldErrors: []domain.FieldError{},
	}
}
