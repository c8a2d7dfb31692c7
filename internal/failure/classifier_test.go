package failure

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/simp-lee/authportal/internal/apiclient"
	"github.com/simp-lee/authportal/internal/domain"
)

// fixedNow is 2025-03-04 13:05 UTC, i.e. 10:05 in São Paulo.
var fixedNow = time.Date(2025, 3, 4, 13, 5, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return NewClassifier(
		WithClock(func() time.Time { return fixedNow }),
		WithLocation(time.FixedZone("BRT", -3*60*60)),
	)
}

func httpErr(status int, body string) error {
	return &apiclient.HTTPError{Status: status, URL: "http://backend.test/api/autenticacao/login", Body: []byte(body)}
}

func TestClassify_ValidationEnvelope_SortsFieldErrors(t *testing.T) {
	body := `{"erro":{"status":422,"titulo":"Invalid data","mensagem":"check the fields","dataHora":"04/03/2025 10:00","rota":"/autenticacao/cadastro"},
		"erros":[{"campo":"b","mensagem":"m1"},{"campo":"a","mensagem":"m2"}]}`

	got := newTestClassifier().Classify(httpErr(422, body))

	want := domain.StandardError{Status: 422, Title: "Invalid data", Message: "check the fields", Timestamp: "04/03/2025 10:00", Route: "/autenticacao/cadastro"}
	if got.StandardError != want {
		t.Errorf("standard error = %+v, want %+v", got.StandardError, want)
	}
	if len(got.FieldErrors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(got.FieldErrors))
	}
	if got.FieldErrors[0] != (domain.FieldError{Field: "a", Message: "m2"}) ||
		got.FieldErrors[1] != (domain.FieldError{Field: "b", Message: "m1"}) {
		t.Errorf("field errors not sorted: %+v", got.FieldErrors)
	}
}

func TestClassify_SortIsCollatedAndDeterministic(t *testing.T) {
	body := `{"erro":{"status":422,"titulo":"t"},"erros":[
		{"campo":"senha","mensagem":"1"},{"campo":"Email","mensagem":"2"},{"campo":"ônibus","mensagem":"3"},{"campo":"email","mensagem":"4"},{"campo":"nome","mensagem":"5"}]}`

	c := newTestClassifier()
	first := c.Classify(httpErr(422, body)).FieldErrors
	for i := 0; i < 5; i++ {
		again := c.Classify(httpErr(422, body)).FieldErrors
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: order changed at %d: %+v vs %+v", i, j, first, again)
			}
		}
	}

	var fields []string
	for _, fe := range first {
		fields = append(fields, fe.Field)
	}
	// Accented names sort next to their base letter, not after 'z'.
	if got := fmt.Sprint(fields); got != "[email Email nome ônibus senha]" {
		t.Errorf("unexpected order: %s", got)
	}
}

func TestClassify_ValidationEnvelope_DoesNotMutatePayloadOrder(t *testing.T) {
	in := []domain.FieldError{{Field: "b"}, {Field: "a"}}
	out := newTestClassifier().sortFieldErrors(in)
	if in[0].Field != "b" || out[0].Field != "a" {
		t.Errorf("input should stay untouched: in=%v out=%v", in, out)
	}
}

func TestClassify_StandardEnvelope_ReturnedAsIs(t *testing.T) {
	body := `{"status":404,"titulo":"Not Found","mensagem":"no such user","dataHora":"01/01/2025 00:00","rota":"/ola"}`

	got := newTestClassifier().Classify(httpErr(404, body))

	want := domain.StandardError{Status: 404, Title: "Not Found", Message: "no such user", Timestamp: "01/01/2025 00:00", Route: "/ola"}
	if got.StandardError != want {
		t.Errorf("got %+v, want %+v", got.StandardError, want)
	}
	if got.FieldErrors == nil || len(got.FieldErrors) != 0 {
		t.Errorf("expected empty non-nil field errors, got %#v", got.FieldErrors)
	}
}

func TestClassify_HTTPWithoutEnvelope(t *testing.T) {
	got := newTestClassifier().Classify(httpErr(503, "<html>down</html>"))

	std := got.StandardError
	if std.Title != TitleCommunication {
		t.Errorf("title = %q", std.Title)
	}
	if std.Message != "An error occurred while accessing the server (Status: 503)." {
		t.Errorf("message = %q", std.Message)
	}
	if std.Status != 503 {
		t.Errorf("status = %d", std.Status)
	}
	if std.Route != "http://backend.test/api/autenticacao/login" {
		t.Errorf("route = %q", std.Route)
	}
	if std.Timestamp != "04/03/2025 10:05" {
		t.Errorf("timestamp = %q", std.Timestamp)
	}
}

func TestClassify_StatusZero_NoConnectionMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", &apiclient.HTTPError{Status: 0, URL: "http://backend.test/api/autenticacao/login", Err: errors.New("dial tcp: refused")})

	got := newTestClassifier().Classify(err)

	if got.StandardError.Message != MessageNoConnection {
		t.Errorf("message = %q", got.StandardError.Message)
	}
	if got.StandardError.Status != 0 || got.StandardError.Title != TitleCommunication {
		t.Errorf("unexpected model: %+v", got.StandardError)
	}
}

func TestClassify_HTTPErrorWithoutURL_UnknownRoute(t *testing.T) {
	got := newTestClassifier().Classify(&apiclient.HTTPError{Status: 500})
	if got.StandardError.Route != RouteUnknown {
		t.Errorf("route = %q", got.StandardError.Route)
	}
}

func TestClassify_GenericError(t *testing.T) {
	got := newTestClassifier().Classify(errors.New("template exploded"))

	want := domain.StandardError{
		Status:    http.StatusInternalServerError,
		Title:     TitleApplication,
		Message:   "template exploded",
		Timestamp: "04/03/2025 10:05",
		Route:     RouteUnknown,
	}
	if got.StandardError != want {
		t.Errorf("got %+v, want %+v", got.StandardError, want)
	}
}

func TestClassify_NonError(t *testing.T) {
	for _, v := range []any{nil, "boom", 42, struct{}{}} {
		got := newTestClassifier().Classify(v)
		if got.StandardError.Title != TitleUnexpected || got.StandardError.Message != MessageUnexpected {
			t.Errorf("Classify(%v) = %+v", v, got.StandardError)
		}
		if got.StandardError.Status != 500 || got.StandardError.Route != RouteUnknown {
			t.Errorf("Classify(%v) = %+v", v, got.StandardError)
		}
	}
}

func TestNewClassifier_DefaultsToSaoPaulo(t *testing.T) {
	c := NewClassifier(WithClock(func() time.Time { return fixedNow }))
	got := c.Classify(errors.New("x")).StandardError.Timestamp
	if got != "04/03/2025 10:05" {
		t.Errorf("timestamp = %q, want São Paulo local time", got)
	}
}
