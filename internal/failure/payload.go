package failure

import (
	"bytes"
	"encoding/json"

	"github.com/simp-lee/authportal/internal/domain"
)

// Payload is the decoded body of a failed backend exchange. It is one of
// ValidationPayload, StandardPayload or RawPayload.
type Payload interface {
	isPayload()
}

// ValidationPayload is a 422-style envelope: a nested standard error plus a
// list of field errors.
type ValidationPayload struct {
	Envelope domain.ValidationError
}

// StandardPayload is a bare standard error envelope.
type StandardPayload struct {
	Error domain.StandardError
}

// RawPayload is any body that is not a recognised envelope, including an
// empty one.
type RawPayload struct {
	Body []byte
}

func (ValidationPayload) isPayload() {}
func (StandardPayload) isPayload()   {}
func (RawPayload) isPayload()        {}

// ParsePayload decides which envelope body holds. A body is a validation
// envelope when it has an "erro" object and an "erros" array; it is a
// standard envelope when it has a non-zero numeric "status" and a non-empty
// "titulo". Anything else, including envelopes that fail to decode, is raw.
func ParsePayload(body []byte) Payload {
	raw := RawPayload{Body: body}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return raw
	}

	if isJSONObject(fields["erro"]) && isJSONArray(fields["erros"]) {
		var env domain.ValidationError
		if err := json.Unmarshal(body, &env); err != nil {
			return raw
		}
		if env.FieldErrors == nil {
			env.FieldErrors = []domain.FieldError{}
		}
		return ValidationPayload{Envelope: env}
	}

	var probe struct {
		Status *float64 `json:"status"`
		Title  *string  `json:"titulo"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return raw
	}
	if probe.Status == nil || *probe.Status == 0 || probe.Title == nil || *probe.Title == "" {
		return raw
	}
	var std domain.StandardError
	if err := json.Unmarshal(body, &std); err != nil {
		return raw
	}
	return StandardPayload{Error: std}
}

func isJSONObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

func isJSONArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
