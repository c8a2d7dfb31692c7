package failure

import (
	"testing"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"validation", `{"erro":{"status":422,"titulo":"Invalid"},"erros":[]}`, "validation"},
		{"standard", `{"status":404,"titulo":"Not found","mensagem":"x"}`, "standard"},
		{"empty body", ``, "raw"},
		{"html", `<html>oops</html>`, "raw"},
		{"array", `[1,2]`, "raw"},
		{"erros not array", `{"erro":{"status":422},"erros":{}}`, "raw"},
		{"erro null", `{"erro":null,"erros":[]}`, "raw"},
		{"zero status", `{"status":0,"titulo":"t"}`, "raw"},
		{"missing titulo", `{"status":500}`, "raw"},
		{"empty titulo", `{"status":500,"titulo":""}`, "raw"},
		{"string status", `{"status":"500","titulo":"t"}`, "raw"},
		{"bad field error", `{"erro":{"status":422,"titulo":"t"},"erros":[{"campo":1}]}`, "raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			switch ParsePayload([]byte(tt.body)).(type) {
			case ValidationPayload:
				got = "validation"
			case StandardPayload:
				got = "standard"
			case RawPayload:
				got = "raw"
			}
			if got != tt.want {
				t.Errorf("ParsePayload(%q) = %s, want %s", tt.body, got, tt.want)
			}
		})
	}
}

func TestParsePayload_ValidationEnvelope(t *testing.T) {
	body := `{"erro":{"status":422,"titulo":"Invalid data","mensagem":"check","dataHora":"01/02/2025 10:00","rota":"/autenticacao/cadastro"},
		"erros":[{"campo":"senha","mensagem":"too short"}]}`

	p, ok := ParsePayload([]byte(body)).(ValidationPayload)
	if !ok {
		t.Fatalf("expected ValidationPayload")
	}
	env := p.Envelope
	if env.Error.Status != 422 || env.Error.Title != "Invalid data" || env.Error.Route != "/autenticacao/cadastro" {
		t.Errorf("unexpected nested error: %+v", env.Error)
	}
	if len(env.FieldErrors) != 1 || env.FieldErrors[0].Field != "senha" {
		t.Errorf("unexpected field errors: %+v", env.FieldErrors)
	}
}
