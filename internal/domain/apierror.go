package domain

// StandardError is the generic error envelope returned by the backend
// (4xx/5xx) and the shape synthesized for client-side failures.
type StandardError struct {
	Status    int    `json:"status"`
	Title     string `json:"titulo"`
	Message   string `json:"mensagem"`
	Timestamp string `json:"dataHora"`
	Route     string `json:"rota"`
}

// FieldError is a single field validation failure.
type FieldError struct {
	Field   string `json:"campo"`
	Message string `json:"mensagem"`
}

// ValidationError is the HTTP 422 envelope.
type ValidationError struct {
	Error       StandardError `json:"erro"`
	FieldErrors []FieldError  `json:"erros"`
}

// ErrorDialogModel is what the error dialog renders. FieldErrors is empty
// for everything except validation failures.
type ErrorDialogModel struct {
	StandardError StandardError `json:"erroPadrao"`
	FieldErrors   []FieldError  `json:"listaErros"`
}

// IsValidation reports whether the model carries per-field errors.
func (m ErrorDialogModel) IsValidation() bool {
	return len(m.FieldErrors) > 0
}
