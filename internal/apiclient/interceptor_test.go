package apiclient

import "testing"

func TestPrefixAPI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/ola", "/api/ola"},
		{"/autenticacao/cadastro", "/api/autenticacao/cadastro"},
		{"/", "/api/"},
		{"/a?b=c", "/api/a?b=c"},
		{"https://example.com/ola", "https://example.com/ola"},
		{"http://localhost:8080/x", "http://localhost:8080/x"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := PrefixAPI(tt.in); got != tt.want {
				t.Errorf("PrefixAPI(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewPrefixInterceptor(t *testing.T) {
	ic := NewPrefixInterceptor("/backend/")
	if got := ic("/ola"); got != "/backend/ola" {
		t.Errorf("interceptor(/ola) = %q; want %q", got, "/backend/ola")
	}
	if got := ic("https://example.com/ola"); got != "https://example.com/ola" {
		t.Errorf("absolute url was rewritten to %q", got)
	}
}

func TestNewPrefixInterceptor_MatchesPrefixAPI(t *testing.T) {
	ic := NewPrefixInterceptor(DefaultAPIPrefix)
	for _, target := range []string{"/ola", "/autenticacao/login", "https://x.test/y", "z"} {
		if got, want := ic(target), PrefixAPI(target); got != want {
			t.Errorf("interceptor(%q) = %q; PrefixAPI = %q", target, got, want)
		}
	}
}
