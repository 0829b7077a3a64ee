package secret

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
	closed  bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	return s.values[ref], nil
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

func TestParseSecretRef(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		ref      string
		ok       bool
	}{
		{in: "secretref:vault:idp/audience", provider: "vault", ref: "idp/audience", ok: true},
		{in: "secretref:file:/run/secrets/a:b", provider: "file", ref: "/run/secrets/a:b", ok: true},
		{in: "secretref:vault:"},
		{in: "secretref::x"},
		{in: "plain"},
	}
	for _, tt := range tests {
		p, r, ok := ParseSecretRef(tt.in)
		if ok != tt.ok || p != tt.provider || r != tt.ref {
			t.Errorf("ParseSecretRef(%q) = %q %q %v", tt.in, p, r, ok)
		}
	}
}

func TestResolver_ResolveValue(t *testing.T) {
	t.Setenv("AUDIENCE", "orders")
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"upstream": "idp.svc:8443"}})

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "${AUDIENCE}", want: "orders"},
		{in: "secretref:stub:upstream", want: "idp.svc:8443"},
		{in: "upstream=secretref:stub:upstream", want: "upstream=idp.svc:8443"},
	}
	for _, tt := range tests {
		got, err := r.ResolveValue(context.Background(), tt.in)
		if err != nil {
			t.Fatalf("ResolveValue(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ResolveValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_Errors(t *testing.T) {
	boom := errors.New("backend unavailable")
	r := NewResolver(true,
		&stubProvider{name: "empty"},
		&stubProvider{name: "failing", resolve: func(string) (string, error) { return "", boom }},
	)

	tests := []struct {
		name string
		in   string
	}{
		{name: "unregistered", in: "secretref:vault:x"},
		{name: "strict empty", in: "secretref:empty:x"},
		{name: "provider error", in: "secretref:failing:x"},
		{name: "missing env", in: "${CREDGATE_TEST_UNSET_VAR}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.ResolveValue(context.Background(), tt.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	if _, err := r.ResolveValue(context.Background(), "secretref:failing:x"); !errors.Is(err, boom) {
		t.Errorf("provider error not propagated: %v", err)
	}
}

func TestResolver_NonStrictAllowsEmpty(t *testing.T) {
	r := NewResolver(false, &stubProvider{name: "empty"})
	got, err := r.ResolveValue(context.Background(), "secretref:empty:x")
	if err != nil || got != "" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_NilOnlyExpandsEnv(t *testing.T) {
	t.Setenv("X", "y")
	var r *Resolver
	got, err := r.ResolveValue(context.Background(), "${X}-secretref:a:b")
	if err != nil || got != "y-secretref:a:b" {
		t.Fatalf("ResolveValue() = %q, %v", got, err)
	}
}

func TestResolver_ResolveFields(t *testing.T) {
	t.Setenv("IDP_HOST", "idp.example.com")
	r := NewResolver(true, EnvProvider{})

	authority := "secretref:env:IDP_HOST"
	audience := ""
	path := "/oauth/token"
	err := r.ResolveFields(context.Background(), map[string]*string{
		"idp_authority": &authority,
		"idp_audience":  &audience,
		"idp_path":      &path,
	})
	if err != nil {
		t.Fatalf("ResolveFields() error = %v", err)
	}
	if authority != "idp.example.com" || audience != "" || path != "/oauth/token" {
		t.Errorf("fields = %q %q %q", authority, audience, path)
	}

	bad := "secretref:env:CREDGATE_TEST_UNSET_VAR"
	err = r.ResolveFields(context.Background(), map[string]*string{"idp_upstream": &bad})
	if err == nil || !strings.Contains(err.Error(), "idp_upstream") {
		t.Fatalf("error = %v, want field name", err)
	}
}

func TestResolver_Close(t *testing.T) {
	p := &stubProvider{name: "stub"}
	if err := NewResolver(true, p).Close(); err != nil {
		t.Fatal(err)
	}
	if !p.closed {
		t.Error("provider not closed")
	}
}
