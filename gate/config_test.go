package gate

import (
	"errors"
	"testing"
	"time"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{IdPAuthority: "idp.example.com"}.WithDefaults()

	if cfg.ClientIDHeader != DefaultClientIDHeader {
		t.Errorf("ClientIDHeader = %q, want %q", cfg.ClientIDHeader, DefaultClientIDHeader)
	}
	if cfg.ClientSecretHeader != DefaultClientSecretHeader {
		t.Errorf("ClientSecretHeader = %q, want %q", cfg.ClientSecretHeader, DefaultClientSecretHeader)
	}
	if cfg.IdPUpstream != "idp.example.com" {
		t.Errorf("IdPUpstream = %q, want authority", cfg.IdPUpstream)
	}
	if cfg.IdPScheme != "https" || cfg.IdPPath != "/oauth/token" {
		t.Errorf("scheme/path = %q %q", cfg.IdPScheme, cfg.IdPPath)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("TimeoutSeconds = %d, want 10", cfg.TimeoutSeconds)
	}
	if cfg.PoweredBy != DefaultPoweredBy {
		t.Errorf("PoweredBy = %q", cfg.PoweredBy)
	}
	if cfg.ResponseMode != ResponseModeSubstring {
		t.Errorf("ResponseMode = %q", cfg.ResponseMode)
	}
}

func TestConfig_WithDefaultsKeepsExplicitValues(t *testing.T) {
	in := Config{
		ClientIDHeader:     "x-id",
		ClientSecretHeader: "x-secret",
		IdPAuthority:       "idp.example.com",
		IdPUpstream:        "idp.svc.cluster.local:8443",
		IdPScheme:          "http",
		IdPPath:            "/token",
		TimeoutSeconds:     3,
		PoweredBy:          "acme-gw",
		ResponseMode:       ResponseModeStrict,
	}
	if got := in.WithDefaults(); got != in {
		t.Errorf("WithDefaults() = %+v, want %+v", got, in)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "minimal", cfg: Config{IdPAuthority: "idp"}},
		{name: "missing authority", cfg: Config{}, wantErr: ErrMissingAuthority},
		{name: "blank authority", cfg: Config{IdPAuthority: "  "}, wantErr: ErrMissingAuthority},
		{name: "negative timeout", cfg: Config{IdPAuthority: "idp", TimeoutSeconds: -1}, wantErr: ErrInvalidTimeout},
		{name: "unknown mode", cfg: Config{IdPAuthority: "idp", ResponseMode: "json"}, wantErr: ErrInvalidResponseMode},
		{name: "strict mode", cfg: Config{IdPAuthority: "idp", ResponseMode: ResponseModeStrict}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateRelativePath(t *testing.T) {
	if err := (Config{IdPAuthority: "idp", IdPPath: "oauth/token"}).Validate(); err == nil {
		t.Fatal("expected error for relative path")
	}
}

func TestConfig_Timeout(t *testing.T) {
	if got := (Config{TimeoutSeconds: 2}).Timeout(); got != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", got)
	}
	if got := (Config{}).Timeout(); got != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", got)
	}
}
