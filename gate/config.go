package gate

import (
	"fmt"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultClientIDHeader     = "client_id"
	DefaultClientSecretHeader = "client_secret"
	DefaultIdPScheme          = "https"
	DefaultIdPPath            = "/oauth/token"
	DefaultTimeoutSeconds     = 10
	DefaultPoweredBy          = "credgate"
)

// Response modes understood by NewFilter.
const (
	ResponseModeSubstring = "substring"
	ResponseModeStrict    = "strict"
)

// Config is the process-wide gate configuration.
//
// A Config is validated once by NewFilter and then copied by value into every
// Context, so it must only hold value fields.
type Config struct {
	// Header is a credential header alias. It is accepted and kept so that
	// existing configurations continue to load, but extraction uses
	// ClientIDHeader and ClientSecretHeader.
	Header string `json:"header,omitempty"`

	// ClientIDHeader is the request header carrying the client identifier.
	// Default: "client_id"
	ClientIDHeader string `json:"client_id_header,omitempty"`

	// ClientSecretHeader is the request header carrying the client secret.
	// Default: "client_secret"
	ClientSecretHeader string `json:"client_secret_header,omitempty"`

	// IdPAuthority is the :authority (Host) of the identity provider.
	IdPAuthority string `json:"idp_authority"`

	// IdPUpstream is the address the exchange is sent to when it differs
	// from the authority, e.g. a cluster-local service name.
	// Default: IdPAuthority
	IdPUpstream string `json:"idp_upstream,omitempty"`

	// IdPScheme is the URL scheme used to reach IdPUpstream.
	// Default: "https"
	IdPScheme string `json:"idp_scheme,omitempty"`

	// IdPPath is the token endpoint path.
	// Default: "/oauth/token"
	IdPPath string `json:"idp_path,omitempty"`

	// IdPAudience is sent as the audience form field.
	IdPAudience string `json:"idp_audience,omitempty"`

	// TimeoutSeconds bounds the exchange call.
	// Default: 10
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`

	// PoweredBy is the value of the Powered-By header on deny responses.
	// Default: "credgate"
	PoweredBy string `json:"powered_by,omitempty"`

	// ResponseMode selects the exchange response evaluator: "substring"
	// (default) or "strict".
	ResponseMode string `json:"response_mode,omitempty"`
}

// WithDefaults returns a copy of c with defaults applied.
func (c Config) WithDefaults() Config {
	if c.ClientIDHeader == "" {
		c.ClientIDHeader = DefaultClientIDHeader
	}
	if c.ClientSecretHeader == "" {
		c.ClientSecretHeader = DefaultClientSecretHeader
	}
	if c.IdPUpstream == "" {
		c.IdPUpstream = c.IdPAuthority
	}
	if c.IdPScheme == "" {
		c.IdPScheme = DefaultIdPScheme
	}
	if c.IdPPath == "" {
		c.IdPPath = DefaultIdPPath
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.PoweredBy == "" {
		c.PoweredBy = DefaultPoweredBy
	}
	if c.ResponseMode == "" {
		c.ResponseMode = ResponseModeSubstring
	}
	return c
}

// Validate checks that the configuration can drive an exchange.
func (c Config) Validate() error {
	if strings.TrimSpace(c.IdPAuthority) == "" {
		return ErrMissingAuthority
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTimeout, c.TimeoutSeconds)
	}
	switch c.ResponseMode {
	case "", ResponseModeSubstring, ResponseModeStrict:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidResponseMode, c.ResponseMode)
	}
	if c.IdPPath != "" && !strings.HasPrefix(c.IdPPath, "/") {
		return fmt.Errorf("gate: idp path must start with '/': %q", c.IdPPath)
	}
	return nil
}

// Timeout returns the exchange timeout as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
