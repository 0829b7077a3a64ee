package gate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// CallID identifies one dispatched exchange call. Hosts allocate CallIDs and
// pass them back with the completion callback.
type CallID uint32

// Pseudo-header names carried in ExchangeRequest.Headers.
const (
	HeaderMethod    = ":method"
	HeaderPath      = ":path"
	HeaderAuthority = ":authority"
	HeaderContent   = "content-type"

	formContentType = "application/x-www-form-urlencoded"
)

// HeaderPair is one ordered header entry.
type HeaderPair struct {
	Name  string
	Value string
}

// ExchangeRequest is a fully built client-credentials exchange call.
type ExchangeRequest struct {
	// Upstream is the address the host sends the call to.
	Upstream string
	// Scheme is the URL scheme for Upstream.
	Scheme    string
	Method    string
	Path      string
	Authority string
	// Headers always starts with the :method, :path and :authority
	// pseudo-headers followed by content-type.
	Headers []HeaderPair
	// Body is the URL-encoded form.
	Body    []byte
	Timeout time.Duration
}

// Header returns the value of the named header entry.
func (r *ExchangeRequest) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// URL returns the absolute URL for the call.
func (r *ExchangeRequest) URL() string {
	return r.Scheme + "://" + r.Upstream + r.Path
}

// ExchangeResponse is what the host delivers back from the exchange call.
type ExchangeResponse struct {
	// StatusCode is recorded for diagnostics only.
	StatusCode int
	Body       []byte
}

// TokenExchangeClient builds and dispatches client-credentials exchanges.
type TokenExchangeClient struct {
	config Config
}

// NewTokenExchangeClient creates a client for cfg. Defaults are applied.
func NewTokenExchangeClient(cfg Config) *TokenExchangeClient {
	return &TokenExchangeClient{config: cfg.WithDefaults()}
}

// BuildRequest builds the exchange call for creds.
//
// The form fields are written in a fixed order:
// grant_type, audience, client_id, client_secret. Values are written exactly
// as configured or extracted, without form escaping.
func (c *TokenExchangeClient) BuildRequest(creds Credentials) *ExchangeRequest {
	var body strings.Builder
	body.WriteString("grant_type=client_credentials")
	body.WriteString("&audience=")
	body.WriteString(c.config.IdPAudience)
	body.WriteString("&client_id=")
	body.WriteString(creds.ClientID)
	body.WriteString("&client_secret=")
	body.WriteString(creds.ClientSecret)

	return &ExchangeRequest{
		Upstream:  c.config.IdPUpstream,
		Scheme:    c.config.IdPScheme,
		Method:    "POST",
		Path:      c.config.IdPPath,
		Authority: c.config.IdPAuthority,
		Headers: []HeaderPair{
			{Name: HeaderMethod, Value: "POST"},
			{Name: HeaderPath, Value: c.config.IdPPath},
			{Name: HeaderAuthority, Value: c.config.IdPAuthority},
			{Name: HeaderContent, Value: formContentType},
		},
		Body:    []byte(body.String()),
		Timeout: c.config.Timeout(),
	}
}

// Dispatch builds the exchange for creds and hands it to host. It returns as
// soon as the host has accepted the call. Any host error is reported as
// ErrDispatchFailure.
func (c *TokenExchangeClient) Dispatch(ctx context.Context, host Host, creds Credentials) (CallID, error) {
	id, err := host.Dispatch(ctx, c.BuildRequest(creds))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDispatchFailure, err)
	}
	return id, nil
}
