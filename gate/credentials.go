package gate

import (
	"fmt"
	"net/http"
)

// Headers is read-only access to a request header set.
type Headers interface {
	// Lookup returns the first value of the named header and whether the
	// header was present at all. A present header may have an empty value.
	Lookup(name string) (string, bool)
}

// HTTPHeaders adapts an http.Header.
type HTTPHeaders http.Header

// Lookup returns the first value for name.
func (h HTTPHeaders) Lookup(name string) (string, bool) {
	values := http.Header(h).Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// HeaderMap is a plain header set keyed by exact name.
type HeaderMap map[string]string

// Lookup returns the value stored under name.
func (h HeaderMap) Lookup(name string) (string, bool) {
	v, ok := h[name]
	return v, ok
}

// Credentials is a client identifier and secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// String never includes the secret.
func (c Credentials) String() string {
	return "client_id=" + c.ClientID
}

// ExtractCredentials reads the client credentials from headers using the
// header names in cfg. It returns ErrMissingCredentials if either header is
// absent.
func ExtractCredentials(headers Headers, cfg Config) (Credentials, error) {
	if headers == nil {
		return Credentials{}, ErrMissingCredentials
	}

	id, ok := headers.Lookup(cfg.ClientIDHeader)
	if !ok {
		return Credentials{}, fmt.Errorf("%w: header %q", ErrMissingCredentials, cfg.ClientIDHeader)
	}
	secret, ok := headers.Lookup(cfg.ClientSecretHeader)
	if !ok {
		return Credentials{}, fmt.Errorf("%w: header %q", ErrMissingCredentials, cfg.ClientSecretHeader)
	}

	return Credentials{ClientID: id, ClientSecret: secret}, nil
}
