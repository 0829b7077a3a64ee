// Package config loads the credgate configuration file.
//
// The file is YAML or JSON. Gate settings sit at the top level, next to the
// server and observability settings:
//
//	idp_authority: idp.example.com
//	idp_audience: ${AUDIENCE}
//	upstream: http://orders.internal:8080
//	observe:
//	  service_name: credgate
//	  logging: {enabled: true, level: info}
//
// String fields that address the identity provider may use ${ENV} expansion
// and secretref:<provider>:<ref> references (see package secret).
package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/jonwraymond/credgate/gate"
	"github.com/jonwraymond/credgate/observe"
	"github.com/jonwraymond/credgate/secret"
)

// Defaults.
const (
	DefaultListen          = ":8080"
	DefaultAdminListen     = ":9090"
	DefaultShutdownSeconds = 15
	DefaultServiceName     = "credgate"
)

// ErrMissingUpstream indicates File.Upstream is empty.
var ErrMissingUpstream = errors.New("config: upstream is required")

// File is the whole configuration file.
type File struct {
	gate.Config

	// Listen is the gated proxy address.
	Listen string `json:"listen,omitempty"`

	// AdminListen serves health probes and /metrics.
	AdminListen string `json:"admin_listen,omitempty"`

	// Upstream is the URL authorized requests are forwarded to.
	Upstream string `json:"upstream"`

	// MaxPending caps concurrent exchanges; 0 uses the dispatcher default.
	MaxPending int `json:"max_pending,omitempty"`

	// ShutdownSeconds bounds graceful shutdown.
	ShutdownSeconds int `json:"shutdown_seconds,omitempty"`

	Observe observe.Config `json:"observe"`
}

// Load reads and parses the file at path.
func Load(ctx context.Context, path string, resolver *secret.Resolver) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	f, err := Parse(ctx, data, resolver)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data, resolves secrets, applies defaults and validates.
// A nil resolver only expands the environment.
func Parse(ctx context.Context, data []byte, resolver *secret.Resolver) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := resolver.ResolveFields(ctx, f.secretFields()); err != nil {
		return nil, err
	}

	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *File) secretFields() map[string]*string {
	return map[string]*string{
		"idp_authority": &f.IdPAuthority,
		"idp_upstream":  &f.IdPUpstream,
		"idp_path":      &f.IdPPath,
		"idp_audience":  &f.IdPAudience,
		"upstream":      &f.Upstream,
		"powered_by":    &f.PoweredBy,
	}
}

func (f *File) applyDefaults() {
	f.Config = f.Config.WithDefaults()
	if f.Listen == "" {
		f.Listen = DefaultListen
	}
	if f.AdminListen == "" {
		f.AdminListen = DefaultAdminListen
	}
	if f.ShutdownSeconds <= 0 {
		f.ShutdownSeconds = DefaultShutdownSeconds
	}
	if f.Observe.ServiceName == "" {
		f.Observe.ServiceName = DefaultServiceName
	}
}

// Validate checks the gate, server and observability sections.
func (f *File) Validate() error {
	if err := f.Config.Validate(); err != nil {
		return err
	}
	if f.Upstream == "" {
		return ErrMissingUpstream
	}
	u, err := url.Parse(f.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: upstream %q must be an absolute URL", f.Upstream)
	}
	if f.MaxPending < 0 {
		return fmt.Errorf("config: max_pending must not be negative: %d", f.MaxPending)
	}
	return f.Observe.Validate()
}
