package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by providers when a reference does not exist.
var ErrNotFound = errors.New("secret: not found")

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable ref.
func (EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %q", ErrNotFound, ref)
	}
	return v, nil
}

// Close does nothing.
func (EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file path, the way mounted
// Kubernetes or Docker secrets are read. Trailing newlines are trimmed.
type FileProvider struct {
	// Root, when set, confines references to files beneath it; relative
	// references are joined to it.
	Root string
}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads the file at ref.
func (p FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path := filepath.Clean(ref)
	if p.Root != "" {
		root := filepath.Clean(p.Root)
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("secret: file %q is outside %q", ref, root)
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: file %q", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %q: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Close does nothing.
func (FileProvider) Close() error { return nil }

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
