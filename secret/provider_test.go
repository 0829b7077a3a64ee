package secret

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("CREDGATE_SECRET", "v")
	p := EnvProvider{}

	got, err := p.Resolve(context.Background(), "CREDGATE_SECRET")
	if err != nil || got != "v" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}
	if _, err := p.Resolve(context.Background(), "CREDGATE_TEST_UNSET_VAR"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "audience"), []byte("orders\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	got, err := FileProvider{}.Resolve(ctx, filepath.Join(dir, "audience"))
	if err != nil || got != "orders" {
		t.Fatalf("Resolve() = %q, %v", got, err)
	}

	rooted := FileProvider{Root: dir}
	if got, err := rooted.Resolve(ctx, "audience"); err != nil || got != "orders" {
		t.Fatalf("rooted Resolve() = %q, %v", got, err)
	}
	if _, err := rooted.Resolve(ctx, "../etc/passwd"); err == nil {
		t.Fatal("expected error for path outside root")
	}
	if _, err := rooted.Resolve(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
