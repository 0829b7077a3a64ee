package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/credgate/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credgate.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "credgate version dev\n" {
		t.Errorf("output = %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	t.Setenv("CREDGATE_TEST_AUDIENCE", "orders")
	path := writeConfig(t, `
idp_authority: idp.example.com
idp_audience: ${CREDGATE_TEST_AUDIENCE}
upstream: http://orders.internal:8080
`)

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	for _, want := range []string{
		"configuration OK",
		"https://idp.example.com/oauth/token",
		"client_id, client_secret",
		"upstream: http://orders.internal:8080",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	path := writeConfig(t, "upstream: http://orders.internal:8080\n")
	if _, err := execute(t, "validate", "-c", path); err == nil {
		t.Fatal("expected error for missing idp_authority")
	}
	if _, err := execute(t, "validate", "-c", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGateway_EndToEnd(t *testing.T) {
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("client_secret") == "s1" {
			_, _ = w.Write([]byte(`{"access_token":"abc","expires_in":60}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer idp.Close()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello from " + r.URL.Path))
	}))
	defer upstream.Close()

	idpURL, _ := url.Parse(idp.URL)
	f, err := config.Parse(context.Background(), []byte(`
idp_authority: idp.example.com
idp_upstream: "`+idpURL.Host+`"
idp_scheme: http
upstream: `+upstream.URL+`
`), nil)
	if err != nil {
		t.Fatal(err)
	}

	gw, err := newGateway(context.Background(), f)
	if err != nil {
		t.Fatalf("newGateway() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = gw.dispatcher.Close(ctx)
		_ = gw.observer.Shutdown(ctx)
	})

	tests := []struct {
		name     string
		secret   string
		wantCode int
		wantBody string
	}{
		{name: "authorized", secret: "s1", wantCode: 200, wantBody: "hello from /orders/7"},
		{name: "invalid", secret: "nope", wantCode: 403, wantBody: "Access Denied\n"},
	}
	front := httptest.NewServer(gw.proxy)
	defer front.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, front.URL+"/orders/7", nil)
			if err != nil {
				t.Fatal(err)
			}
			req.Header.Set("client_id", "cid1")
			req.Header.Set("client_secret", tt.secret)

			resp, err := front.Client().Do(req)
			if err != nil {
				t.Fatalf("request error = %v", err)
			}
			defer func() { _ = resp.Body.Close() }()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatal(err)
			}

			if resp.StatusCode != tt.wantCode || string(body) != tt.wantBody {
				t.Fatalf("got %d %q, want %d %q", resp.StatusCode, body, tt.wantCode, tt.wantBody)
			}
		})
	}

	t.Run("readiness", func(t *testing.T) {
		w := httptest.NewRecorder()
		gw.admin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("readyz = %d %q", w.Code, w.Body.String())
		}
	})

	t.Run("metrics endpoint", func(t *testing.T) {
		w := httptest.NewRecorder()
		gw.admin.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("metrics = %d", w.Code)
		}
	})
}
