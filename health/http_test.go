package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, agg *Aggregator, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	RegisterHandlers(mux, agg)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLivenessHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("idp", Unhealthy("down", nil)))

	w := serve(t, agg, "/healthz")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Fatalf("got %d %q; liveness must ignore checks", w.Code, w.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantCode int
		wantBody string
	}{
		{name: "healthy", result: Healthy(""), wantCode: 200, wantBody: "OK"},
		{name: "degraded", result: Degraded(""), wantCode: 200, wantBody: "DEGRADED"},
		{name: "unhealthy", result: Unhealthy("", nil), wantCode: 503, wantBody: "UNHEALTHY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator()
			agg.Register(fixed("idp", tt.result))

			w := serve(t, agg, "/readyz")
			if w.Code != tt.wantCode || w.Body.String() != tt.wantBody {
				t.Fatalf("got %d %q", w.Code, w.Body.String())
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("idp", Unhealthy("cannot reach idp:443", errors.New("connection refused"))))
	agg.Register(NewCapacityChecker("exchanges", fakeLoad{1, 10}, 0))

	w := serve(t, agg, "/health")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["idp"].Error != "connection refused" {
		t.Errorf("idp check = %+v", resp.Checks["idp"])
	}
	if resp.Checks["exchanges"].Status != "healthy" {
		t.Errorf("exchanges check = %+v", resp.Checks["exchanges"])
	}
}
