package proxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/jonwraymond/credgate/observe"
)

// NewReverseProxy forwards authorized requests to target. Request headers
// reach the upstream unchanged.
func NewReverseProxy(target string, logger observe.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("proxy: parse upstream %q: %w", target, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy: upstream %q must be an absolute URL", target)
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn(r.Context(), "upstream request failed",
				observe.Field{Key: "upstream", Value: u.Host},
				observe.Field{Key: "error", Value: err.Error()})
			w.WriteHeader(http.StatusBadGateway)
		},
	}, nil
}
