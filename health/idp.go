package health

import (
	"context"
	"net"
	"time"
)

// DialChecker reports whether a TCP connection to an address can be opened.
// It is used for the identity provider: a gate that cannot reach it denies
// every request.
type DialChecker struct {
	name    string
	addr    string
	timeout time.Duration
	dialer  func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewDialChecker checks addr (host:port) with the given dial timeout.
// Default timeout: 2 seconds
func NewDialChecker(name, addr string, timeout time.Duration) *DialChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	d := &net.Dialer{}
	return &DialChecker{name: name, addr: addr, timeout: timeout, dialer: d.DialContext}
}

// Name returns the checker name.
func (c *DialChecker) Name() string { return c.name }

// Check dials the address once.
func (c *DialChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	conn, err := c.dialer(ctx, "tcp", c.addr)
	if err != nil {
		return Unhealthy("cannot reach "+c.addr, err).
			WithDetails(map[string]any{"addr": c.addr})
	}
	_ = conn.Close()

	return Healthy("reachable").WithDetails(map[string]any{
		"addr":    c.addr,
		"connect": time.Since(start).String(),
	})
}

// IdPAddress returns host:port for an upstream and scheme, adding the
// scheme's default port when upstream has none.
func IdPAddress(upstream, scheme string) string {
	if _, _, err := net.SplitHostPort(upstream); err == nil {
		return upstream
	}
	port := "443"
	if scheme == "http" {
		port = "80"
	}
	return net.JoinHostPort(upstream, port)
}
