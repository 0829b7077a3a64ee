// Package proxy puts the gate in front of HTTP handlers.
//
// Middleware is the host pipeline for gate.Context in a Go server: every
// request gets its own Context, its exchange runs on a dispatch.Dispatcher,
// and the handler goroutine parks until the Context resumes or denies it.
// Other requests are never blocked by a pending exchange.
//
//	mw := proxy.New(filter, dispatcher, proxy.WithLogger(logger))
//	rp, _ := proxy.NewReverseProxy("http://orders.internal:8080", logger)
//	http.ListenAndServe(":8080", mw.Wrap(rp))
//
// Gin returns the same flow as a gin.HandlerFunc.
package proxy
