// Package health reports whether the gate can make decisions.
//
// Two checks matter for a credential gate: can the identity provider be
// reached (DialChecker), and is there room for more exchanges in flight
// (CapacityChecker). An Aggregator runs them together and the HTTP handlers
// expose the result to orchestrators:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewDialChecker("idp", "idp.example.com:443", 2*time.Second))
//	agg.Register(health.NewCapacityChecker("exchanges", dispatcher, 0.9))
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// /healthz is liveness only; /readyz and /health run the checks.
package health
