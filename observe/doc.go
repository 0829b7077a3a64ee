// Package observe provides the logging, metrics and tracing used by the gate.
//
// It is a pure instrumentation library: the gate and its host adapters call
// Logger, Metrics and Tracer; NewObserver wires them to OpenTelemetry SDK
// providers and exporters.
package observe
