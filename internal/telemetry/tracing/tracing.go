package tracing

import "go.opentelemetry.io/otel"

// GlobalTracer is used across handlers and the upstream client. Spans
// are no-ops unless an OpenTelemetry SDK is configured by the host
// environment (OTEL_* env vars).
var GlobalTracer = otel.Tracer("opsproxy-backend")
