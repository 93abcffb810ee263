// Package telemetry wires OpenTelemetry tracing and metrics for kbsync.
//
// Traces and metrics are exported over OTLP (gRPC or HTTP) to a collector.
// Every reconciliation produces a root span with one child per stage:
//
//	reconcile
//	├── reconcile.locate
//	├── reconcile.branch
//	├── reconcile.content
//	├── reconcile.write
//	└── reconcile.pr
//
// Create and shut down:
//
//	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// Tests use NewTestTelemetry, which records spans in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	r := reconcile.New(repo, cfg, reconcile.WithTracer(tt.Tracer("test")))
//	tt.AssertSpanExists(t, "reconcile.locate")
package telemetry
