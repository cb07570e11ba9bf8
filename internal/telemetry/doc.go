// Package telemetry bootstraps OpenTelemetry tracing and metrics export for
// docent over OTLP (gRPC or HTTP).
//
//	tel, err := telemetry.New(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// The model client and conversation service create their spans through the
// global tracer provider that New installs; the HTTP server records request
// metrics through Meter. Exporter failures mark the instance degraded and
// leave the no-op providers in place.
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
