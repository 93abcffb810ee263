// Package logging provides structured logging with OpenTelemetry integration.
//
// Logger wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stdout or stderr output, optionally teed to the OpenTelemetry log bridge
//   - Context field injection (trace_id, request.id, reconcile.channel)
//   - Secret redaction by field name and value pattern
//
// Log with context:
//
//	ctx = logging.WithRequestID(ctx, id)
//	ctx = logging.WithThread(ctx, logging.Thread{ChannelID: "C123", TS: "1700000000.000100"})
//	logger.Info(ctx, "article reconciled", zap.String("path", path))
//
// Output includes the correlation fields:
//
//	{
//	  "ts": "2026-03-02T10:15:30Z",
//	  "level": "info",
//	  "msg": "article reconciled",
//	  "request.id": "2c1f...",
//	  "reconcile.channel": "C123",
//	  "reconcile.thread_ts": "1700000000.000100",
//	  "path": "knowledge-base/redis-ha.md"
//	}
//
// Use TestLogger in tests:
//
//	tl := logging.NewTestLogger()
//	tl.AssertLogged(t, zapcore.InfoLevel, "article reconciled")
//	tl.AssertNoSecrets(t)
package logging
