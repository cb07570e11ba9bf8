// Package logging wraps zap for docent.
//
// It adds a Trace level below Debug, correlation fields taken from the
// context (trace_id, span_id, request.id, project.id), encoder-level
// redaction of API keys and authorization values, and sampling that never
// drops Error or above.
//
//	logger, err := logging.NewLogger(logging.NewDefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, id)
//	logger.Info(ctx, "conversation started", zap.String("phase", "DVP"))
//
// Services take a plain *zap.Logger from Underlying(). Tests use
// NewTestLogger and its assertion helpers.
package logging
