// Package logger builds configured slog.Logger instances with functional
// options: output format, level, static attributes and context extractors
// that inject request-scoped values at log time.
//
// Usage:
//
//	log := logger.New(
//		logger.WithProduction("feature-service"),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	logger.SetAsDefault(log)
package logger
