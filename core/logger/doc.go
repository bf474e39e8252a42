// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different
// environments (development vs production). Console encoding is the
// default since crosspost is an interactive CLI tool; JSON encoding is
// available for scripted invocations.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: console (development) or json (scripted)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log.Info("publishing post")
//
//	// While processing one (post, platform) pair:
//	l := logger.WithPair(log, "blog-posts/hello-world", "devto")
//	l.Error("create failed", zap.Error(err))
package logger
