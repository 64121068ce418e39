// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Logs go to stderr by default; stdout belongs to the chat REPL.
// Components receive a *Logger and derive a named child with Component.
// A nil logger is replaced with a no-op one through OrNop.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	engineLog := logger.Component("engine")
//	engineLog.Info("Backend session created", logging.SessionID(id))
package logging
