// Package redact strips sensitive payload text from diagnostic views.
//
// Agent history records carry the full text of every turn in fields named
// "content". Diagnostic panels only need to know whether a turn had text, so
// History replaces each such field with a boolean presence flag and leaves
// every other field, and the overall shape, untouched.
//
// Presence Rules:
//   - string: true when non-empty after trimming surrounding whitespace
//   - null, false: false
//   - sequence, mapping: true when non-empty
//   - number, true: true
//
// Example Usage:
//
//	safe := redact.History(envelope.History)
//	logger.Debug("history", zap.String("history", safe.String()))
package redact
