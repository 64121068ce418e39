// Package cli implements the gadgeto command line.
//
// Commands:
//   - chat: interactive session backed by the session engine
//   - export, import, info: work on the saved session without connecting
//   - clear: delete the saved session and its backend session
//
// Every persistent flag overrides the environment variable of the same
// setting (see internal/infrastructure/config).
package cli
