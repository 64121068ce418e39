package engine

import "errors"

var (
	// ErrTransportUnavailable means neither a backend session nor an open
	// live channel is available
	ErrTransportUnavailable = errors.New("no connection available")
	// ErrRemoteCallFailed wraps backend call failures
	ErrRemoteCallFailed = errors.New("remote call failed")
	// ErrImportValidation wraps every rejected import
	ErrImportValidation = errors.New("import validation failed")
	// ErrNoBundle means the store holds no session bundle
	ErrNoBundle = errors.New("no saved session")
	// ErrClosed is returned by commands after Close
	ErrClosed = errors.New("engine closed")
	// ErrNotStarted is returned by commands before Start
	ErrNotStarted = errors.New("engine not started")
)
