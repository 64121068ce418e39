package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers failures where no HTTP response was received:
	// connection refused, timeouts, an open circuit breaker
	ErrNetwork = errors.New("network error")
	// ErrServer covers responses with a non-2xx status or an unreadable body
	ErrServer = errors.New("server error")
)

// CallError describes a failed backend call. Status is zero when the
// request never produced a response.
type CallError struct {
	Op     string
	Status int
	Err    error
}

func (e *CallError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s: status %d: %v", e.Op, e.Status, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Is matches ErrNetwork or ErrServer by whether a response was received
func (e *CallError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Status == 0
	case ErrServer:
		return e.Status != 0
	}
	return false
}

func (e *CallError) kind() string {
	switch {
	case e.Status == 0:
		return "network_error"
	case e.Status >= 500:
		return "server_error"
	case e.Status >= 400:
		return "client_error"
	default:
		return "bad_reply"
	}
}
