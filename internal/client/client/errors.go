package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable means the remote service could not be used: the client
	// is offline or the request never got an HTTP response.
	ErrUnavailable = errors.New("server unavailable")

	// ErrTransport is a network-level failure. It matches ErrUnavailable.
	ErrTransport = fmt.Errorf("%w: transport failure", ErrUnavailable)

	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRemoteRejected matches every *RemoteError.
	ErrRemoteRejected = errors.New("rejected by server")
)

// RemoteError is a non-2xx response. Message is the server's "error" field
// verbatim, or the status text when the body had none.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteRejected:
		return true
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

func transportErr(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
