package client

import "errors"

var (
	// ErrDaemonNotRunning is returned when nothing listens on the socket.
	ErrDaemonNotRunning = errors.New("batticon is not running")

	// ErrPermissionDenied is returned when the socket cannot be opened.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when 404 is returned from the status API.
	ErrNotFound = errors.New("404 not found")
)
