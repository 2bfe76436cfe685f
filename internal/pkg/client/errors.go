package client

import "github.com/pkg/errors"

// ErrSessionRunning indicates that a setting which requires a stopped
// session was changed while the session runs.
var ErrSessionRunning = errors.New("session running")

// ErrNoEndpoint indicates that the client was built without a host and port.
var ErrNoEndpoint = errors.New("endpoint not configured")
