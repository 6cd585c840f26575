package server

import "errors"

// errShutdownTimeout is returned by Shutdown when in-flight connections
// have not finished within the configured ShutdownTimeout.
var errShutdownTimeout = errors.New("server: shutdown timed out waiting for active connections")
