package database

import "errors"

// ErrNotReady means the server could not be reached.
var ErrNotReady = errors.New("database not reachable")
