package domain

import "errors"

// ErrStreamNotFound is returned by repositories when no row matches.
var ErrStreamNotFound = errors.New("stream not found")
