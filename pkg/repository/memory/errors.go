package memory

import "errors"

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")
