package chainrepo

import "errors"

// ErrNotFound is returned when a chain id does not exist.
var ErrNotFound = errors.New("chain not found")
