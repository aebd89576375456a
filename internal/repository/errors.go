package repository

import "errors"

// ErrNotFound is returned when the referenced row does not exist.
// Handlers translate it to HTTP 404.
var ErrNotFound = errors.New("not found")
