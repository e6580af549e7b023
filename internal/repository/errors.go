package repository

import "errors"

// ErrNotFound indicates the match id is unknown.
var ErrNotFound = errors.New("repository: not found")
