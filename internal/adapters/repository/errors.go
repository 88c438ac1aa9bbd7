package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("employee not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrClosed       = errors.New("store closed")
)
