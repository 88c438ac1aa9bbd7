package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig means the file or environment could not be read or decoded.
	ErrLoadConfig = errors.New("load config failed")
)
