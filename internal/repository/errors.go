package repository

import "errors"

// Common repository errors
var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already recorded")
	ErrInvalidUUID = errors.New("invalid UUID format")
)
