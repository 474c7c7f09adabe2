package domain

import "errors"

// Common domain errors returned by the relation stores.
var (
	ErrNotFound  = errors.New("resource not found")
	ErrDuplicate = errors.New("resource already exists")
)
