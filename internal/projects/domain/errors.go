package domain

import "errors"

var (
	// ErrProjectNotFound indicates the requested project was not found.
	ErrProjectNotFound = errors.New("project not found")

	// ErrEmptyName indicates the name cannot be empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrInvalidStatus indicates an unknown project status.
	ErrInvalidStatus = errors.New("invalid project status")

	// ErrInvalidType indicates an unknown project type.
	ErrInvalidType = errors.New("invalid project type")
)
