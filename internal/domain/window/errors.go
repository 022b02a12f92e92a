package window

import "errors"

var (
	// ErrInstanceExists is returned when an explicit instance id is already in use
	ErrInstanceExists = errors.New("instance already exists")
	// ErrInvalidInstanceID is returned for an empty explicit instance id
	ErrInvalidInstanceID = errors.New("invalid instance id")
)
