package types

import (
	"errors"
	"fmt"
)

// ErrUnknownApp is matched by every UnknownAppError
var ErrUnknownApp = errors.New("unknown app")

// UnknownAppError reports a launch or create for an unregistered app id
type UnknownAppError struct {
	AppID AppID
}

func (e *UnknownAppError) Error() string {
	return fmt.Sprintf("unknown app: %q", string(e.AppID))
}

// Is lets errors.Is(err, ErrUnknownApp) match
func (e *UnknownAppError) Is(target error) bool {
	return target == ErrUnknownApp
}
