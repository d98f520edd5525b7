package rbac

import (
	"errors"
	"fmt"
)

// ErrUnknownToken is matched by both UnknownPermissionError and UnknownUserTypeError.
var ErrUnknownToken = errors.New("rbac: unknown token")

type UnknownPermissionError struct {
	Token string
}

func (e *UnknownPermissionError) Error() string {
	return fmt.Sprintf("rbac: unknown permission %q", e.Token)
}

func (e *UnknownPermissionError) Unwrap() error { return ErrUnknownToken }

type UnknownUserTypeError struct {
	Value string
}

func (e *UnknownUserTypeError) Error() string {
	return fmt.Sprintf("rbac: unknown user type %q", e.Value)
}

func (e *UnknownUserTypeError) Unwrap() error { return ErrUnknownToken }
