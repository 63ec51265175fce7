package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks request validation failures. Nothing is persisted when
// a validation error is returned.
var ErrValidation = errors.New("invalid request")

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
