package chain

import (
	"errors"
	"fmt"
)

// ErrNamingCollision is matched by every NamingCollisionError.
var ErrNamingCollision = errors.New("naming collision")

// NamingCollisionError rejects a rename whose target already names a field.
type NamingCollisionError struct {
	Field string
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("rename: field %q already exists", e.Field)
}

func (e *NamingCollisionError) Unwrap() error {
	return ErrNamingCollision
}
