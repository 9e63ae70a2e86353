package bencodex

import (
	"errors"
	"fmt"
)

var ErrMalformed = errors.New("malformed bencodex payload")

func ErrMalformedAt(pos int, reason string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrMalformed, reason, pos)
}

func ErrUnexpectedType(expected string, v Value) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrMalformed, expected, v)
}

func ErrUnsupportedType(v Value) error {
	return fmt.Errorf("bencodex: unsupported type %T", v)
}
