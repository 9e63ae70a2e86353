package headless

import (
	"errors"
	"fmt"
)

var (
	ErrGraphQL  = errors.New("graphql error")
	ErrNotFound = errors.New("not found in headless response")
)

func ErrNotFoundFor(what string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, what, key)
}

func ErrMalformedResponse(op string, err error) error {
	return fmt.Errorf("malformed %s response: %w", op, err)
}
