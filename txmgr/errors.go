package txmgr

import (
	"errors"
	"fmt"
)

var (
	ErrNoMints            = errors.New("no mint instruction")
	ErrNoActions          = errors.New("transaction has no action")
	ErrInvalidSignature   = errors.New("invalid transaction signature")
	ErrUnknownInstruction = errors.New("unknown mint instruction")
)

func ErrMissingField(key string) error {
	return fmt.Errorf("transaction field %q missing or malformed", key)
}
