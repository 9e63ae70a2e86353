/*
Package bencodex implements the canonical binary encoding used by the
destination chain for transactions and action payloads.

Supported values:

	nil        -> null
	bool       -> boolean
	integers   -> integer (int, int64, uint64, *big.Int; decoded as *big.Int)
	[]byte     -> binary
	string     -> text (UTF-8)
	List       -> list
	Dict       -> dictionary, keys are binary or text
*/
package bencodex

import (
	"fmt"
	"math/big"
)

type Value = any

type List []Value

// Key is a dictionary key. Binary and text keys with the same bytes are
// different keys.
type Key struct {
	raw  string
	text bool
}

func BinaryKey(b []byte) Key {
	return Key{raw: string(b)}
}

func TextKey(s string) Key {
	return Key{raw: s, text: true}
}

func (k Key) IsText() bool {
	return k.text
}

func (k Key) Bytes() []byte {
	return []byte(k.raw)
}

func (k Key) String() string {
	if k.text {
		return fmt.Sprintf("%q", k.raw)
	}
	return fmt.Sprintf("b%x", k.raw)
}

// less orders binary keys before text keys, then by bytes.
func (k Key) less(o Key) bool {
	if k.text != o.text {
		return !k.text
	}
	return k.raw < o.raw
}

type Dict map[Key]Value

// Get returns the value stored under a text key.
func (d Dict) Get(name string) (Value, bool) {
	v, ok := d[TextKey(name)]
	return v, ok
}

// GetBinary returns the value stored under a binary key.
func (d Dict) GetBinary(name []byte) (Value, bool) {
	v, ok := d[BinaryKey(name)]
	return v, ok
}

// AsList asserts v is a list.
func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, ErrUnexpectedType("list", v)
	}
	return l, nil
}

func AsDict(v Value) (Dict, error) {
	d, ok := v.(Dict)
	if !ok {
		return nil, ErrUnexpectedType("dictionary", v)
	}
	return d, nil
}

func AsBinary(v Value) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, ErrUnexpectedType("binary", v)
	}
	return b, nil
}

func AsText(v Value) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrUnexpectedType("text", v)
	}
	return s, nil
}

func AsInteger(v Value) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		return n, nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	}
	return nil, ErrUnexpectedType("integer", v)
}
