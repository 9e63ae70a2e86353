package common

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid address")

// The returned string has No 0x prefix
func ByteSliceToPureHexStr(b []byte) string {
	return Trim0xPrefix(ethcommon.Bytes2Hex(b))
}

// HexStrToByteSlice decodes a hex string with or without 0x.
func HexStrToByteSlice(hexStr string) ([]byte, error) {
	b, err := hex.DecodeString(Trim0xPrefix(hexStr))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", Shorten(hexStr, 8), err)
	}
	return b, nil
}

// HexStrToHash converts a hex string to ethcommon.Hash
func HexStrToHash(hexStr string) ethcommon.Hash {
	return ethcommon.HexToHash(hexStr)
}

// ParseAddress accepts a 40 character hex string with or without 0x.
// Unlike ethcommon.HexToAddress it rejects anything else.
func ParseAddress(s string) (ethcommon.Address, error) {
	str := strings.TrimSpace(s)
	if !ethcommon.IsHexAddress(str) {
		return ethcommon.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return ethcommon.HexToAddress(str), nil
}

// ParseHash accepts a 64 character hex string with or without 0x.
func ParseHash(s string) (ethcommon.Hash, error) {
	b, err := ethcommon.ParseHexOrString(Prepend0xPrefix(strings.TrimSpace(s)))
	if err != nil || len(b) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("invalid hash %q", s)
	}
	return ethcommon.BytesToHash(b), nil
}

// Trim 0x or 0X prefix off the string.
func Trim0xPrefix(str string) string {
	s := strings.TrimPrefix(str, "0x")
	return strings.TrimPrefix(s, "0X")
}

func Prepend0xPrefix(str string) string {
	if strings.HasPrefix(str, "0x") || strings.HasPrefix(str, "0X") {
		return str
	}
	return "0x" + str
}

// Shorten shortens a hex string so that both sides have n characters and
// the rest is replaced with "..."
func Shorten(hexStr string, n int) string {
	str := Trim0xPrefix(hexStr)

	if len(str) <= n*2 {
		return Prepend0xPrefix(str)
	}
	return Prepend0xPrefix(str[:n] + "..." + str[len(str)-n:])
}

func RandBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil
	}
	return b
}

func RandAddress() ethcommon.Address {
	return ethcommon.BytesToAddress(RandBytes(ethcommon.AddressLength))
}

func RandHash() ethcommon.Hash {
	return ethcommon.BytesToHash(RandBytes(ethcommon.HashLength))
}
