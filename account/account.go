package account

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

var ErrInvalidPrivateKey = errors.New("invalid private key")

// Signer is the credential used to sign destination chain transactions.
type Signer interface {
	Address() agreement.Address
	// 65 bytes, uncompressed.
	PublicKey() []byte
	// DER encoded ECDSA signature over sha256(message).
	Sign(message []byte) ([]byte, error)
}

// Define a local account, which is backed by one single private key.
type RawPrivateKey struct {
	sk *btcec.PrivateKey
}

// If user provides a 256-bit (32byte) private key, we can create an account.
func NewRawPrivateKey(privkey []byte) (*RawPrivateKey, error) {
	if len(privkey) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, btcec.PrivKeyBytesLen, len(privkey))
	}
	sk, _ := btcec.PrivKeyFromBytes(privkey)
	if sk.Key.IsZero() {
		return nil, ErrInvalidPrivateKey
	}
	return &RawPrivateKey{sk: sk}, nil
}

// Hex string with or without 0x.
func NewRawPrivateKeyFromHex(hexStr string) (*RawPrivateKey, error) {
	b, err := common.HexStrToByteSlice(hexStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return NewRawPrivateKey(b)
}

// If user choose to randomly generate an account.
func NewRandomRawPrivateKey() (*RawPrivateKey, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return &RawPrivateKey{sk: sk}, nil
}

// Bytes is the 32-byte scalar.
func (k *RawPrivateKey) Bytes() []byte {
	return k.sk.Serialize()
}

func (k *RawPrivateKey) PublicKey() []byte {
	return k.sk.PubKey().SerializeUncompressed()
}

func (k *RawPrivateKey) Address() agreement.Address {
	return AddressFromPublicKey(k.PublicKey())
}

func (k *RawPrivateKey) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig := ecdsa.Sign(k.sk, digest[:])
	return sig.Serialize(), nil
}

// AddressFromPublicKey derives the account address from an uncompressed public key.
func AddressFromPublicKey(uncompressed []byte) agreement.Address {
	var addr agreement.Address
	if len(uncompressed) != 65 {
		return addr
	}
	copy(addr[:], crypto.Keccak256(uncompressed[1:])[12:])
	return addr
}

// Verify checks a signature produced by Sign.
func Verify(publicKey []byte, message []byte, signature []byte) bool {
	pk, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(message)
	return sig.Verify(digest[:], pk)
}
