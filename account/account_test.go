package account

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestAddressMatchesEthereumDerivation(t *testing.T) {
	key, err := NewRawPrivateKeyFromHex(testKeyHex)
	require.NoError(t, err)

	ethKey, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)

	assert.Equal(t, crypto.PubkeyToAddress(ethKey.PublicKey), key.Address())
	assert.Len(t, key.PublicKey(), 65)
	assert.Equal(t, byte(0x04), key.PublicKey()[0])
}

func TestSignAndVerify(t *testing.T) {
	key, err := NewRandomRawPrivateKey()
	require.NoError(t, err)

	msg := []byte("d1:ai1ee")
	sig, err := key.Sign(msg)
	require.NoError(t, err)

	assert.True(t, Verify(key.PublicKey(), msg, sig))
	assert.False(t, Verify(key.PublicKey(), []byte("tampered"), sig))

	other, err := NewRandomRawPrivateKey()
	require.NoError(t, err)
	assert.False(t, Verify(other.PublicKey(), msg, sig))
}

func TestInvalidPrivateKey(t *testing.T) {
	_, err := NewRawPrivateKeyFromHex("0x1234")
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)

	// right length, not hex
	_, err = NewRawPrivateKeyFromHex("zz" + testKeyHex[2:])
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
	assert.ErrorContains(t, err, "invalid hex")

	_, err = NewRawPrivateKey(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidPrivateKey)
}

func TestKeyBytesRoundTrip(t *testing.T) {
	key, err := NewRandomRawPrivateKey()
	require.NoError(t, err)
	again, err := NewRawPrivateKey(key.Bytes())
	require.NoError(t, err)
	assert.Equal(t, key.Address(), again.Address())
}
