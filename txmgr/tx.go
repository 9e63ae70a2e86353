package txmgr

import (
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/nc-bridge-go/account"
	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
)

const TimestampFormat = "2006-01-02T15:04:05.000000Z"

// Binary keys of the transaction dictionary.
var (
	keySignature        = bencodex.BinaryKey([]byte("S"))
	keyActions          = bencodex.BinaryKey([]byte("a"))
	keyGenesisHash      = bencodex.BinaryKey([]byte("g"))
	keyGasLimit         = bencodex.BinaryKey([]byte("l"))
	keyMaxGasPrice      = bencodex.BinaryKey([]byte("m"))
	keyNonce            = bencodex.BinaryKey([]byte("n"))
	keyPublicKey        = bencodex.BinaryKey([]byte("p"))
	keySigner           = bencodex.BinaryKey([]byte("s"))
	keyTimestamp        = bencodex.BinaryKey([]byte("t"))
	keyUpdatedAddresses = bencodex.BinaryKey([]byte("u"))
)

type UnsignedTx struct {
	Nonce            int64
	GenesisHash      agreement.BlockHash
	PublicKey        []byte // uncompressed
	Signer           agreement.Address
	Timestamp        time.Time
	UpdatedAddresses []agreement.Address
	Actions          []bencodex.Value
	MaxGasPrice      agreement.FungibleAssetValue
	GasLimit         int64
}

type SignedTx struct {
	UnsignedTx
	Signature []byte
}

func (tx *UnsignedTx) Dict() bencodex.Dict {
	updated := make(bencodex.List, 0, len(tx.UpdatedAddresses))
	for _, addr := range tx.UpdatedAddresses {
		updated = append(updated, addr.Bytes())
	}
	actions := make(bencodex.List, 0, len(tx.Actions))
	actions = append(actions, tx.Actions...)

	return bencodex.Dict{
		keyActions:          actions,
		keyGenesisHash:      tx.GenesisHash.Bytes(),
		keyGasLimit:         tx.GasLimit,
		keyMaxGasPrice:      tx.MaxGasPrice.Value(),
		keyNonce:            tx.Nonce,
		keyPublicKey:        tx.PublicKey,
		keySigner:           tx.Signer.Bytes(),
		keyTimestamp:        tx.Timestamp.UTC().Format(TimestampFormat),
		keyUpdatedAddresses: updated,
	}
}

// Bytes is the message that gets signed.
func (tx *UnsignedTx) Bytes() ([]byte, error) {
	return bencodex.Encode(tx.Dict())
}

// Sign signs the canonical encoding of tx.
func Sign(tx *UnsignedTx, signer account.Signer) (*SignedTx, error) {
	msg, err := tx.Bytes()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, err
	}
	return &SignedTx{UnsignedTx: *tx, Signature: sig}, nil
}

func (tx *SignedTx) Bytes() ([]byte, error) {
	d := tx.Dict()
	d[keySignature] = tx.Signature
	return bencodex.Encode(d)
}

// Verify checks the signature against the embedded public key.
func (tx *SignedTx) Verify() error {
	msg, err := tx.UnsignedTx.Bytes()
	if err != nil {
		return err
	}
	if !account.Verify(tx.PublicKey, msg, tx.Signature) {
		return ErrInvalidSignature
	}
	if account.AddressFromPublicKey(tx.PublicKey) != tx.Signer {
		return ErrInvalidSignature
	}
	return nil
}

// ParseSignedTx decodes what SignedTx.Bytes produced.
func ParseSignedTx(raw []byte) (*SignedTx, error) {
	v, err := bencodex.Decode(raw)
	if err != nil {
		return nil, err
	}
	d, err := bencodex.AsDict(v)
	if err != nil {
		return nil, err
	}

	tx := &SignedTx{}

	binary := func(k bencodex.Key) ([]byte, error) {
		b, err := bencodex.AsBinary(d[k])
		if err != nil {
			return nil, ErrMissingField(string(k.Bytes()))
		}
		return b, nil
	}
	integer := func(k bencodex.Key) (*big.Int, error) {
		n, err := bencodex.AsInteger(d[k])
		if err != nil || !n.IsInt64() {
			return nil, ErrMissingField(string(k.Bytes()))
		}
		return n, nil
	}

	if tx.Signature, err = binary(keySignature); err != nil {
		return nil, err
	}
	genesis, err := binary(keyGenesisHash)
	if err != nil || len(genesis) != ethcommon.HashLength {
		return nil, ErrMissingField("g")
	}
	tx.GenesisHash = ethcommon.BytesToHash(genesis)
	if tx.PublicKey, err = binary(keyPublicKey); err != nil {
		return nil, err
	}
	signer, err := binary(keySigner)
	if err != nil {
		return nil, err
	}
	tx.Signer = agreement.BytesToAddress(signer)

	nonce, err := integer(keyNonce)
	if err != nil {
		return nil, err
	}
	tx.Nonce = nonce.Int64()
	gasLimit, err := integer(keyGasLimit)
	if err != nil {
		return nil, err
	}
	tx.GasLimit = gasLimit.Int64()

	if tx.MaxGasPrice, err = agreement.FungibleAssetValueFromValue(d[keyMaxGasPrice]); err != nil {
		return nil, err
	}

	ts, err := bencodex.AsText(d[keyTimestamp])
	if err != nil {
		return nil, ErrMissingField("t")
	}
	if tx.Timestamp, err = time.Parse(TimestampFormat, ts); err != nil {
		return nil, err
	}

	actions, err := bencodex.AsList(d[keyActions])
	if err != nil {
		return nil, ErrMissingField("a")
	}
	tx.Actions = actions

	updated, err := bencodex.AsList(d[keyUpdatedAddresses])
	if err != nil {
		return nil, ErrMissingField("u")
	}
	for _, item := range updated {
		b, err := bencodex.AsBinary(item)
		if err != nil {
			return nil, ErrMissingField("u")
		}
		tx.UpdatedAddresses = append(tx.UpdatedAddresses, agreement.BytesToAddress(b))
	}

	return tx, nil
}
