package bencodex

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	cases := []struct {
		in   Value
		want string
	}{
		{nil, "n"},
		{true, "t"},
		{false, "f"},
		{int64(-42), "i-42e"},
		{big.NewInt(1000000000000000000), "i1000000000000000000e"},
		{[]byte("spam"), "4:spam"},
		{"한", "u3:한"},
		{List{int64(1), "a"}, "li1eu1:ae"},
	}

	for _, c := range cases {
		out, err := Encode(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, string(out))
	}
}

func TestEncodeDictKeyOrder(t *testing.T) {
	d := Dict{
		TextKey("b"):           int64(1),
		TextKey("a"):           int64(2),
		BinaryKey([]byte("z")): int64(3),
		BinaryKey([]byte("S")): int64(4),
	}

	out, err := Encode(d)
	require.NoError(t, err)
	// binary keys first, then text keys, each group in byte order
	assert.Equal(t, "d1:Si4e1:zi3eu1:ai2eu1:bi1ee", string(out))
}

func TestEncodeUnsupported(t *testing.T) {
	_, err := Encode(3.14)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	in := Dict{
		TextKey("type_id"): "mint_assets",
		TextKey("values"): List{
			List{[]byte{0x01, 0x02}, nil, List{[]byte{0xff}, big.NewInt(3)}},
		},
		BinaryKey([]byte{0x73}): true,
	}
	raw, err := Encode(in)
	require.NoError(t, err)

	out, err := Decode(raw)
	require.NoError(t, err)

	d, err := AsDict(out)
	require.NoError(t, err)

	typeID, ok := d.Get("type_id")
	assert.True(t, ok)
	assert.Equal(t, "mint_assets", typeID)

	flag, ok := d.GetBinary([]byte{0x73})
	assert.True(t, ok)
	assert.Equal(t, true, flag)

	values, _ := d.Get("values")
	list, err := AsList(values)
	require.NoError(t, err)
	entry, err := AsList(list[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, entry[0])
	assert.Nil(t, entry[1])

	item, err := AsList(entry[2])
	require.NoError(t, err)
	count, err := AsInteger(item[1])
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Int64())

	// re-encoding a decoded value is byte-identical
	again, err := Encode(out)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestDecodeMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"i12",
		"5:abc",
		"l",
		"d1:ae",
		"x",
		"n n",
		"d1:ai1e1:ai2ee",
	} {
		_, err := Decode([]byte(in))
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

func TestDecodeHugeLengthPrefix(t *testing.T) {
	for _, in := range []string{
		"9223372036854775807:x",
		"u9223372036854775807:x",
		"l9223372036854775800:abce",
	} {
		assert.NotPanics(t, func() {
			_, err := Decode([]byte(in))
			assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
		})
	}
}
