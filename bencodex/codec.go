package bencodex

import (
	"bytes"
	"math/big"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Encode returns the canonical encoding of v.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeTo(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTo(buf *bytes.Buffer, v Value) error {
	switch x := v.(type) {
	case nil:
		buf.WriteByte('n')
	case bool:
		if x {
			buf.WriteByte('t')
		} else {
			buf.WriteByte('f')
		}
	case int:
		writeInteger(buf, strconv.FormatInt(int64(x), 10))
	case int64:
		writeInteger(buf, strconv.FormatInt(x, 10))
	case uint64:
		writeInteger(buf, strconv.FormatUint(x, 10))
	case *big.Int:
		if x == nil {
			buf.WriteByte('n')
			return nil
		}
		writeInteger(buf, x.String())
	case []byte:
		buf.WriteString(strconv.Itoa(len(x)))
		buf.WriteByte(':')
		buf.Write(x)
	case string:
		buf.WriteByte('u')
		buf.WriteString(strconv.Itoa(len(x)))
		buf.WriteByte(':')
		buf.WriteString(x)
	case List:
		buf.WriteByte('l')
		for _, item := range x {
			if err := encodeTo(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	case Dict:
		keys := make([]Key, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

		buf.WriteByte('d')
		for _, k := range keys {
			if k.text {
				_ = encodeTo(buf, k.raw)
			} else {
				_ = encodeTo(buf, []byte(k.raw))
			}
			if err := encodeTo(buf, x[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('e')
	default:
		return ErrUnsupportedType(v)
	}
	return nil
}

func writeInteger(buf *bytes.Buffer, digits string) {
	buf.WriteByte('i')
	buf.WriteString(digits)
	buf.WriteByte('e')
}

// Decode parses exactly one value from data.
func Decode(data []byte) (Value, error) {
	d := &decoder{data: data}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.data) {
		return nil, ErrMalformedAt(d.pos, "trailing bytes")
	}
	return v, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) peek() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrMalformedAt(d.pos, "unexpected end of input")
	}
	return d.data[d.pos], nil
}

func (d *decoder) value() (Value, error) {
	c, err := d.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case c == 'n':
		d.pos++
		return nil, nil
	case c == 't':
		d.pos++
		return true, nil
	case c == 'f':
		d.pos++
		return false, nil
	case c == 'i':
		d.pos++
		return d.integer()
	case c == 'u':
		d.pos++
		b, err := d.byteString()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(b) {
			return nil, ErrMalformedAt(d.pos, "invalid utf-8 text")
		}
		return string(b), nil
	case c >= '0' && c <= '9':
		return d.byteString()
	case c == 'l':
		d.pos++
		list := List{}
		for {
			c, err := d.peek()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				d.pos++
				return list, nil
			}
			item, err := d.value()
			if err != nil {
				return nil, err
			}
			list = append(list, item)
		}
	case c == 'd':
		d.pos++
		dict := Dict{}
		for {
			c, err := d.peek()
			if err != nil {
				return nil, err
			}
			if c == 'e' {
				d.pos++
				return dict, nil
			}

			var key Key
			if c == 'u' {
				d.pos++
				b, err := d.byteString()
				if err != nil {
					return nil, err
				}
				key = TextKey(string(b))
			} else {
				b, err := d.byteString()
				if err != nil {
					return nil, err
				}
				key = BinaryKey(b)
			}

			if _, dup := dict[key]; dup {
				return nil, ErrMalformedAt(d.pos, "duplicate key "+key.String())
			}
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			dict[key] = v
		}
	}

	return nil, ErrMalformedAt(d.pos, "unknown type prefix "+strconv.QuoteRune(rune(c)))
}

func (d *decoder) integer() (*big.Int, error) {
	end := bytes.IndexByte(d.data[d.pos:], 'e')
	if end <= 0 {
		return nil, ErrMalformedAt(d.pos, "unterminated integer")
	}
	digits := string(d.data[d.pos : d.pos+end])
	n, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, ErrMalformedAt(d.pos, "invalid integer "+strconv.Quote(digits))
	}
	d.pos += end + 1
	return n, nil
}

func (d *decoder) byteString() ([]byte, error) {
	colon := bytes.IndexByte(d.data[d.pos:], ':')
	if colon <= 0 {
		return nil, ErrMalformedAt(d.pos, "missing length prefix")
	}
	length, err := strconv.Atoi(string(d.data[d.pos : d.pos+colon]))
	if err != nil || length < 0 {
		return nil, ErrMalformedAt(d.pos, "invalid length prefix")
	}
	start := d.pos + colon + 1
	// compared this way so a huge prefix cannot overflow
	if length > len(d.data)-start {
		return nil, ErrMalformedAt(d.pos, "length exceeds input")
	}
	d.pos = start + length
	return append([]byte{}, d.data[start:d.pos]...), nil
}
