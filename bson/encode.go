package bson

import (
	"encoding/binary"
	"math"
	"time"
	"unicode/utf8"

	"github.com/facebookgo/stackerr"
)

// canonicalInt32Threshold is the source implementation's boundary
// between encoding a generic integer as Int32 vs Int64. It is almost
// certainly a typo for math.MaxInt32 (0x7FFFFFFF) -- see SPEC_FULL.md
// Open Question 1 -- but this codec preserves it verbatim rather than
// silently "fixing" the source's behavior.
//
// The arguably-correct threshold, left here for the next reader who
// wants it: const correctInt32Threshold = math.MaxInt32
const canonicalInt32Threshold = 0x8FFFFFFF

// Encode returns the BSON encoding of d.
func Encode(d D) ([]byte, error) {
	return EncodeFirst(d, "")
}

// EncodeFirst returns the BSON encoding of d with the element named
// firstKey, if present, moved to the front of the wire encoding. This
// implements the command dispatcher's "first-key hoisting" rule:
// MongoDB's OP_COMMAND requires the command name to be the first key
// of the parameter document.
func EncodeFirst(d D, firstKey string) ([]byte, error) {
	var body []byte
	var err error

	if firstKey != "" {
		if v, ok := d.Lookup(firstKey); ok {
			body, err = appendElement(body, firstKey, v)
			if err != nil {
				return nil, err
			}
		}
	}

	for _, e := range d {
		if e.Key == firstKey {
			continue
		}
		body, err = appendElement(body, e.Key, e.Value)
		if err != nil {
			return nil, err
		}
	}

	total := 4 + len(body) + 1
	out := make([]byte, 4, total)
	binary.LittleEndian.PutUint32(out[0:4], uint32(total))
	out = append(out, body...)
	out = append(out, 0x00)
	return out, nil
}

func appendElement(buf []byte, key string, val interface{}) ([]byte, error) {
	if containsNUL(key) {
		return nil, stackerr.Wrap(ErrEmbeddedNUL)
	}

	kind, body, err := encodeValue(val)
	if err != nil {
		return nil, err
	}

	buf = append(buf, byte(kind))
	buf = append(buf, key...)
	buf = append(buf, 0x00)
	buf = append(buf, body...)
	return buf, nil
}

func containsNUL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 {
			return true
		}
	}
	return false
}

// encodeValue returns the type tag and value-body bytes for val.
func encodeValue(val interface{}) (Kind, []byte, error) {
	switch v := val.(type) {
	case nil, Null:
		return KindNull, nil, nil
	case float64:
		return KindDouble, encodeDouble(v), nil
	case float32:
		return KindDouble, encodeDouble(float64(v)), nil
	case string:
		return KindString, encodeCString(v), nil
	case D:
		body, err := Encode(v)
		return KindDocument, body, err
	case A:
		body, err := encodeArray(v)
		return KindArray, body, err
	case []interface{}:
		body, err := encodeArray(A(v))
		return KindArray, body, err
	case Binary:
		return KindBinary, encodeBinary(v), nil
	case []byte:
		return KindBinary, encodeBinary(Binary{Data: v}), nil
	case ObjectID:
		return KindObjectID, v[:], nil
	case bool:
		if v {
			return KindBool, []byte{0x01}, nil
		}
		return KindBool, []byte{0x00}, nil
	case DateTime:
		return KindDateTime, encodeInt64(int64(v)), nil
	case time.Time:
		return KindDateTime, encodeInt64(v.UnixNano() / int64(time.Millisecond)), nil
	case JavaScript:
		return KindJavaScript, encodeCString(string(v)), nil
	case int32:
		return KindInt32, encodeInt32(v), nil
	case int:
		return encodeGenericInt(int64(v)), encodeGenericIntBody(int64(v)), nil
	case int64:
		return KindInt64, encodeInt64(v), nil
	case Timestamp:
		return KindTimestamp, v[:], nil
	case Decimal128:
		b, err := v.MarshalBinary()
		if err != nil {
			return 0, nil, err
		}
		return KindDecimal128, b[:], nil
	default:
		return 0, nil, stackerr.Wrap(ErrUnsupportedType)
	}
}

func encodeGenericInt(n int64) Kind {
	if n > -canonicalInt32Threshold && n < canonicalInt32Threshold {
		return KindInt32
	}
	return KindInt64
}

func encodeGenericIntBody(n int64) []byte {
	if encodeGenericInt(n) == KindInt32 {
		return encodeInt32(int32(n))
	}
	return encodeInt64(n)
}

func encodeDouble(f float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	return b[:]
}

func encodeInt32(n int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(n))
	return b[:]
}

func encodeInt64(n int64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(n))
	return b[:]
}

// encodeCString encodes a BSON "string" value: int32 len+1, utf8
// bytes, trailing NUL. The value is allowed to contain embedded NUL
// bytes; only field names cannot.
func encodeCString(s string) []byte {
	if !utf8.ValidString(s) {
		s = string([]rune(s))
	}
	out := make([]byte, 4, 4+len(s)+1)
	binary.LittleEndian.PutUint32(out, uint32(len(s)+1))
	out = append(out, s...)
	out = append(out, 0x00)
	return out
}

func encodeArray(a A) ([]byte, error) {
	d := make(D, len(a))
	for i, v := range a {
		d[i] = E{Key: arrayIndexKey(i), Value: v}
	}
	return Encode(d)
}

func arrayIndexKey(i int) string {
	if i == 0 {
		return "0"
	}
	var digits [20]byte
	pos := len(digits)
	for i > 0 {
		pos--
		digits[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(digits[pos:])
}

func encodeBinary(b Binary) []byte {
	out := make([]byte, 4, 5+len(b.Data))
	binary.LittleEndian.PutUint32(out, uint32(len(b.Data)))
	out = append(out, b.Subtype)
	out = append(out, b.Data...)
	return out
}
