package bson

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/facebookgo/stackerr"
)

// Decode reads one BSON document from the front of b and returns it
// along with the remaining, unconsumed bytes.
func Decode(b []byte) (D, []byte, error) {
	if len(b) < 4 {
		return nil, nil, stackerr.Wrap(ErrTruncated)
	}
	total := int(binary.LittleEndian.Uint32(b[0:4]))
	if total < 5 || total > len(b) {
		return nil, nil, stackerr.Wrap(ErrBadLength)
	}
	if b[total-1] != 0x00 {
		return nil, nil, stackerr.Wrap(ErrBadLength)
	}

	payload := b[4 : total-1]
	rest := b[total:]

	var d D
	for len(payload) > 0 {
		tag := Kind(payload[0])
		payload = payload[1:]

		name, remainder, err := readCStringBytes(payload)
		if err != nil {
			return nil, nil, err
		}
		if !utf8.Valid(name) {
			return nil, nil, stackerr.Wrap(ErrInvalidUTF8)
		}
		payload = remainder

		val, remainder, err := decodeValue(tag, payload)
		if err != nil {
			return nil, nil, err
		}
		payload = remainder

		d = append(d, E{Key: string(name), Value: val})
	}

	return d, rest, nil
}

func readCStringBytes(b []byte) ([]byte, []byte, error) {
	for i, c := range b {
		if c == 0x00 {
			return b[:i], b[i+1:], nil
		}
	}
	return nil, nil, stackerr.Wrap(ErrTruncated)
}

func decodeValue(tag Kind, b []byte) (interface{}, []byte, error) {
	switch tag {
	case KindDouble:
		if len(b) < 8 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b[:8])), b[8:], nil

	case KindString, KindJavaScript:
		s, rest, err := decodeLenString(b)
		if err != nil {
			return nil, nil, err
		}
		if tag == KindJavaScript {
			return JavaScript(s), rest, nil
		}
		return s, rest, nil

	case KindDocument:
		doc, rest, err := Decode(b)
		if err != nil {
			return nil, nil, err
		}
		return doc, rest, nil

	case KindArray:
		doc, rest, err := Decode(b)
		if err != nil {
			return nil, nil, err
		}
		return docToArray(doc), rest, nil

	case KindBinary:
		if len(b) < 5 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		size := int(binary.LittleEndian.Uint32(b[0:4]))
		if size < 0 || 5+size > len(b) {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		subtype := b[4]
		data := append([]byte(nil), b[5:5+size]...)
		return Binary{Subtype: subtype, Data: data}, b[5+size:], nil

	case KindUndefined:
		return nil, b, nil

	case KindObjectID:
		if len(b) < 12 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		var id ObjectID
		copy(id[:], b[:12])
		return id, b[12:], nil

	case KindBool:
		if len(b) < 1 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		return b[0] != 0x00, b[1:], nil

	case KindDateTime:
		if len(b) < 8 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		return DateTime(int64(binary.LittleEndian.Uint64(b[:8]))), b[8:], nil

	case KindNull:
		return nil, b, nil

	case KindInt32:
		if len(b) < 4 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		return int32(binary.LittleEndian.Uint32(b[:4])), b[4:], nil

	case KindTimestamp:
		if len(b) < 8 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		var ts Timestamp
		copy(ts[:], b[:8])
		return ts, b[8:], nil

	case KindInt64:
		if len(b) < 8 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		return int64(binary.LittleEndian.Uint64(b[:8])), b[8:], nil

	case KindDecimal128:
		if len(b) < 16 {
			return nil, nil, stackerr.Wrap(ErrTruncated)
		}
		dec, err := decodeDecimal128(b[:16])
		if err != nil {
			return nil, nil, err
		}
		return dec, b[16:], nil

	default:
		return nil, nil, stackerr.Wrap(ErrUnknownTag)
	}
}

func decodeLenString(b []byte) (string, []byte, error) {
	if len(b) < 4 {
		return "", nil, stackerr.Wrap(ErrTruncated)
	}
	size := int(binary.LittleEndian.Uint32(b[0:4]))
	if size < 1 || 4+size > len(b) {
		return "", nil, stackerr.Wrap(ErrTruncated)
	}
	str := b[4 : 4+size-1]
	if b[4+size-1] != 0x00 {
		return "", nil, stackerr.Wrap(ErrBadLength)
	}
	if !utf8.Valid(str) {
		return "", nil, stackerr.Wrap(ErrInvalidUTF8)
	}
	return string(str), b[4+size:], nil
}

// docToArray converts a decoded document whose keys are decimal
// string indices into an ordered A, sorted numerically.
func docToArray(d D) A {
	sorted := make([]E, len(d))
	copy(sorted, d)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, errA := strconv.Atoi(sorted[i].Key)
		b, errB := strconv.Atoi(sorted[j].Key)
		if errA != nil || errB != nil {
			return sorted[i].Key < sorted[j].Key
		}
		return a < b
	})
	out := make(A, len(sorted))
	for i, e := range sorted {
		out[i] = e.Value
	}
	return out
}
