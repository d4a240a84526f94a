// Package bson implements a bidirectional codec between Go values and
// the BSON wire format used by MongoDB's OP_COMMAND/OP_COMMANDREPLY
// messages.
//
// A document is represented as D, an ordered slice of key/value pairs
// rather than a Go map, because field order must round-trip and the
// command dispatcher relies on being able to hoist a specific key to
// the front of the wire encoding (spec "first-key hoisting").
package bson

import "fmt"

// Kind identifies a BSON value's wire type tag.
type Kind byte

// The BSON type tags this codec knows how to encode and decode.
const (
	KindDouble     Kind = 0x01
	KindString     Kind = 0x02
	KindDocument   Kind = 0x03
	KindArray      Kind = 0x04
	KindBinary     Kind = 0x05
	KindUndefined  Kind = 0x06 // decodes to nil, like KindNull; never produced
	KindObjectID   Kind = 0x07
	KindBool       Kind = 0x08
	KindDateTime   Kind = 0x09
	KindNull       Kind = 0x0a
	KindJavaScript Kind = 0x0d
	KindInt32      Kind = 0x10
	KindTimestamp  Kind = 0x11
	KindInt64      Kind = 0x12
	KindDecimal128 Kind = 0x13
)

// D is an ordered BSON document: a sequence of key/value pairs. Use D
// rather than a map whenever field order matters, which for this
// client is always (command-name hoisting depends on it).
type D []E

// E is a single element of a D.
type E struct {
	Key   string
	Value interface{}
}

// Map builds a D from the given key/value pairs in argument order.
// Panics if len(kvs) is odd.
func Map(kvs ...interface{}) D {
	if len(kvs)%2 != 0 {
		panic("bson: Map requires an even number of arguments")
	}
	d := make(D, 0, len(kvs)/2)
	for i := 0; i < len(kvs); i += 2 {
		key, ok := kvs[i].(string)
		if !ok {
			panic(fmt.Sprintf("bson: Map key %d is not a string", i))
		}
		d = append(d, E{Key: key, Value: kvs[i+1]})
	}
	return d
}

// Lookup returns the value of the first element with the given key,
// and whether it was found.
func (d D) Lookup(key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// A is a BSON array: an ordered sequence of values, encoded with
// decimal-string index keys.
type A []interface{}

// Binary is BSON binary data. This codec only ever produces subtype
// 0x00 (generic), but preserves whatever subtype it decodes.
type Binary struct {
	Subtype byte
	Data    []byte
}

// ObjectID is MongoDB's 12-byte document identifier: 4-byte big-endian
// seconds-since-epoch, 3-byte machine hash, 2-byte process id, 3-byte
// counter.
type ObjectID [12]byte

// IsZero reports whether id is the zero ObjectID.
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

// String renders the ObjectID as lowercase hex, the conventional
// textual form.
func (id ObjectID) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 24)
	for i, b := range id {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0x0f]
	}
	return string(buf)
}

// DateTime is milliseconds since the Unix epoch, stored as a signed
// 64-bit integer per the BSON spec.
type DateTime int64

// JavaScript is raw JavaScript source carried as a BSON value.
type JavaScript string

// Timestamp is an opaque 8-byte internal MongoDB timestamp. This
// client treats it as a passthrough value; it does not interpret the
// increment/seconds split.
type Timestamp [8]byte

// Null is an explicit BSON null value for encoding; it encodes exactly
// like a nil value. Decode never produces it: both null and undefined
// fields decode to nil (use D.Lookup's second result to tell a null
// field from an absent one).
type Null struct{}
