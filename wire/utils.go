package wire

import (
	"errors"
	"io"

	"github.com/facebookgo/stackerr"
)

var errWrite = errors.New("wire: incorrect number of bytes written")

// ErrTruncated is returned whenever the stream closes in the middle of
// a message. A connection that sees this error is no longer usable.
var ErrTruncated = errors.New("wire: truncated message")

// errOrTruncated turns a plain io.EOF/io.ErrUnexpectedEOF bubbled up
// mid-message into ErrTruncated, the way the protocol's "strict
// request/reply" contract (spec.md §4.7) expects it to be reported.
func errOrTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return stackerr.Wrap(ErrTruncated)
	}
	return stackerr.Wrap(err)
}

const x00 = byte(0)

// all data in the MongoDB wire protocol is little-endian.

// GetInt32 reads a little-endian int32 from b at pos.
func GetInt32(b []byte, pos int) int32 {
	return (int32(b[pos+0])) |
		(int32(b[pos+1]) << 8) |
		(int32(b[pos+2]) << 16) |
		(int32(b[pos+3]) << 24)
}

// SetInt32 writes i as a little-endian int32 into b at pos.
func SetInt32(b []byte, pos int, i int32) {
	b[pos] = byte(i)
	b[pos+1] = byte(i >> 8)
	b[pos+2] = byte(i >> 16)
	b[pos+3] = byte(i >> 24)
}
