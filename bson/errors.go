package bson

import "errors"

// Errors returned by Encode. A caller at the I/O boundary should treat
// any of these as recoverable: the connection has not been touched.
var (
	ErrEmbeddedNUL     = errors.New("bson: field name contains an embedded NUL")
	ErrUnsupportedType = errors.New("bson: unsupported value type")
	ErrLongCoefficient = errors.New("bson: decimal128 coefficient requires the long-form encoding, which is not produced")
)

// Errors returned by Decode.
var (
	ErrTruncated  = errors.New("bson: truncated document")
	ErrUnknownTag = errors.New("bson: unknown type tag")
	ErrInvalidUTF8 = errors.New("bson: invalid UTF-8")
	ErrBadLength  = errors.New("bson: length prefix does not match document framing")
)
