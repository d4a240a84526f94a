package wire

import (
	"bytes"
	"io"
	"sync/atomic"

	"github.com/facebookgo/stackerr"
)

// CommandMessage is the body of an OP_COMMAND request:
//
//	cstring database || cstring commandName || bson commandArgs || bson inputDocs
//
// The core always emits an empty inputDocs document.
type CommandMessage struct {
	Database    string
	CommandName string
	CommandArgs []byte // already-encoded BSON document
	InputDocs   []byte // already-encoded BSON document, normally {}
}

// emptyDoc is the canonical empty BSON document: a 4-byte length
// prefix of 5 followed by the trailing terminator.
var emptyDoc = []byte{0x05, 0x00, 0x00, 0x00, 0x00}

// Pack encodes a full OP_COMMAND message (header + body) ready to be
// written to the wire.
func (m CommandMessage) Pack(requestID int32) []byte {
	inputDocs := m.InputDocs
	if inputDocs == nil {
		inputDocs = emptyDoc
	}

	var body bytes.Buffer
	body.WriteString(m.Database)
	body.WriteByte(x00)
	body.WriteString(m.CommandName)
	body.WriteByte(x00)
	body.Write(m.CommandArgs)
	body.Write(inputDocs)

	header := MsgHeader{
		MessageLength: int32(HeaderLen + body.Len()),
		RequestID:     requestID,
		ResponseTo:    0,
		OpCode:        OpCommand,
	}

	out := make([]byte, 0, header.MessageLength)
	out = append(out, header.ToWire()...)
	out = append(out, body.Bytes()...)
	return out
}

// CommandReplyMessage is the body of an OP_COMMANDREPLY response:
//
//	bson metadata || bson commandReply || bson outputDocs
//
// Only CommandReply is interpreted by this client; metadata and
// outputDocs are read (to keep the stream in sync) but not inspected.
type CommandReplyMessage struct {
	Metadata     []byte
	CommandReply []byte
	OutputDocs   []byte
}

// readOneDoc reads one encoded BSON document from the front of b,
// returning the document bytes and the remainder.
func readOneDoc(b []byte) ([]byte, []byte, error) {
	if len(b) < 4 {
		return nil, nil, stackerr.Wrap(ErrTruncated)
	}
	size := GetInt32(b, 0)
	if size < 5 || int(size) > len(b) {
		return nil, nil, stackerr.Wrap(ErrTruncated)
	}
	return b[:size], b[size:], nil
}

// ParseCommandReply splits a raw OP_COMMANDREPLY body into its three
// constituent documents.
func ParseCommandReply(body []byte) (*CommandReplyMessage, error) {
	metadata, rest, err := readOneDoc(body)
	if err != nil {
		return nil, err
	}
	reply, rest, err := readOneDoc(rest)
	if err != nil {
		return nil, err
	}
	outputDocs, _, err := readOneDoc(rest)
	if err != nil {
		return nil, err
	}
	return &CommandReplyMessage{
		Metadata:     metadata,
		CommandReply: reply,
		OutputDocs:   outputDocs,
	}, nil
}

// RequestIDCounter hands out a monotonically increasing sequence of
// request ids, one per connection. The zero value starts at 0, as
// spec.md §3 requires.
type RequestIDCounter struct {
	next int32
}

// Next returns the next request id. Safe for concurrent use, though
// the protocol itself only ever allows one outstanding request per
// connection at a time.
func (c *RequestIDCounter) Next() int32 {
	return atomic.AddInt32(&c.next, 1) - 1
}

// ReadOne reads exactly one framed message from r: the 16-byte header
// followed by MessageLength-HeaderLen more bytes. Fails with
// ErrTruncated if the stream closes mid-message.
func ReadOne(r io.Reader) (*MsgHeader, []byte, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, nil, err
	}
	bodyLen := int(h.MessageLength) - HeaderLen
	if bodyLen < 0 {
		return nil, nil, stackerr.Wrap(ErrTruncated)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, errOrTruncated(err)
	}
	return h, body, nil
}

// WriteMessage writes a fully packed message to w, looping over
// partial writes the way the protocol's strict request/reply
// discipline requires (spec.md §4.4).
func WriteMessage(w io.Writer, msg []byte) error {
	for len(msg) > 0 {
		n, err := w.Write(msg)
		if err != nil {
			return stackerr.Wrap(err)
		}
		msg = msg[n:]
	}
	return nil
}
