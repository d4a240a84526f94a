package wire

import (
	"fmt"
	"io"

	"github.com/facebookgo/stackerr"
)

// HeaderLen is the fixed size, in bytes, of every message header.
const HeaderLen = 16

// MsgHeader is the mongo message header shared by every opcode.
type MsgHeader struct {
	// MessageLength is the total message size, including this header.
	MessageLength int32
	// RequestID is the identifier for this message.
	RequestID int32
	// ResponseTo is the RequestID of the message being responded to.
	// Zero on requests.
	ResponseTo int32
	// OpCode is the opcode of the body that follows.
	OpCode OpCode
}

// ToWire converts the MsgHeader to its wire representation.
func (m MsgHeader) ToWire() []byte {
	var d [HeaderLen]byte
	b := d[:]
	SetInt32(b, 0, m.MessageLength)
	SetInt32(b, 4, m.RequestID)
	SetInt32(b, 8, m.ResponseTo)
	SetInt32(b, 12, int32(m.OpCode))
	return b
}

// FromWire reads the wire bytes into this object.
func (m *MsgHeader) FromWire(b []byte) {
	m.MessageLength = GetInt32(b, 0)
	m.RequestID = GetInt32(b, 4)
	m.ResponseTo = GetInt32(b, 8)
	m.OpCode = OpCode(GetInt32(b, 12))
}

// WriteTo writes the header to w.
func (m *MsgHeader) WriteTo(w io.Writer) error {
	b := m.ToWire()
	n, err := w.Write(b)
	if err != nil {
		return stackerr.Wrap(err)
	}
	if n != len(b) {
		return stackerr.Wrap(errWrite)
	}
	return nil
}

// String returns a string representation of the header. Useful for
// debugging.
func (m *MsgHeader) String() string {
	return fmt.Sprintf(
		"opCode:%s (%d) msgLen:%d reqID:%d respID:%d",
		m.OpCode,
		m.OpCode,
		m.MessageLength,
		m.RequestID,
		m.ResponseTo,
	)
}

// ReadHeader reads a single 16-byte header from r.
func ReadHeader(r io.Reader) (*MsgHeader, error) {
	var d [HeaderLen]byte
	b := d[:]
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errOrTruncated(err)
	}
	h := MsgHeader{}
	h.FromWire(b)
	return &h, nil
}
