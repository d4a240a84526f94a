package wire

import (
	"bytes"
	"testing"

	"github.com/facebookgo/ensure"
)

func TestMsgHeaderString(t *testing.T) {
	m := &MsgHeader{
		OpCode:        OpQuery,
		MessageLength: 10,
		RequestID:     42,
		ResponseTo:    43,
	}
	ensure.DeepEqual(t, m.String(), "opCode:QUERY (2004) msgLen:10 reqID:42 respID:43")
}

func TestOpCodeString(t *testing.T) {
	ensure.DeepEqual(t, OpCommand.String(), "COMMAND")
	ensure.DeepEqual(t, OpCommandReply.String(), "COMMAND_REPLY")
	ensure.DeepEqual(t, OpCode(99999).String(), "UNKNOWN")
}

func TestHeaderRoundTrip(t *testing.T) {
	m := MsgHeader{MessageLength: 16, RequestID: 7, ResponseTo: 0, OpCode: OpCommand}
	var got MsgHeader
	got.FromWire(m.ToWire())
	ensure.DeepEqual(t, got, m)
}

func TestReadOneTruncated(t *testing.T) {
	_, _, err := ReadOne(bytes.NewReader(nil))
	ensure.NotNil(t, err)
}

func TestRequestIDCounterMonotonic(t *testing.T) {
	var c RequestIDCounter
	a := c.Next()
	b := c.Next()
	ensure.DeepEqual(t, a, int32(0))
	ensure.DeepEqual(t, b, int32(1))
	ensure.True(t, b > a)
}

func TestCommandMessagePack(t *testing.T) {
	msg := CommandMessage{
		Database:    "admin",
		CommandName: "ping",
		CommandArgs: emptyDoc,
	}
	packed := msg.Pack(5)
	var h MsgHeader
	h.FromWire(packed[:HeaderLen])
	ensure.DeepEqual(t, h.OpCode, OpCommand)
	ensure.DeepEqual(t, h.RequestID, int32(5))
	ensure.DeepEqual(t, int(h.MessageLength), len(packed))
}

func TestParseCommandReply(t *testing.T) {
	var body []byte
	body = append(body, emptyDoc...)
	body = append(body, emptyDoc...)
	body = append(body, emptyDoc...)
	reply, err := ParseCommandReply(body)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, reply.Metadata, emptyDoc)
	ensure.DeepEqual(t, reply.CommandReply, emptyDoc)
	ensure.DeepEqual(t, reply.OutputDocs, emptyDoc)
}
