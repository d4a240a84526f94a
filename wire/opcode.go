// Package wire implements the MongoDB wire protocol framing used by the
// 3.2-3.6 generation of servers: OP_COMMAND/OP_COMMANDREPLY message
// headers, opcode identification, and the little-endian int32 helpers
// the framing uses.
//
// Look at http://docs.mongodb.org/meta-driver/latest/legacy/mongodb-wire-protocol/
// for the protocol this package frames.
package wire

// OpCode identifies the kind of operation carried by a message.
type OpCode int32

// The full set of wire protocol opcodes. Only OpCommand and
// OpCommandReply are produced by this package; the rest are recognized
// for completeness (a proxy or sniffer needs to identify them) but
// never appear on the wire between this client and a server.
const (
	OpReply        = OpCode(1)
	OpMessage      = OpCode(1000)
	OpUpdate       = OpCode(2001)
	OpInsert       = OpCode(2002)
	reserved       = OpCode(2003)
	OpQuery        = OpCode(2004)
	OpGetMore      = OpCode(2005)
	OpDelete       = OpCode(2006)
	OpKillCursors  = OpCode(2007)
	OpCommand      = OpCode(2010)
	OpCommandReply = OpCode(2011)
)

// String returns a human readable representation of the OpCode. Useful
// for debugging and log lines.
func (c OpCode) String() string {
	switch c {
	default:
		return "UNKNOWN"
	case OpReply:
		return "REPLY"
	case OpMessage:
		return "MESSAGE"
	case OpUpdate:
		return "UPDATE"
	case OpInsert:
		return "INSERT"
	case reserved:
		return "RESERVED"
	case OpQuery:
		return "QUERY"
	case OpGetMore:
		return "GET_MORE"
	case OpDelete:
		return "DELETE"
	case OpKillCursors:
		return "KILL_CURSORS"
	case OpCommand:
		return "COMMAND"
	case OpCommandReply:
		return "COMMAND_REPLY"
	}
}
