package nmongo

import (
	"fmt"

	"github.com/facebookgo/stackerr"
)

// Error kinds. spec.md §7 describes these as a taxonomy rather than a
// single type; each gets its own Go type so callers can discriminate
// between them while still getting a stack trace from stackerr at the
// point of creation. stackerr.Error exposes Underlying(), not Unwrap(),
// so discrimination goes through stackerr.HasUnderlying paired with
// stackerr.Equals or a type assertion over stackerr.Underlying(err),
// not errors.As/errors.Is -- see connection.go's ErrTruncated check.

// TransportError wraps a socket/TLS failure. Fatal to the connection.
type TransportError struct{ Underlying error }

func (e *TransportError) Error() string { return "nmongo: transport error: " + e.Underlying.Error() }
func (e *TransportError) Unwrap() error { return e.Underlying }

func newTransportError(err error) error {
	if err == nil {
		return nil
	}
	return stackerr.Wrap(&TransportError{Underlying: err})
}

// ProtocolError is returned when a framed reply has the wrong opcode
// or malformed length. Fatal to the connection.
type ProtocolError struct{ Message string }

func (e *ProtocolError) Error() string { return "nmongo: protocol error: " + e.Message }

func newProtocolError(format string, args ...interface{}) error {
	return stackerr.Wrap(&ProtocolError{Message: fmt.Sprintf(format, args...)})
}

// DecodeError wraps a malformed-BSON failure on input. Recoverable:
// the connection stays usable since the error was caught before any
// further I/O was attempted.
type DecodeError struct{ Underlying error }

func (e *DecodeError) Error() string { return "nmongo: decode error: " + e.Underlying.Error() }
func (e *DecodeError) Unwrap() error { return e.Underlying }

func newDecodeError(err error) error {
	if err == nil {
		return nil
	}
	return stackerr.Wrap(&DecodeError{Underlying: err})
}

// EncodeError wraps an unsupported-value-type failure on output.
// Raised before any I/O is attempted.
type EncodeError struct{ Underlying error }

func (e *EncodeError) Error() string { return "nmongo: encode error: " + e.Underlying.Error() }
func (e *EncodeError) Unwrap() error { return e.Underlying }

func newEncodeError(err error) error {
	if err == nil {
		return nil
	}
	return stackerr.Wrap(&EncodeError{Underlying: err})
}

// OperationalError is raised by command helpers (not by RunCommand
// itself) when a reply's `ok` field is falsy. Per-call, non-fatal.
type OperationalError struct {
	Command string
	Errmsg  string
	Reply   interface{}
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("nmongo: %s failed: %s", e.Command, e.Errmsg)
}

func newOperationalError(command, errmsg string, reply interface{}) error {
	return stackerr.Wrap(&OperationalError{Command: command, Errmsg: errmsg, Reply: reply})
}

// AuthError wraps a SCRAM step failure or server rejection. Fatal to
// the connection: authentication cannot resume mid-handshake.
type AuthError struct{ Underlying error }

func (e *AuthError) Error() string { return "nmongo: auth error: " + e.Underlying.Error() }
func (e *AuthError) Unwrap() error { return e.Underlying }

func newAuthError(err error) error {
	if err == nil {
		return nil
	}
	return stackerr.Wrap(&AuthError{Underlying: err})
}

// BadCommand is raised before any I/O when a parameter document does
// not identify exactly one known command (or, ambiguously, more than
// one with no findAndModify tiebreaker).
type BadCommand struct{ Doc interface{} }

func (e *BadCommand) Error() string {
	return fmt.Sprintf("nmongo: parameter document does not identify a known command: %v", e.Doc)
}

func newBadCommand(doc interface{}) error {
	return stackerr.Wrap(&BadCommand{Doc: doc})
}
