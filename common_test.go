package nmongo

import (
	"net"
	"os"
	"strconv"
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/facebookgo/mgotest"
)

var disableSlowTests = os.Getenv("GO_RUN_LONG_TEST") == ""

// tLogger adapts testing.TB to Logger, mirroring the teacher's
// common_test.go tLogger but routed through t.Log unconditionally
// since these tests are short-lived.
type tLogger struct{ TB testing.TB }

func (l *tLogger) Error(args ...interface{})                 { l.TB.Log(args...) }
func (l *tLogger) Errorf(format string, args ...interface{}) { l.TB.Logf(format, args...) }
func (l *tLogger) Warn(args ...interface{})                  { l.TB.Log(args...) }
func (l *tLogger) Warnf(format string, args ...interface{})  { l.TB.Logf(format, args...) }
func (l *tLogger) Info(args ...interface{})                  { l.TB.Log(args...) }
func (l *tLogger) Infof(format string, args ...interface{})  { l.TB.Logf(format, args...) }
func (l *tLogger) Debug(args ...interface{})                 { l.TB.Log(args...) }
func (l *tLogger) Debugf(format string, args ...interface{}) { l.TB.Logf(format, args...) }

// Harness spins up a standalone mongod via mgotest and dials it with a
// real Connection, the same pattern as the teacher's
// NewSingleHarness/newHarnessInternal but without the proxy/ReplicaSet
// layer in between: tests exercise Connection directly against the
// server it started.
type Harness struct {
	T      testing.TB
	Server *mgotest.Server
	Conn   *Connection
}

func newHarness(t testing.TB, args ...string) *Harness {
	server := mgotest.NewStartedServer(t, args...)
	host, portStr, err := net.SplitHostPort(server.URL())
	ensure.Nil(t, err)
	port, err := strconv.Atoi(portStr)
	ensure.Nil(t, err)

	conn := &Connection{
		DialInfo: DialInfo{Host: host, Port: port, Database: "test"},
		Log:      &tLogger{TB: t},
	}
	ensure.Nil(t, conn.Start())

	return &Harness{T: t, Server: server, Conn: conn}
}

// NewHarness starts a fresh, unauthenticated standalone mongod.
func NewHarness(t testing.TB) *Harness {
	return newHarness(t)
}

// NewAuthHarness starts a standalone mongod with --auth enabled. The
// harness's Conn dials without credentials; callers create their own
// authenticated Connection against h.Server once a user exists.
func NewAuthHarness(t testing.TB) *Harness {
	if disableSlowTests {
		t.Skip("disabled because it's slow")
	}
	return newHarness(t, "--auth")
}

func (h *Harness) Stop() {
	h.Conn.Close()
	h.Server.Stop()
}

func (h *Harness) DB(name string) *Database {
	return h.Conn.Database(name)
}
