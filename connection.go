package nmongo

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io/ioutil"
	"net"
	"os"
	"sync"
	"time"

	"github.com/facebookgo/gangliamr"
	"github.com/facebookgo/stackerr"
	"github.com/facebookgo/stats"

	"github.com/nakagami/nmongo/bson"
	"github.com/nakagami/nmongo/scram"
	"github.com/nakagami/nmongo/wire"
)

var errNotConnected = errors.New("nmongo: connection is not started")

// DialInfo describes how to reach and authenticate against a single
// mongod, per spec.md §6.2:
//
//	connect(host, database, user=null, password="", port=27017,
//	        useSSL=false, sslCACerts=null)
type DialInfo struct {
	Host       string
	Port       int // defaults to 27017 when zero
	Database   string
	User       string
	Password   string
	UseSSL     bool
	SSLCACerts string // optional path to a CA certificate file

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Connection owns a single TCP (or TLS) stream to a mongod and all of
// the per-connection state the wire protocol requires: a monotonic
// request-id counter, an ObjectID generator, the selected database,
// and the optional credential used at Start time.
//
// Not safe for concurrent use -- spec.md §5 requires callers to
// externally serialize, since the protocol allows at most one
// outstanding request at a time. Connection only implements Start and
// Stop (github.com/facebookgo/startstop's Starter/Stopper interfaces)
// so it can be wired the way the teacher wires ReplicaSet in
// cmd/dvara/main.go; ordinary callers should use Dial instead.
type Connection struct {
	DialInfo

	Log   Logger       `inject:""`
	Stats stats.Client `inject:""`

	conn   net.Conn
	reqIDs wire.RequestIDCounter
	oids   *bson.ObjectIDGenerator

	closedMu sync.RWMutex
	closed   bool

	ServerConnected gangliamr.Meter
	AuthSuccess     gangliamr.Meter
	AuthFailure     gangliamr.Meter
	CommandSent     gangliamr.Counter
	CommandOK       gangliamr.Counter
	CommandErr      gangliamr.Counter

	// metricsRegistered guards the fields above: they are backed by a nil
	// embedded metrics.Meter/metrics.Counter until RegisterMetrics runs,
	// and Mark/Inc on a nil embedded interface panics. Only the CLI in
	// cmd/nmongo wires a gangliamr.Registry; ordinary library use via
	// Dial never calls RegisterMetrics, so these stay no-ops for it.
	metricsRegistered bool
}

// RegisterMetrics registers Connection's ganglia-reportable counters,
// mirroring the teacher's ReplicaSet.RegisterMetrics.
func (c *Connection) RegisterMetrics(registry *gangliamr.Registry) {
	group := []string{"nmongo"}

	c.ServerConnected = gangliamr.Meter{Name: "server_connected", Title: "Server Connected", Units: "conn/sec", Groups: group}
	registry.Register(&c.ServerConnected)

	c.AuthSuccess = gangliamr.Meter{Name: "auth_success", Title: "Authentication Succeeded", Units: "auth/sec", Groups: group}
	registry.Register(&c.AuthSuccess)

	c.AuthFailure = gangliamr.Meter{Name: "auth_failure", Title: "Authentication Failed", Units: "auth/sec", Groups: group}
	registry.Register(&c.AuthFailure)

	c.CommandSent = gangliamr.Counter{Name: "command_sent", Title: "Commands Sent", Units: "cmd", Groups: group}
	registry.Register(&c.CommandSent)

	c.CommandOK = gangliamr.Counter{Name: "command_ok", Title: "Commands Succeeded", Units: "cmd", Groups: group}
	registry.Register(&c.CommandOK)

	c.CommandErr = gangliamr.Counter{Name: "command_err", Title: "Commands Failed", Units: "cmd", Groups: group}
	registry.Register(&c.CommandErr)

	c.metricsRegistered = true
}

func (c *Connection) markMeter(m *gangliamr.Meter) {
	if c.metricsRegistered {
		m.Mark(1)
	}
}

func (c *Connection) incCounter(ctr *gangliamr.Counter) {
	if c.metricsRegistered {
		ctr.Inc(1)
	}
}

// Dial connects, optionally wraps the socket in TLS, optionally
// authenticates, and returns a ready-to-use Connection. This is the
// ordinary entry point; Start/Stop exist for embedding in a
// startstop-managed object graph.
func Dial(info DialInfo) (*Connection, error) {
	c := &Connection{DialInfo: info}
	if err := c.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Connection) logger() Logger {
	if c.Log != nil {
		return c.Log
	}
	return noopLogger{}
}

// Start dials the server, installs TLS if configured, and
// authenticates if a User was given. Implements
// github.com/facebookgo/startstop's Starter interface.
func (c *Connection) Start() error {
	port := c.Port
	if port == 0 {
		port = 27017
	}
	addr := fmt.Sprintf("%s:%d", c.Host, port)

	rawConn, err := net.Dial("tcp", addr)
	if err != nil {
		stats.BumpSum(c.Stats, "nmongo.connect.failure", 1)
		return newTransportError(err)
	}

	if c.UseSSL {
		tlsConfig := &tls.Config{ServerName: c.Host}
		if c.SSLCACerts != "" {
			pool := x509.NewCertPool()
			pem, err := ioutil.ReadFile(c.SSLCACerts)
			if err != nil {
				rawConn.Close()
				return newTransportError(err)
			}
			if !pool.AppendCertsFromPEM(pem) {
				rawConn.Close()
				return newTransportError(fmt.Errorf("nmongo: no certificates parsed from %s", c.SSLCACerts))
			}
			tlsConfig.RootCAs = pool
		}
		tlsConn := tls.Client(rawConn, tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			rawConn.Close()
			return newTransportError(err)
		}
		c.conn = tlsConn
	} else {
		c.conn = rawConn
	}

	stats.BumpSum(c.Stats, "nmongo.connect.success", 1)
	c.markMeter(&c.ServerConnected)

	c.oids = bson.NewObjectIDGenerator(c.machineIDSource())

	if c.User != "" {
		if err := c.authenticate(); err != nil {
			c.conn.Close()
			return err
		}
	}

	return nil
}

// Stop closes the underlying connection. Implements
// github.com/facebookgo/startstop's Stopper interface.
func (c *Connection) Stop() error {
	return c.Close()
}

// Close closes the underlying connection. Safe to call more than
// once.
func (c *Connection) Close() error {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Connection) isClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// poison marks the connection unusable, matching spec.md §4.7: a
// socket read returning zero bytes (or any transport error) is fatal
// and the connection is not reused.
func (c *Connection) poison() {
	c.closedMu.Lock()
	c.closed = true
	c.closedMu.Unlock()
}

// machineIDSource returns the hostname, or -- if none is available --
// falls back to a whatsmyuri round trip once the socket is up (see
// SPEC_FULL.md Open Question 3).
func (c *Connection) machineIDSource() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	if uri, err := c.whatsmyuri(); err == nil {
		return uri
	}
	return "nmongo-unknown-host"
}

func (c *Connection) whatsmyuri() (string, error) {
	reply, err := c.runCommandOn("admin", bson.D{{Key: "whatsmyuri", Value: int32(1)}})
	if err != nil {
		return "", err
	}
	if v, ok := reply.Lookup("you"); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("nmongo: whatsmyuri reply missing 'you'")
}

// RunCommand implements spec.md §4.4: select the command name, frame
// an OP_COMMAND message with the next request id, send it, and decode
// the single reply document. database defaults to the connection's
// configured database when empty.
func (c *Connection) RunCommand(database string, params bson.D) (bson.D, error) {
	if database == "" {
		database = c.Database
	}
	return c.runCommandOn(database, params)
}

func (c *Connection) runCommandOn(database string, params bson.D) (bson.D, error) {
	if c.conn == nil {
		return nil, newTransportError(errNotConnected)
	}
	if c.isClosed() {
		return nil, newTransportError(errors.New("nmongo: connection is closed"))
	}

	cmdName, err := selectCommandName(params)
	if err != nil {
		return nil, err
	}

	encodedArgs, err := bson.EncodeFirst(params, cmdName)
	if err != nil {
		return nil, newEncodeError(err)
	}

	reqID := c.reqIDs.Next()
	packed := wire.CommandMessage{
		Database:    database,
		CommandName: cmdName,
		CommandArgs: encodedArgs,
	}.Pack(reqID)

	stats.BumpSum(c.Stats, "nmongo.command.sent", 1)
	c.incCounter(&c.CommandSent)
	c.logger().Debugf("nmongo: sending %s on %s: %s", cmdName, database, DumpDocument(params))

	if c.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.WriteTimeout))
	}
	if err := wire.WriteMessage(c.conn, packed); err != nil {
		c.poison()
		c.logger().Errorf("nmongo: write failed, poisoning connection: %s", err)
		stats.BumpSum(c.Stats, "nmongo.command.transport_error", 1)
		c.incCounter(&c.CommandErr)
		return nil, newTransportError(err)
	}

	if c.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.ReadTimeout))
	}
	header, body, err := wire.ReadOne(c.conn)
	if err != nil {
		c.poison()
		c.logger().Errorf("nmongo: read failed, poisoning connection: %s", err)
		stats.BumpSum(c.Stats, "nmongo.command.transport_error", 1)
		c.incCounter(&c.CommandErr)
		if stackerr.HasUnderlying(err, stackerr.Equals(wire.ErrTruncated)) {
			return nil, newTransportError(wire.ErrTruncated)
		}
		return nil, newTransportError(err)
	}

	if header.OpCode != wire.OpCommandReply {
		c.poison()
		c.incCounter(&c.CommandErr)
		return nil, newProtocolError("expected OP_COMMANDREPLY (%s), got %s", wire.OpCommandReply, header.OpCode)
	}

	reply, err := wire.ParseCommandReply(body)
	if err != nil {
		c.poison()
		c.incCounter(&c.CommandErr)
		return nil, newProtocolError("malformed OP_COMMANDREPLY body: %s", err)
	}

	doc, _, err := bson.Decode(reply.CommandReply)
	if err != nil {
		c.incCounter(&c.CommandErr)
		return nil, newDecodeError(err)
	}

	c.incCounter(&c.CommandOK)
	return doc, nil
}

// authenticate drives the SCRAM-SHA-1 handshake described in spec.md
// §4.5, over the "admin" database.
func (c *Connection) authenticate() error {
	client, err := scram.NewClient(c.User, c.Password)
	if err != nil {
		return newAuthError(err)
	}

	startReply, err := c.runCommandOn("admin", bson.D{
		{Key: "saslStart", Value: float64(1)},
		{Key: "mechanism", Value: "SCRAM-SHA-1"},
		{Key: "payload", Value: bson.Binary{Data: client.FirstPayload()}},
	})
	if err != nil {
		return newAuthError(err)
	}
	if err := requireOK(startReply); err != nil {
		stats.BumpSum(c.Stats, "nmongo.auth.failure", 1)
		c.markMeter(&c.AuthFailure)
		return newAuthError(err)
	}

	conversationID, _ := startReply.Lookup("conversationId")
	serverFirst, err := payloadBytes(startReply)
	if err != nil {
		return newAuthError(err)
	}

	if _, _, err := client.ParseServerFirst(serverFirst); err != nil {
		stats.BumpSum(c.Stats, "nmongo.auth.failure", 1)
		c.markMeter(&c.AuthFailure)
		return newAuthError(err)
	}

	continueReply, err := c.runCommandOn("admin", bson.D{
		{Key: "saslContinue", Value: float64(1)},
		{Key: "conversationId", Value: conversationID},
		{Key: "payload", Value: bson.Binary{Data: client.FinalPayload()}},
	})
	if err != nil {
		return newAuthError(err)
	}
	if err := requireOK(continueReply); err != nil {
		stats.BumpSum(c.Stats, "nmongo.auth.failure", 1)
		c.markMeter(&c.AuthFailure)
		return newAuthError(err)
	}

	finalPayload, err := payloadBytes(continueReply)
	if err != nil {
		return newAuthError(err)
	}
	if err := client.VerifyServerFinal(finalPayload); err != nil {
		stats.BumpSum(c.Stats, "nmongo.auth.failure", 1)
		c.markMeter(&c.AuthFailure)
		return newAuthError(err)
	}

	if done, _ := continueReply.Lookup("done"); done != true {
		finishReply, err := c.runCommandOn("admin", bson.D{
			{Key: "saslContinue", Value: float64(1)},
			{Key: "conversationId", Value: conversationID},
			{Key: "payload", Value: bson.Binary{}},
		})
		if err != nil {
			return newAuthError(err)
		}
		if err := requireOK(finishReply); err != nil {
			stats.BumpSum(c.Stats, "nmongo.auth.failure", 1)
			return newAuthError(err)
		}
	}

	stats.BumpSum(c.Stats, "nmongo.auth.success", 1)
	c.markMeter(&c.AuthSuccess)
	return nil
}

func payloadBytes(reply bson.D) ([]byte, error) {
	v, ok := reply.Lookup("payload")
	if !ok {
		return nil, fmt.Errorf("nmongo: reply missing 'payload'")
	}
	switch p := v.(type) {
	case bson.Binary:
		return p.Data, nil
	case string:
		return []byte(p), nil
	default:
		return nil, fmt.Errorf("nmongo: unexpected payload type %T", v)
	}
}

// requireOK returns an error built from a reply's errmsg when ok is
// falsy. Used internally by authenticate; command helpers use the
// equivalent checkOK in helpers.go.
func requireOK(reply bson.D) error {
	ok, _ := reply.Lookup("ok")
	if isOK(ok) {
		return nil
	}
	errmsg, _ := reply.Lookup("errmsg")
	msg, _ := errmsg.(string)
	return fmt.Errorf("%s", msg)
}

func isOK(v interface{}) bool {
	switch n := v.(type) {
	case float64:
		return n == 1
	case int32:
		return n == 1
	case int64:
		return n == 1
	case bool:
		return n
	default:
		return false
	}
}
