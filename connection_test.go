package nmongo

import (
	"testing"

	"github.com/facebookgo/ensure"
	"github.com/facebookgo/stackerr"

	"github.com/nakagami/nmongo/bson"
)

func hasUnderlyingBadCommand(err error) bool {
	for _, u := range stackerr.Underlying(err) {
		if _, ok := u.(*BadCommand); ok {
			return true
		}
	}
	return false
}

func hasUnderlyingTransportError(err error) bool {
	for _, u := range stackerr.Underlying(err) {
		if _, ok := u.(*TransportError); ok {
			return true
		}
	}
	return false
}

func TestConnectionRunCommandPing(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	reply, err := h.Conn.RunCommand("test", bson.D{{Key: "ping", Value: int32(1)}})
	ensure.Nil(t, err)
	ok, _ := reply.Lookup("ok")
	ensure.True(t, isOK(ok))
}

func TestConnectionRunCommandDefaultsDatabase(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	reply, err := h.Conn.RunCommand("", bson.D{{Key: "ping", Value: int32(1)}})
	ensure.Nil(t, err)
	ok, _ := reply.Lookup("ok")
	ensure.True(t, isOK(ok))
}

func TestConnectionRunCommandBadCommand(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	_, err := h.Conn.RunCommand("test", bson.D{{Key: "notACommand", Value: int32(1)}})
	ensure.NotNil(t, err)
	ensure.True(t, hasUnderlyingBadCommand(err))
}

func TestConnectionPoisonsOnClose(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Server.Stop()

	ensure.Nil(t, h.Conn.Close())
	ensure.True(t, h.Conn.isClosed())

	_, err := h.Conn.RunCommand("test", bson.D{{Key: "ping", Value: int32(1)}})
	ensure.NotNil(t, err)
	ensure.True(t, hasUnderlyingTransportError(err))
}

func TestConnectionWhatsmyuriFallback(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	uri, err := h.Conn.whatsmyuri()
	ensure.Nil(t, err)
	ensure.True(t, uri != "")
}
