package nmongo

import (
	"errors"

	"github.com/nakagami/nmongo/bson"
)

var errUnexpectedCursorElement = errors.New("nmongo: cursor batch element is not a document")

// Cursor iterates the result set of a find, aggregate, or listCollections
// style command. Mirrors spec.md §4.6: a cursor owns a pending batch, a
// server-side cursor id (0 once exhausted), and issues getMore on demand
// when the local batch runs dry.
//
// Not safe for concurrent use, and -- per SPEC_FULL.md Open Question 4 --
// does not kill the server-side cursor automatically when dropped.
// Callers that abandon a cursor before exhausting it must call Close.
type Cursor struct {
	conn       *Connection
	database   string
	collection string
	batchSize  int32

	id     int64
	batch  bson.A
	pos    int
	closed bool
}

func newCursor(conn *Connection, database, collection string, id int64, firstBatch bson.A, batchSize int32) *Cursor {
	return &Cursor{
		conn:       conn,
		database:   database,
		collection: collection,
		batchSize:  batchSize,
		id:         id,
		batch:      firstBatch,
	}
}

// cursorFromReply builds a Cursor from a command reply's embedded
// `cursor` sub-document, as returned by find/aggregate/listCollections/
// listIndexes.
func cursorFromReply(conn *Connection, database, collection string, reply bson.D) (*Cursor, error) {
	cursorDoc, ok := lookupDoc(reply, "cursor")
	if !ok {
		return nil, newProtocolError("reply missing 'cursor'")
	}
	firstBatch, _ := lookupArray(cursorDoc, "firstBatch")
	id, _ := cursorDoc.Lookup("id")
	return newCursor(conn, database, collection, int64FromAny(id), firstBatch, 0), nil
}

// Next advances the cursor and returns the next document, fetching a
// fresh batch with getMore when the local one is exhausted. The second
// return value is false once the result set is exhausted.
func (c *Cursor) Next() (bson.D, bool, error) {
	for {
		if c.pos < len(c.batch) {
			doc, ok := c.batch[c.pos].(bson.D)
			c.pos++
			if !ok {
				return nil, false, newDecodeError(errUnexpectedCursorElement)
			}
			return doc, true, nil
		}

		if c.id == 0 || c.closed {
			return nil, false, nil
		}

		if err := c.getMore(); err != nil {
			return nil, false, err
		}
	}
}

// All drains the cursor, returning every remaining document, and closes
// the server-side cursor if it is exhausted in the process (a getMore
// reply with cursor id 0 needs no explicit killCursors).
func (c *Cursor) All() ([]bson.D, error) {
	var out []bson.D
	for {
		doc, ok, err := c.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, doc)
	}
}

func (c *Cursor) getMore() error {
	params := bson.D{
		{Key: "getMore", Value: c.id},
		{Key: "collection", Value: c.collection},
	}
	if c.batchSize != 0 {
		params = append(params, bson.E{Key: "batchSize", Value: c.batchSize})
	}
	reply, err := c.conn.RunCommand(c.database, params)
	if err != nil {
		return err
	}
	if err := checkOK("getMore", reply); err != nil {
		return err
	}

	cursorDoc, ok := lookupDoc(reply, "cursor")
	if !ok {
		return newProtocolError("getMore reply missing 'cursor'")
	}
	nextBatch, _ := lookupArray(cursorDoc, "nextBatch")
	id, _ := cursorDoc.Lookup("id")

	c.batch = nextBatch
	c.pos = 0
	c.id = int64FromAny(id)
	return nil
}

// Close kills the server-side cursor, if one is still open. It is the
// caller's responsibility to call this when abandoning a cursor before
// exhausting it -- nothing here does so implicitly.
func (c *Cursor) Close() error {
	if c.closed || c.id == 0 {
		c.closed = true
		return nil
	}
	c.closed = true

	reply, err := c.conn.RunCommand(c.database, bson.D{
		{Key: "killCursors", Value: c.collection},
		{Key: "cursors", Value: bson.A{c.id}},
	})
	if err != nil {
		return err
	}
	return checkOK("killCursors", reply)
}

func int64FromAny(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
