package nmongo

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/nakagami/nmongo/bson"
)

func errNilDocumentInBatch(i int) error {
	return fmt.Errorf("nmongo: document at index %d is nil", i)
}

// Collection is a named collection within a Database. Its methods
// mirror MongoCollection from the original implementation, translated
// into command documents sent through Database.RunCommand.
type Collection struct {
	db   *Database
	Name string
}

func (c *Collection) run(cmd string, params bson.D) (bson.D, error) {
	reply, err := c.db.RunCommand(params)
	if err != nil {
		return nil, err
	}
	return reply, checkOK(cmd, reply)
}

// Find issues the `find` command and returns a Cursor over the
// matching documents. A nil projection omits the `projection` field; a
// zero batchSize omits `batchSize` and lets the server pick a default.
func (c *Collection) Find(query bson.D, projection bson.D, batchSize int32) (*Cursor, error) {
	params := bson.D{
		{Key: "find", Value: c.Name},
		{Key: "filter", Value: query},
	}
	if projection != nil {
		params = append(params, bson.E{Key: "projection", Value: projection})
	}
	if batchSize != 0 {
		params = append(params, bson.E{Key: "batchSize", Value: batchSize})
	}
	reply, err := c.run("find", params)
	if err != nil {
		return nil, err
	}
	cur, err := cursorFromReply(c.db.conn, c.db.Name, c.Name, reply)
	if err != nil {
		return nil, err
	}
	cur.batchSize = batchSize
	return cur, nil
}

// FindOne issues a `find` limited to a single document and returns it,
// or (nil, nil) if nothing matched.
func (c *Collection) FindOne(query bson.D, projection bson.D) (bson.D, error) {
	params := bson.D{
		{Key: "find", Value: c.Name},
		{Key: "filter", Value: query},
		{Key: "singleBatch", Value: true},
		{Key: "limit", Value: int32(1)},
	}
	if projection != nil {
		params = append(params, bson.E{Key: "projection", Value: projection})
	}
	reply, err := c.run("find", params)
	if err != nil {
		return nil, err
	}
	cursorDoc, ok := lookupDoc(reply, "cursor")
	if !ok {
		return nil, newProtocolError("find reply missing 'cursor'")
	}
	firstBatch, _ := lookupArray(cursorDoc, "firstBatch")
	if len(firstBatch) != 1 {
		return nil, nil
	}
	doc, ok := firstBatch[0].(bson.D)
	if !ok {
		return nil, newDecodeError(errUnexpectedCursorElement)
	}
	return doc, nil
}

// Insert inserts one or more documents as-is, without assigning
// missing _id fields, and returns the number of documents the server
// reported inserted.
func (c *Collection) Insert(documents ...bson.D) (int32, error) {
	reply, err := c.run("insert", bson.D{
		{Key: "insert", Value: c.Name},
		{Key: "documents", Value: toArray(documents)},
	})
	if err != nil {
		return 0, err
	}
	n, _ := lookupInt32(reply, "n")
	return n, nil
}

// InsertOne inserts a single document, assigning an ObjectID to _id
// when absent, and returns the id used.
func (c *Collection) InsertOne(document bson.D) (interface{}, error) {
	ids, err := c.InsertMany([]bson.D{document})
	if err != nil {
		return nil, err
	}
	return ids[0], nil
}

// InsertMany assigns an ObjectID to every document missing an _id,
// validates the batch, and inserts it in one `insert` command. Batch
// validation errors (documents that are nil, or whose existing _id is
// the zero ObjectID) are aggregated with go-multierror rather than
// failing on the first bad document, so a caller can report every
// problem in the batch at once.
func (c *Collection) InsertMany(documents []bson.D) ([]interface{}, error) {
	var verr *multierror.Error
	for i, d := range documents {
		if d == nil {
			verr = multierror.Append(verr, newEncodeError(errNilDocumentInBatch(i)))
		} else if v, ok := d.Lookup("_id"); ok {
			if oid, isOID := v.(bson.ObjectID); isOID && oid.IsZero() {
				verr = multierror.Append(verr, newEncodeError(fmt.Errorf("nmongo: document at index %d has a zero ObjectID _id", i)))
			}
		}
	}
	if verr.ErrorOrNil() != nil {
		return nil, verr
	}

	ids := make([]interface{}, len(documents))
	for i, d := range documents {
		if v, ok := d.Lookup("_id"); ok {
			ids[i] = v
		} else {
			oid := c.db.GenObjectID()
			documents[i] = append(d, bson.E{Key: "_id", Value: oid})
			ids[i] = oid
		}
	}

	_, err := c.run("insert", bson.D{
		{Key: "insert", Value: c.Name},
		{Key: "documents", Value: toArray(documents)},
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Update issues the `update` command with a single update spec.
func (c *Collection) Update(query, update bson.D, upsert, multi bool) (bson.D, error) {
	spec := bson.D{
		{Key: "q", Value: query},
		{Key: "u", Value: update},
		{Key: "upsert", Value: upsert},
		{Key: "multi", Value: multi},
	}
	return c.run("update", bson.D{
		{Key: "update", Value: c.Name},
		{Key: "updates", Value: bson.A{spec}},
	})
}

// UpdateOne upserts if none match. It passes multi=true to the
// `update` command, matching the original's updateOne verbatim
// (nmongo.py:1156-1160) despite the name -- see DESIGN.md.
func (c *Collection) UpdateOne(query, update bson.D) (bson.D, error) {
	return c.Update(query, update, true, true)
}

// UpdateMany updates every matching document, upserting if none match.
func (c *Collection) UpdateMany(query, update bson.D) (bson.D, error) {
	return c.Update(query, update, true, true)
}

// Remove issues the `delete` command with a single delete spec. limit
// of 1 deletes at most one document; 0 deletes all matches.
func (c *Collection) Remove(query bson.D, limit int32) (int32, error) {
	reply, err := c.run("delete", bson.D{
		{Key: "delete", Value: c.Name},
		{Key: "deletes", Value: bson.A{
			bson.D{{Key: "q", Value: query}, {Key: "limit", Value: limit}},
		}},
	})
	if err != nil {
		return 0, err
	}
	n, _ := lookupInt32(reply, "n")
	return n, nil
}

// DeleteOne deletes at most one matching document.
func (c *Collection) DeleteOne(query bson.D) (int32, error) { return c.Remove(query, 1) }

// DeleteMany deletes every matching document.
func (c *Collection) DeleteMany(query bson.D) (int32, error) { return c.Remove(query, 0) }

// FindAndModify issues the `findAndModify` command and returns the
// `value` field of the reply (the matched/modified document, or nil).
func (c *Collection) FindAndModify(params bson.D) (bson.D, error) {
	full := append(bson.D{{Key: "findAndModify", Value: c.Name}}, params...)
	reply, err := c.run("findAndModify", full)
	if err != nil {
		return nil, err
	}
	v, ok := reply.Lookup("value")
	if !ok {
		return nil, nil
	}
	doc, _ := v.(bson.D)
	return doc, nil
}

// Count issues the `count` command.
func (c *Collection) Count(query bson.D) (int32, error) {
	reply, err := c.run("count", bson.D{
		{Key: "count", Value: c.Name},
		{Key: "query", Value: query},
	})
	if err != nil {
		return 0, err
	}
	n, _ := lookupInt32(reply, "n")
	return n, nil
}

// Distinct issues the `distinct` command and returns the `values`
// array.
func (c *Collection) Distinct(key string, query bson.D) (bson.A, error) {
	reply, err := c.run("distinct", bson.D{
		{Key: "distinct", Value: c.Name},
		{Key: "key", Value: key},
		{Key: "query", Value: query},
	})
	if err != nil {
		return nil, err
	}
	values, _ := lookupArray(reply, "values")
	return values, nil
}

// Aggregate issues the `aggregate` command and returns a Cursor over
// the pipeline's results.
func (c *Collection) Aggregate(pipeline bson.A) (*Cursor, error) {
	reply, err := c.run("aggregate", bson.D{
		{Key: "aggregate", Value: c.Name},
		{Key: "pipeline", Value: pipeline},
		{Key: "cursor", Value: bson.D{}},
	})
	if err != nil {
		return nil, err
	}
	return cursorFromReply(c.db.conn, c.db.Name, c.Name, reply)
}

// CreateIndex issues the `createIndexes` command for a single index.
// When options does not already contain a `name`, one is synthesized
// from the key document the way the server's own drivers do:
// "key1_1_key2_-1".
func (c *Collection) CreateIndex(keys bson.D, options bson.D) (bson.D, error) {
	index := append(bson.D{}, options...)
	index = append(index, bson.E{Key: "key", Value: keys})
	if _, ok := index.Lookup("name"); !ok {
		index = append(index, bson.E{Key: "name", Value: indexName(keys)})
	}
	return c.run("createIndexes", bson.D{
		{Key: "createIndexes", Value: c.Name},
		{Key: "indexes", Value: bson.A{index}},
	})
}

func indexName(keys bson.D) string {
	var name string
	for i, e := range keys {
		if i > 0 {
			name += "_"
		}
		name += e.Key + "_" + indexDirection(e.Value)
	}
	return name
}

func indexDirection(v interface{}) string {
	switch n := v.(type) {
	case int32:
		return strconv.FormatInt(int64(n), 10)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatInt(int64(n), 10)
	default:
		return "1"
	}
}

// GetIndexes issues the `listIndexes` command and drains the resulting
// cursor.
func (c *Collection) GetIndexes() ([]bson.D, error) {
	reply, err := c.run("listIndexes", bson.D{{Key: "listIndexes", Value: c.Name}})
	if err != nil {
		return nil, err
	}
	cur, err := cursorFromReply(c.db.conn, c.db.Name, c.Name, reply)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	return cur.All()
}

// DropIndex drops a single named index. It sends `deleteIndexes`, the
// server's alias for `dropIndexes`, because that is the name in
// knownCommands.
func (c *Collection) DropIndex(name string) (bson.D, error) {
	return c.run("deleteIndexes", bson.D{
		{Key: "deleteIndexes", Value: c.Name},
		{Key: "index", Value: name},
	})
}

// DropIndexes drops every index on the collection (except _id_).
func (c *Collection) DropIndexes() (bson.D, error) {
	return c.DropIndex("*")
}

// Drop issues the `drop` command.
func (c *Collection) Drop() error {
	_, err := c.run("drop", bson.D{{Key: "drop", Value: c.Name}})
	return err
}

// Stats issues the `collStats` command.
func (c *Collection) Stats() (bson.D, error) {
	return c.run("collStats", bson.D{{Key: "collStats", Value: c.Name}})
}

// RenameCollection issues the `renameCollection` admin command, moving
// this collection to newName within the same database.
func (c *Collection) RenameCollection(newName string) (bson.D, error) {
	full := c.db.Name + "." + c.Name
	to := c.db.Name + "." + newName
	reply, err := c.db.conn.RunCommand("admin", bson.D{
		{Key: "renameCollection", Value: full},
		{Key: "to", Value: to},
	})
	if err != nil {
		return nil, err
	}
	return reply, checkOK("renameCollection", reply)
}

func toArray(documents []bson.D) bson.A {
	out := make(bson.A, len(documents))
	for i, d := range documents {
		out[i] = d
	}
	return out
}
