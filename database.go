package nmongo

import "github.com/nakagami/nmongo/bson"

// Database is a named database reached through a Connection. All of
// its methods are thin wrappers around Connection.RunCommand, mirroring
// MongoDatabase in the original implementation.
type Database struct {
	conn *Connection
	Name string
}

// Database returns a handle for the named database on this connection.
func (c *Connection) Database(name string) *Database {
	return &Database{conn: c, Name: name}
}

// Collection returns a handle for the named collection in this
// database.
func (d *Database) Collection(name string) *Collection {
	return &Collection{db: d, Name: name}
}

// RunCommand sends an arbitrary command document and returns the raw
// reply, without interpreting `ok`. Equivalent to MongoDatabase.runCommand
// with its optional `database` override omitted.
func (d *Database) RunCommand(params bson.D) (bson.D, error) {
	return d.conn.RunCommand(d.Name, params)
}

// GenObjectID mints a fresh ObjectID using the connection's generator.
func (d *Database) GenObjectID() bson.ObjectID {
	return d.conn.oids.New()
}

// CreateCollection issues the `create` command.
func (d *Database) CreateCollection(name string, options bson.D) (bson.D, error) {
	params := append(bson.D{{Key: "create", Value: name}}, options...)
	reply, err := d.RunCommand(params)
	if err != nil {
		return nil, err
	}
	return reply, checkOK("create", reply)
}

// CreateView issues the `create` command in its view form.
func (d *Database) CreateView(viewName, sourceCollection string, pipeline bson.A, collation bson.D) (bson.D, error) {
	params := bson.D{
		{Key: "create", Value: viewName},
		{Key: "viewOn", Value: sourceCollection},
		{Key: "pipeline", Value: pipeline},
	}
	if collation != nil {
		params = append(params, bson.E{Key: "collation", Value: collation})
	}
	reply, err := d.RunCommand(params)
	if err != nil {
		return nil, err
	}
	return reply, checkOK("create", reply)
}

// DropDatabase issues the `dropDatabase` command.
func (d *Database) DropDatabase() error {
	reply, err := d.RunCommand(bson.D{{Key: "dropDatabase", Value: int32(1)}})
	if err != nil {
		return err
	}
	return checkOK("dropDatabase", reply)
}

// ListCollections returns a Cursor over the database's collection
// descriptions.
func (d *Database) ListCollections(filter bson.D) (*Cursor, error) {
	params := bson.D{{Key: "listCollections", Value: int32(1)}}
	if filter != nil {
		params = append(params, bson.E{Key: "filter", Value: filter})
	}
	reply, err := d.RunCommand(params)
	if err != nil {
		return nil, err
	}
	if err := checkOK("listCollections", reply); err != nil {
		return nil, err
	}
	return cursorFromReply(d.conn, d.Name, "$cmd.listCollections", reply)
}

// GetCollectionNames returns the `name` field of every collection
// description in the database.
func (d *Database) GetCollectionNames() ([]string, error) {
	cur, err := d.ListCollections(nil)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	docs, err := cur.All()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		if v, ok := doc.Lookup("name"); ok {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names, nil
}

// Ping issues the `ping` command.
func (d *Database) Ping() error {
	reply, err := d.RunCommand(bson.D{{Key: "ping", Value: int32(1)}})
	if err != nil {
		return err
	}
	return checkOK("ping", reply)
}

// IsMaster issues the `isMaster` command.
func (d *Database) IsMaster() (bson.D, error) {
	return d.RunCommand(bson.D{{Key: "isMaster", Value: int32(1)}})
}

// BuildInfo issues the `buildInfo` command.
func (d *Database) BuildInfo() (bson.D, error) {
	reply, err := d.RunCommand(bson.D{{Key: "buildInfo", Value: int32(1)}})
	if err != nil {
		return nil, err
	}
	return reply, checkOK("buildInfo", reply)
}

// ServerStatus issues the `serverStatus` command.
func (d *Database) ServerStatus() (bson.D, error) {
	reply, err := d.RunCommand(bson.D{{Key: "serverStatus", Value: int32(1)}})
	if err != nil {
		return nil, err
	}
	return reply, checkOK("serverStatus", reply)
}

// HostInfo issues the `hostInfo` command.
func (d *Database) HostInfo() (bson.D, error) {
	reply, err := d.RunCommand(bson.D{{Key: "hostInfo", Value: int32(1)}})
	if err != nil {
		return nil, err
	}
	return reply, checkOK("hostInfo", reply)
}
