package nmongo

import (
	"github.com/nakagami/nmongo/bson"
)

// checkOK turns a command reply with a falsy `ok` field into an
// OperationalError, the way every Database/Collection helper below
// reports a server-side command failure.
func checkOK(command string, reply bson.D) error {
	ok, _ := reply.Lookup("ok")
	if isOK(ok) {
		return nil
	}
	errmsg, _ := reply.Lookup("errmsg")
	msg, _ := errmsg.(string)
	if msg == "" {
		msg = "command failed"
	}
	return newOperationalError(command, msg, reply)
}

// lookupInt32 reads an integer-ish field as an int32, accepting any of
// the generic integer/double representations BSON documents come back
// as.
func lookupInt32(d bson.D, key string) (int32, bool) {
	v, ok := d.Lookup(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int32:
		return n, true
	case int64:
		return int32(n), true
	case float64:
		return int32(n), true
	default:
		return 0, false
	}
}

// lookupArray reads a field expected to hold a BSON array.
func lookupArray(d bson.D, key string) (bson.A, bool) {
	v, ok := d.Lookup(key)
	if !ok {
		return nil, false
	}
	a, ok := v.(bson.A)
	return a, ok
}

// lookupDoc reads a field expected to hold an embedded document.
func lookupDoc(d bson.D, key string) (bson.D, bool) {
	v, ok := d.Lookup(key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(bson.D)
	return sub, ok
}
