package bson

import (
	"crypto/sha1"
	"encoding/binary"
	"math/rand"
	"os"
	"sync/atomic"
	"time"
)

// ObjectIDGenerator mints ObjectIDs for a single connection. Its
// counter is seeded randomly and is scoped to the generator instance,
// matching spec.md §3: "The counter is initialized per connection to
// a random 24-bit value and incremented modulo 2^24 per allocation."
type ObjectIDGenerator struct {
	machineID [3]byte
	processID [2]byte
	counter   uint32 // low 24 bits significant
}

// NewObjectIDGenerator builds a generator whose machine-hash component
// is derived from machineIDSource (conventionally os.Hostname(), or a
// server's echo of whatsmyuri when no local hostname is available --
// see SPEC_FULL.md Open Question 3).
func NewObjectIDGenerator(machineIDSource string) *ObjectIDGenerator {
	sum := sha1.Sum([]byte(machineIDSource))
	g := &ObjectIDGenerator{
		counter: rand.Uint32() & 0x00ffffff,
	}
	copy(g.machineID[:], sum[:3])
	pid := os.Getpid()
	g.processID[0] = byte(pid)
	g.processID[1] = byte(pid >> 8)
	return g
}

// New mints a fresh ObjectID.
func (g *ObjectIDGenerator) New() ObjectID {
	var id ObjectID

	var secBuf [4]byte
	binary.BigEndian.PutUint32(secBuf[:], uint32(time.Now().Unix()))
	copy(id[0:4], secBuf[:])

	copy(id[4:7], g.machineID[:])
	copy(id[7:9], g.processID[:])

	c := atomic.AddUint32(&g.counter, 1) & 0x00ffffff
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)

	return id
}
