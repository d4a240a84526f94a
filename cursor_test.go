package nmongo

import (
	"testing"

	"github.com/facebookgo/ensure"

	"github.com/nakagami/nmongo/bson"
)

func TestCursorGetMoreAcrossBatches(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	for i := 0; i < 5; i++ {
		_, err := coll.InsertOne(bson.D{{Key: "n", Value: int32(i)}})
		ensure.Nil(t, err)
	}

	cur, err := coll.Find(bson.D{}, nil, 2)
	ensure.Nil(t, err)
	defer cur.Close()

	docs, err := cur.All()
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(docs), 5)
}

func TestCursorCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	_, err := coll.InsertOne(bson.D{{Key: "n", Value: int32(1)}})
	ensure.Nil(t, err)

	cur, err := coll.Find(bson.D{}, nil, 1)
	ensure.Nil(t, err)
	ensure.Nil(t, cur.Close())
	ensure.Nil(t, cur.Close())
}

func TestCursorDoesNotAutoCloseOnAbandon(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	for i := 0; i < 3; i++ {
		_, err := coll.InsertOne(bson.D{{Key: "n", Value: int32(i)}})
		ensure.Nil(t, err)
	}

	cur, err := coll.Find(bson.D{}, nil, 1)
	ensure.Nil(t, err)

	_, ok, err := cur.Next()
	ensure.Nil(t, err)
	ensure.True(t, ok)

	ensure.Nil(t, cur.Close())
}
