package nmongo

import (
	"testing"

	"github.com/facebookgo/ensure"

	"github.com/nakagami/nmongo/bson"
)

func TestCollectionInsertFindCount(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")

	id, err := coll.InsertOne(bson.D{{Key: "name", Value: "sprocket"}})
	ensure.Nil(t, err)
	ensure.True(t, id != nil)

	n, err := coll.Count(bson.D{})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, n, int32(1))

	doc, err := coll.FindOne(bson.D{{Key: "name", Value: "sprocket"}}, nil)
	ensure.Nil(t, err)
	v, ok := doc.Lookup("name")
	ensure.True(t, ok)
	ensure.DeepEqual(t, v, "sprocket")
}

func TestCollectionInsertManyAssignsObjectIDs(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	docs := []bson.D{
		{{Key: "name", Value: "a"}},
		{{Key: "name", Value: "b"}},
	}
	ids, err := coll.InsertMany(docs)
	ensure.Nil(t, err)
	ensure.DeepEqual(t, len(ids), 2)
	for i, d := range docs {
		v, ok := d.Lookup("_id")
		ensure.True(t, ok)
		ensure.DeepEqual(t, v, ids[i])
	}
}

func TestCollectionInsertManyRejectsNilDocument(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	_, err := coll.InsertMany([]bson.D{nil})
	ensure.NotNil(t, err)
}

func TestCollectionUpdateAndRemove(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	_, err := coll.InsertOne(bson.D{{Key: "name", Value: "sprocket"}, {Key: "qty", Value: int32(1)}})
	ensure.Nil(t, err)

	_, err = coll.UpdateOne(
		bson.D{{Key: "name", Value: "sprocket"}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "qty", Value: int32(2)}}}},
	)
	ensure.Nil(t, err)

	doc, err := coll.FindOne(bson.D{{Key: "name", Value: "sprocket"}}, nil)
	ensure.Nil(t, err)
	qty, _ := doc.Lookup("qty")
	ensure.DeepEqual(t, qty, int32(2))

	n, err := coll.DeleteOne(bson.D{{Key: "name", Value: "sprocket"}})
	ensure.Nil(t, err)
	ensure.DeepEqual(t, n, int32(1))
}

func TestCollectionCreateIndexSynthesizesName(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	coll := h.DB("test").Collection("widgets")
	_, err := coll.CreateIndex(bson.D{{Key: "name", Value: int32(1)}}, nil)
	ensure.Nil(t, err)

	indexes, err := coll.GetIndexes()
	ensure.Nil(t, err)

	var found bool
	for _, idx := range indexes {
		if v, ok := idx.Lookup("name"); ok && v == "name_1" {
			found = true
		}
	}
	ensure.True(t, found)
}

func TestCollectionRenameCollection(t *testing.T) {
	t.Parallel()
	h := NewHarness(t)
	defer h.Stop()

	db := h.DB("test")
	coll := db.Collection("widgets")
	_, err := coll.InsertOne(bson.D{{Key: "name", Value: "sprocket"}})
	ensure.Nil(t, err)

	_, err = coll.RenameCollection("gadgets")
	ensure.Nil(t, err)

	names, err := db.GetCollectionNames()
	ensure.Nil(t, err)
	ensure.True(t, containsString(names, "gadgets"))
	ensure.False(t, containsString(names, "widgets"))
}
