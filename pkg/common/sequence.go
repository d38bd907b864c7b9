package common

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Counter struct {
	Seq int64 `bson:"seq"`
}

// NextSequence hands out monotonically increasing numeric ids from a counters
// collection, so the document backend keys records the same way the
// relational one does.
func NextSequence(ctx context.Context, counters CollectionHelper, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	res := counters.FindOneAndUpdate(ctx, bson.M{"_id": name},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}},
		}, opts)

	c := &Counter{}
	if err := res.Decode(c); err != nil {
		return 0, err
	}

	return c.Seq, nil
}
