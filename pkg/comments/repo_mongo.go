package comments

import (
	"context"
	"threadboard/pkg/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentsRepoMongo struct {
	collection common.CollectionHelper
	counters   common.CollectionHelper
}

func NewCommentsRepoMongo(db *mongo.Database) *CommentsRepoMongo {
	return &CommentsRepoMongo{
		collection: &common.MongoCollection{Collection: db.Collection("comments")},
		counters:   &common.MongoCollection{Collection: db.Collection("counters")},
	}
}

func (repo *CommentsRepoMongo) GetByPostID(ctx context.Context, postID int64) ([]*Comment, error) {
	return repo.getByField(ctx, bson.M{"postID": postID})
}

func (repo *CommentsRepoMongo) GetReplies(ctx context.Context, parentID int64) ([]*Comment, error) {
	return repo.getByField(ctx, bson.M{"parentID": parentID})
}

func (repo *CommentsRepoMongo) GetByID(ctx context.Context, id int64) (*Comment, error) {
	res := repo.collection.FindOne(ctx, bson.M{"_id": id})

	c := &Comment{}
	err := res.Decode(c)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Add mirrors the SQL backend: the parent must already exist on the same
// post, which rules out cycles.
func (repo *CommentsRepoMongo) Add(ctx context.Context, c *Comment) (int64, error) {
	if c.ParentID != nil {
		parent, err := repo.GetByID(ctx, *c.ParentID)
		if err == ErrNotFound {
			return 0, ErrInvalidParent
		}
		if err != nil {
			return 0, err
		}
		if parent.PostID != c.PostID {
			return 0, ErrInvalidParent
		}
	}

	id, err := common.NextSequence(ctx, repo.counters, "comments")
	if err != nil {
		return 0, err
	}

	c.ID = id
	_, err = repo.collection.InsertOne(ctx, c)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (repo *CommentsRepoMongo) getByField(ctx context.Context, filter bson.M) ([]*Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := repo.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	defer cur.Close(ctx)

	var comments []*Comment
	err = cur.All(ctx, &comments)
	if err != nil {
		return nil, err
	}

	return comments, nil
}
