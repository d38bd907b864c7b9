package posts

import (
	"context"
	"threadboard/pkg/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostsRepoMongo struct {
	collection common.CollectionHelper
	counters   common.CollectionHelper
}

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	return mongo.Connect(ctx, options.Client().ApplyURI(uri))
}

func NewPostsRepoMongo(db *mongo.Database) *PostsRepoMongo {
	return &PostsRepoMongo{
		collection: &common.MongoCollection{Collection: db.Collection("posts")},
		counters:   &common.MongoCollection{Collection: db.Collection("counters")},
	}
}

func (r *PostsRepoMongo) GetAll(ctx context.Context) ([]*Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	defer cur.Close(ctx)

	var posts []*Post
	err = cur.All(ctx, &posts)
	if err != nil {
		return nil, err
	}

	return posts, nil
}

func (r *PostsRepoMongo) GetByID(ctx context.Context, id int64) (*Post, error) {
	res := r.collection.FindOne(ctx, bson.M{"_id": id})

	post := &Post{}
	err := res.Decode(post)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (r *PostsRepoMongo) Add(ctx context.Context, p *Post) (int64, error) {
	id, err := common.NextSequence(ctx, r.counters, "posts")
	if err != nil {
		return 0, err
	}

	p.ID = id
	_, err = r.collection.InsertOne(ctx, p)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *PostsRepoMongo) Upvote(ctx context.Context, id int64) (*Post, error) {
	return r.vote(ctx, id, "upvotes")
}

func (r *PostsRepoMongo) Downvote(ctx context.Context, id int64) (*Post, error) {
	return r.vote(ctx, id, "downvotes")
}

// vote lets the server apply the increment, same as the SQL backend.
func (r *PostsRepoMongo) vote(ctx context.Context, id int64, counter string) (*Post, error) {
	updateRes, err := r.collection.UpdateOne(ctx, bson.M{"_id": id},
		bson.D{
			{Key: "$inc", Value: bson.D{{Key: counter, Value: int64(1)}}},
		})
	if err != nil {
		return nil, err
	}

	if updateRes.GetMatchedCount() == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}
