package posts

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("post not found")

type Post struct {
	ID        int64     `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Upvotes   int64     `bson:"upvotes"`
	Downvotes int64     `bson:"downvotes"`
	Created   time.Time `bson:"created"`
	AuthorID  int64     `bson:"authorID"`
}
