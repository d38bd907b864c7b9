package comments

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("comment not found")

	// ErrInvalidParent is returned when a reply names a parent that does not
	// exist or that hangs off a different post.
	ErrInvalidParent = errors.New("invalid parent comment")
)

// Comment is one node of a per-post forest: ParentID is nil for top-level
// comments and otherwise names another comment on the same post.
type Comment struct {
	ID       int64     `bson:"_id"`
	PostID   int64     `bson:"postID"`
	ParentID *int64    `bson:"parentID,omitempty"`
	AuthorID int64     `bson:"authorID"`
	Content  string    `bson:"content"`
	Created  time.Time `bson:"created"`
}
