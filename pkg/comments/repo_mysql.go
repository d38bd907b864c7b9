package comments

import (
	"context"
	"database/sql"
)

type CommentsRepoSQL struct {
	db *sql.DB
}

func NewCommentsRepoSQL(db *sql.DB) *CommentsRepoSQL {
	return &CommentsRepoSQL{db: db}
}

const selectColumns = "SELECT `id`, `post_id`, `parent_id`, `author_id`, `content`, `created` FROM comments"

func (repo *CommentsRepoSQL) GetByPostID(ctx context.Context, postID int64) ([]*Comment, error) {
	query := selectColumns + " WHERE post_id = ? ORDER BY created ASC, id ASC"
	rows, err := repo.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	return scanComments(rows)
}

func (repo *CommentsRepoSQL) GetByID(ctx context.Context, id int64) (*Comment, error) {
	query := selectColumns + " WHERE id = ?"
	r := repo.db.QueryRowContext(ctx, query, id)

	c := Comment{}
	var parentID sql.NullInt64
	err := r.Scan(&c.ID, &c.PostID, &parentID, &c.AuthorID, &c.Content, &c.Created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		c.ParentID = &parentID.Int64
	}

	return &c, nil
}

// GetReplies returns the direct children only, ordered like any sibling list.
func (repo *CommentsRepoSQL) GetReplies(ctx context.Context, parentID int64) ([]*Comment, error) {
	query := selectColumns + " WHERE parent_id = ? ORDER BY created ASC, id ASC"
	rows, err := repo.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()
	return scanComments(rows)
}

// Add inserts a comment after checking its parent link. The parent must exist
// and belong to the same post; since parents always precede children and ids
// only grow, an insert can never close a cycle.
func (repo *CommentsRepoSQL) Add(ctx context.Context, c *Comment) (int64, error) {
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

	query := "INSERT INTO comments (`post_id`, `parent_id`, `author_id`, `content`, `created`) VALUES (?, ?, ?, ?, ?)"
	var parentID interface{}
	if c.ParentID != nil {
		parentID = *c.ParentID
	}

	r, err := repo.db.ExecContext(ctx, query, c.PostID, parentID, c.AuthorID, c.Content, c.Created)
	if err != nil {
		return 0, err
	}

	lastID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	return lastID, nil
}

func scanComments(rows *sql.Rows) ([]*Comment, error) {
	comments := make([]*Comment, 0, 10)
	for rows.Next() {
		c := &Comment{}
		var parentID sql.NullInt64
		err := rows.Scan(&c.ID, &c.PostID, &parentID, &c.AuthorID, &c.Content, &c.Created)
		if err != nil {
			return nil, err
		}

		if parentID.Valid {
			id := parentID.Int64
			c.ParentID = &id
		}

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
