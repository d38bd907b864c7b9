package posts

import (
	"context"
	"database/sql"
)

type PostsRepoSQL struct {
	db *sql.DB
}

func NewPostsRepoSQL(db *sql.DB) *PostsRepoSQL {
	return &PostsRepoSQL{db: db}
}

// GetAll returns every post, newest first. Posts created at the same instant
// keep insertion order.
func (repo *PostsRepoSQL) GetAll(ctx context.Context) ([]*Post, error) {
	query := "SELECT `id`, `title`, `content`, `upvotes`, `downvotes`, `created`, `author_id` " +
		"FROM posts ORDER BY created DESC, id ASC"
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	posts := make([]*Post, 0, 10)
	for rows.Next() {
		p := &Post{}
		err = rows.Scan(&p.ID, &p.Title, &p.Content, &p.Upvotes, &p.Downvotes, &p.Created, &p.AuthorID)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func (repo *PostsRepoSQL) GetByID(ctx context.Context, id int64) (*Post, error) {
	query := "SELECT `id`, `title`, `content`, `upvotes`, `downvotes`, `created`, `author_id` " +
		"FROM posts WHERE id = ?"
	r := repo.db.QueryRowContext(ctx, query, id)

	p := Post{}
	err := r.Scan(&p.ID, &p.Title, &p.Content, &p.Upvotes, &p.Downvotes, &p.Created, &p.AuthorID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (repo *PostsRepoSQL) Add(ctx context.Context, p *Post) (int64, error) {
	query := "INSERT INTO posts (`title`, `content`, `upvotes`, `downvotes`, `created`, `author_id`) " +
		"VALUES (?, ?, ?, ?, ?, ?)"
	r, err := repo.db.ExecContext(ctx, query, p.Title, p.Content, p.Upvotes, p.Downvotes, p.Created, p.AuthorID)
	if err != nil {
		return 0, err
	}

	lastID, err := r.LastInsertId()
	if err != nil {
		return 0, err
	}

	return lastID, nil
}

func (repo *PostsRepoSQL) Upvote(ctx context.Context, id int64) (*Post, error) {
	return repo.vote(ctx, id, "upvotes")
}

func (repo *PostsRepoSQL) Downvote(ctx context.Context, id int64) (*Post, error) {
	return repo.vote(ctx, id, "downvotes")
}

// vote increments the counter inside the store, so concurrent votes on the
// same post cannot lose updates.
func (repo *PostsRepoSQL) vote(ctx context.Context, id int64, counter string) (*Post, error) {
	query := "UPDATE posts SET `" + counter + "` = `" + counter + "` + 1 WHERE id = ?"
	r, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return nil, err
	}

	affected, err := r.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		return nil, ErrNotFound
	}

	return repo.GetByID(ctx, id)
}
