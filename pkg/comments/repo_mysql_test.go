package comments

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var commentColumns = []string{"id", "post_id", "parent_id", "author_id", "content", "created"}

var created = time.Date(2021, 5, 4, 10, 30, 0, 0, time.UTC)

var parentID = int64(1)

var testComments = []*Comment{
	{ID: 1, PostID: 10, ParentID: nil, AuthorID: 2, Content: "first", Created: created},
	{ID: 2, PostID: 10, ParentID: &parentID, AuthorID: 3, Content: "reply", Created: created.Add(time.Minute)},
}

func newRepo(t *testing.T) (*CommentsRepoSQL, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}

	return NewCommentsRepoSQL(db), mock, func() { db.Close() }
}

func rowsFor(comments []*Comment) *sqlmock.Rows {
	rows := sqlmock.NewRows(commentColumns)
	for _, c := range comments {
		var parent interface{}
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		rows.AddRow(c.ID, c.PostID, parent, c.AuthorID, c.Content, c.Created)
	}

	return rows
}

func TestGetByPostID(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE post_id = (.+) ORDER BY created ASC, id ASC").
		WithArgs(int64(10)).
		WillReturnRows(rowsFor(testComments))

	res, err := repo.GetByPostID(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if !reflect.DeepEqual(res, testComments) {
		t.Fatalf("expected %v but was %v", testComments, res)
	}

	// error
	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE post_id = ").
		WithArgs(int64(10)).
		WillReturnError(errors.New("db_error"))

	_, err = repo.GetByPostID(ctx, 10)
	if err == nil {
		t.Fatalf("expected error but was nil")
	}
}

func TestGetReplies(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE parent_id = (.+) ORDER BY created ASC, id ASC").
		WithArgs(parentID).
		WillReturnRows(rowsFor(testComments[1:]))

	res, err := repo.GetReplies(ctx, parentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if !reflect.DeepEqual(res, testComments[1:]) {
		t.Fatalf("expected %v but was %v", testComments[1:], res)
	}
}

func TestGetCommentByID(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE id = ").
		WithArgs(testComments[1].ID).
		WillReturnRows(rowsFor(testComments[1:]))

	res, err := repo.GetByID(ctx, testComments[1].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if !reflect.DeepEqual(res, testComments[1]) {
		t.Fatalf("expected %v but was %v", testComments[1], res)
	}

	// miss
	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE id = ").
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(ctx, 404)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound but was %v", err)
	}
}

func TestAddTopLevel(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	c := &Comment{PostID: 10, AuthorID: 2, Content: "hello", Created: created}

	mock.
		ExpectExec("INSERT INTO comments").
		WithArgs(c.PostID, nil, c.AuthorID, c.Content, c.Created).
		WillReturnResult(sqlmock.NewResult(5, 1))

	id, err := repo.Add(ctx, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}
	if id != 5 {
		t.Fatalf("expected id 5 but was %v", id)
	}
}

func TestAddReply(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	c := &Comment{PostID: 10, ParentID: &parentID, AuthorID: 2, Content: "reply", Created: created}

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE id = ").
		WithArgs(parentID).
		WillReturnRows(rowsFor(testComments[:1]))

	mock.
		ExpectExec("INSERT INTO comments").
		WithArgs(c.PostID, parentID, c.AuthorID, c.Content, c.Created).
		WillReturnResult(sqlmock.NewResult(6, 1))

	id, err := repo.Add(ctx, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}
	if id != 6 {
		t.Fatalf("expected id 6 but was %v", id)
	}
}

func TestAddInvalidParent(t *testing.T) {
	repo, mock, teardown := newRepo(t)
	defer teardown()

	ctx := context.Background()

	// parent does not exist
	missing := int64(404)
	c := &Comment{PostID: 10, ParentID: &missing, AuthorID: 2, Content: "reply", Created: created}

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE id = ").
		WithArgs(missing).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Add(ctx, c)
	if err != ErrInvalidParent {
		t.Fatalf("expected ErrInvalidParent but was %v", err)
	}

	// parent belongs to another post
	c = &Comment{PostID: 11, ParentID: &parentID, AuthorID: 2, Content: "reply", Created: created}

	mock.
		ExpectQuery("SELECT (.+) FROM comments WHERE id = ").
		WithArgs(parentID).
		WillReturnRows(rowsFor(testComments[:1]))

	_, err = repo.Add(ctx, c)
	if err != ErrInvalidParent {
		t.Fatalf("expected ErrInvalidParent but was %v", err)
	}
}
