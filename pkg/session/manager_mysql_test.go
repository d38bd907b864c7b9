package session

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dgrijalva/jwt-go"
	"github.com/golang/mock/gomock"
)

func newSQLManager(t *testing.T) (*SessionManagerSQL, sqlmock.Sqlmock, *MockSessionManager, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}

	ctrl := gomock.NewController(t)
	jwtMock := NewMockSessionManager(ctrl)

	return NewSessionManagerSQL(db, jwtMock), mock, jwtMock, func() { db.Close() }
}

func TestSQLCreate(t *testing.T) {
	sm, mock, jwtMock, teardown := newSQLManager(t)
	defer teardown()

	ctx := context.Background()
	w := httptest.NewRecorder()

	jwtMock.EXPECT().Create(ctx, w, testUser, testSessID, testExpiresAt.Unix()).Return(testToken, nil)
	mock.
		ExpectExec("INSERT INTO sessions").
		WithArgs(testSessID, testUser.ID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	fact, err := sm.Create(ctx, w, testUser, testSessID, testExpiresAt.Unix())
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if fact != testToken {
		t.Errorf("expected %v but was %v", testToken, fact)
	}
}

func TestSQLCheck(t *testing.T) {
	sm, mock, jwtMock, teardown := newSQLManager(t)
	defer teardown()

	ctx := context.Background()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess := &Session{
		User:           &User{ID: testUser.ID, Username: testUser.Username},
		SessionID:      testSessID,
		StandardClaims: jwt.StandardClaims{ExpiresAt: testExpiresAt.Unix()},
	}

	jwtMock.EXPECT().Check(ctx, r).Return(sess, nil)
	mock.
		ExpectQuery("SELECT `user_id` FROM sessions WHERE id = ").
		WithArgs(testSessID).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(testUser.ID))

	fact, err := sm.Check(ctx, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.Error())
	}

	if fact != sess {
		t.Errorf("expected %v but was %v", sess, fact)
	}
}

func TestSQLCheckRevoked(t *testing.T) {
	sm, mock, jwtMock, teardown := newSQLManager(t)
	defer teardown()

	ctx := context.Background()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	sess := &Session{
		User:           &User{ID: testUser.ID, Username: testUser.Username},
		SessionID:      testSessID,
		StandardClaims: jwt.StandardClaims{ExpiresAt: testExpiresAt.Unix()},
	}

	jwtMock.EXPECT().Check(ctx, r).Return(sess, nil)
	mock.
		ExpectQuery("SELECT `user_id` FROM sessions WHERE id = ").
		WithArgs(testSessID).
		WillReturnError(sql.ErrNoRows)

	_, err := sm.Check(ctx, r)
	if err == nil {
		t.Fatal("expected error for a revoked session, but was nil")
	}
}

func TestSQLDestroy(t *testing.T) {
	sm, mock, _, teardown := newSQLManager(t)
	defer teardown()

	sess := &Session{
		User:           &User{ID: testUser.ID, Username: testUser.Username},
		SessionID:      testSessID,
		StandardClaims: jwt.StandardClaims{ExpiresAt: testExpiresAt.Unix()},
	}

	r := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	ctx := context.WithValue(r.Context(), SessionKey, sess)
	r = r.WithContext(ctx)
	w := httptest.NewRecorder()

	mock.
		ExpectExec("DELETE FROM sessions WHERE id = ").
		WithArgs(testSessID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := sm.Destroy(ctx, w, r)
	if err != nil {
		t.Errorf("unexpected error: %v", err.Error())
	}
}

func TestSQLDestroyAll(t *testing.T) {
	sm, mock, _, teardown := newSQLManager(t)
	defer teardown()

	ctx := context.Background()

	mock.
		ExpectExec("DELETE FROM sessions WHERE user_id = ").
		WithArgs(testUser.ID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := sm.DestroyAll(ctx, testUser)
	if err != nil {
		t.Errorf("unexpected error: %v", err.Error())
	}
}
