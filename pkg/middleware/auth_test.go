package middleware

import (
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"threadboard/pkg/session"

	"github.com/golang/mock/gomock"
	"go.uber.org/zap"
)

type authTestCase struct {
	name        string
	method      string
	path        string
	checkErr    error
	checkCalled bool
	nextCalled  bool
	status      int
}

var authTestCases = []authTestCase{
	{
		name:        "OpenRouteGetPosts",
		method:      http.MethodGet,
		path:        "/api/posts/",
		checkCalled: false,
		nextCalled:  true,
		status:      http.StatusOK,
	},
	{
		name:        "OpenRouteGetPost",
		method:      http.MethodGet,
		path:        "/api/post/1",
		checkCalled: false,
		nextCalled:  true,
		status:      http.StatusOK,
	},
	{
		name:        "OpenRouteThread",
		method:      http.MethodGet,
		path:        "/api/post/1/comments",
		checkCalled: false,
		nextCalled:  true,
		status:      http.StatusOK,
	},
	{
		name:        "CreatePostGuarded",
		method:      http.MethodPost,
		path:        "/api/posts",
		checkCalled: true,
		nextCalled:  true,
		status:      http.StatusOK,
	},
	{
		name:        "CreatePostAnonymous",
		method:      http.MethodPost,
		path:        "/api/posts",
		checkErr:    errors.New("no session"),
		checkCalled: true,
		nextCalled:  false,
		status:      http.StatusUnauthorized,
	},
	{
		name:        "UpvoteGuarded",
		method:      http.MethodGet,
		path:        "/api/post/1/upvote",
		checkErr:    errors.New("no session"),
		checkCalled: true,
		nextCalled:  false,
		status:      http.StatusUnauthorized,
	},
	{
		name:        "DownvoteGuarded",
		method:      http.MethodGet,
		path:        "/api/post/1/downvote",
		checkErr:    errors.New("no session"),
		checkCalled: true,
		nextCalled:  false,
		status:      http.StatusUnauthorized,
	},
	{
		name:        "AddCommentGuarded",
		method:      http.MethodPost,
		path:        "/api/post/1",
		checkErr:    errors.New("no session"),
		checkCalled: true,
		nextCalled:  false,
		status:      http.StatusUnauthorized,
	},
	{
		name:        "LogoutGuarded",
		method:      http.MethodPost,
		path:        "/api/logout",
		checkErr:    errors.New("no session"),
		checkCalled: true,
		nextCalled:  false,
		status:      http.StatusUnauthorized,
	},
}

func TestAuth(t *testing.T) {
	for i, tc := range authTestCases {
		ctrl := gomock.NewController(t)
		sm := session.NewMockSessionManager(ctrl)

		sess := &session.Session{User: &session.User{ID: 1, Username: "alice"}, SessionID: "sess-1"}

		if tc.checkCalled {
			if tc.checkErr != nil {
				sm.EXPECT().Check(gomock.Any(), gomock.Any()).Return(nil, tc.checkErr)
			} else {
				sm.EXPECT().Check(gomock.Any(), gomock.Any()).Return(sess, nil)
			}
		}

		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true

			if tc.checkCalled {
				got, err := session.SessionFromContext(r.Context())
				if err != nil {
					t.Errorf("test case %d %s: session missing from context: %v", i, tc.name, err)
				} else if got != sess {
					t.Errorf("test case %d %s: wrong session in context: %v", i, tc.name, got)
				}
			}

			w.WriteHeader(http.StatusOK)
		})

		handler := Auth(zap.NewNop().Sugar(), sm, next)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(tc.method, tc.path, nil)
		handler.ServeHTTP(w, r)

		if w.Code != tc.status {
			t.Fatalf("test case %d %s wrong response code, expected %v but was %v", i, tc.name, tc.status, w.Code)
		}
		if nextCalled != tc.nextCalled {
			t.Fatalf("test case %d %s: next called = %v, expected %v", i, tc.name, nextCalled, tc.nextCalled)
		}

		if tc.status == http.StatusUnauthorized {
			body, _ := ioutil.ReadAll(w.Result().Body)
			expected := `{"message":"authentication required"}`
			if string(body) != expected {
				t.Fatalf("test case %d %s: unexpected body %s", i, tc.name, body)
			}
		}
	}
}
