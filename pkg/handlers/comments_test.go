package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"threadboard/pkg/comments"
	"threadboard/pkg/posts"
	"threadboard/pkg/session"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func prepareCommentHandler(ctrl *gomock.Controller) *CommentHandler {
	postsRepoMock := NewMockPostsRepo(ctrl)
	commentsRepoMock := NewMockCommentsRepo(ctrl)
	usersRepoMock := NewMockUsersRepo(ctrl)

	h := &CommentHandler{
		CommentsRepo: commentsRepoMock,
		PostsRepo:    postsRepoMock,
		UsersRepo:    usersRepoMock,
		Logger:       zap.NewNop().Sugar(),
	}

	for _, p := range testPostData {
		postsRepoMock.EXPECT().GetByID(gomock.Any(), p.ID).Return(p, nil).AnyTimes()
	}
	postsRepoMock.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, posts.ErrNotFound).AnyTimes()

	commentsByPostID := func(postID int64) []*comments.Comment {
		res := make([]*comments.Comment, 0)
		for _, c := range testCommentData {
			if c.PostID == postID {
				res = append(res, c)
			}
		}
		return res
	}
	for _, id := range []int64{1, 2} {
		commentsRepoMock.EXPECT().GetByPostID(gomock.Any(), id).Return(commentsByPostID(id), nil).AnyTimes()
	}

	commentsRepoMock.EXPECT().GetByID(gomock.Any(), testCommentData[0].ID).Return(testCommentData[0], nil).AnyTimes()
	commentsRepoMock.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, comments.ErrNotFound).AnyTimes()
	commentsRepoMock.EXPECT().GetReplies(gomock.Any(), testCommentData[0].ID).Return(testCommentData[1:], nil).AnyTimes()

	for _, u := range testUserData {
		usersRepoMock.EXPECT().GetByID(u.ID).Return(u, nil).AnyTimes()
	}

	return h
}

type commentTestCase struct {
	name    string
	handler func(*CommentHandler, http.ResponseWriter, *http.Request)
	method  string
	status  int
	vars    map[string]string
	body    map[string]interface{}
	addErr  error

	expectedPost     *PostResponse
	expectedComments []*CommentResponse
	expectedCustom   map[string]string
}

var commentTestCases = []commentTestCase{
	{
		name:   "AddHappyCase",
		status: http.StatusCreated,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Add(rw, r)
		},
		method:       http.MethodPost,
		vars:         map[string]string{"post_id": "1"},
		body:         map[string]interface{}{"content": "fresh comment"},
		expectedPost: getExpectedPost(testPostData[1]),
	},
	{
		name:   "AddReplyHappyCase",
		status: http.StatusCreated,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Add(rw, r)
		},
		method:       http.MethodPost,
		vars:         map[string]string{"post_id": "1"},
		body:         map[string]interface{}{"content": "fresh reply", "parent_id": 1},
		expectedPost: getExpectedPost(testPostData[1]),
	},
	{
		name:   "AddPostNotFound",
		status: http.StatusNotFound,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Add(rw, r)
		},
		method:         http.MethodPost,
		vars:           map[string]string{"post_id": "404"},
		body:           map[string]interface{}{"content": "fresh comment"},
		expectedCustom: map[string]string{"message": "post not found"},
	},
	{
		name:   "AddInvalidParent",
		status: http.StatusUnprocessableEntity,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Add(rw, r)
		},
		method:         http.MethodPost,
		vars:           map[string]string{"post_id": "1"},
		body:           map[string]interface{}{"content": "fresh reply", "parent_id": 999},
		addErr:         comments.ErrInvalidParent,
		expectedCustom: map[string]string{"message": "invalid parent comment"},
	},
	{
		name:   "Thread",
		status: http.StatusOK,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Thread(rw, r)
		},
		method:           http.MethodGet,
		vars:             map[string]string{"post_id": "1"},
		expectedComments: getComments(1),
	},
	{
		name:   "ThreadPostNotFound",
		status: http.StatusNotFound,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Thread(rw, r)
		},
		method:         http.MethodGet,
		vars:           map[string]string{"post_id": "404"},
		expectedCustom: map[string]string{"message": "post not found"},
	},
	{
		name:   "Replies",
		status: http.StatusOK,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Replies(rw, r)
		},
		method: http.MethodGet,
		vars:   map[string]string{"comment_id": "1"},
		expectedComments: []*CommentResponse{
			{
				ID:      testCommentData[1].ID,
				Content: testCommentData[1].Content,
				Author:  getAuthor(testCommentData[1].AuthorID),
				Created: testCommentData[1].Created,
				Replies: []*CommentResponse{},
			},
		},
	},
	{
		name:   "RepliesCommentNotFound",
		status: http.StatusNotFound,
		handler: func(h *CommentHandler, rw http.ResponseWriter, r *http.Request) {
			h.Replies(rw, r)
		},
		method:         http.MethodGet,
		vars:           map[string]string{"comment_id": "404"},
		expectedCustom: map[string]string{"message": "comment not found"},
	},
}

func TestCommentCases(t *testing.T) {
	for i, tc := range commentTestCases {
		ctrl := gomock.NewController(t)
		h := prepareCommentHandler(ctrl)

		if tc.method == http.MethodPost {
			mock := h.CommentsRepo.(*MockCommentsRepo)
			if tc.addErr != nil {
				mock.EXPECT().Add(gomock.Any(), gomock.AssignableToTypeOf(&comments.Comment{})).
					Return(int64(0), tc.addErr).AnyTimes()
			} else {
				mock.EXPECT().Add(gomock.Any(), gomock.AssignableToTypeOf(&comments.Comment{})).
					Return(int64(10), nil).AnyTimes()
			}
		}

		w := httptest.NewRecorder()

		var r *http.Request
		if tc.body != nil {
			bodyBytes, _ := json.Marshal(tc.body)
			r = httptest.NewRequest(tc.method, "/", bytes.NewBuffer(bodyBytes))
		} else {
			r = httptest.NewRequest(tc.method, "/", nil)
		}

		if tc.method == http.MethodPost {
			sess := &session.Session{User: &session.User{ID: testUserData[0].ID, Username: testUserData[0].Username}}
			r = r.WithContext(context.WithValue(r.Context(), session.SessionKey, sess))
		}
		if tc.vars != nil {
			r = mux.SetURLVars(r, tc.vars)
		}

		tc.handler(h, w, r)
		if w.Code != tc.status {
			t.Fatalf("test case %d %s wrong response code, expected %v but was %v", i, tc.name, tc.status, w.Code)
		}

		resBytes, err := ioutil.ReadAll(w.Result().Body)
		if err != nil {
			t.Fatalf("unexpected error occured: %v", err.Error())
		}

		if tc.expectedPost != nil {
			var res *PostResponse
			err := json.Unmarshal(resBytes, &res)
			if err != nil {
				t.Fatalf("can't get expected result, error occured: %v", err.Error())
			}
			postsTestEquals(t, tc.name, res, tc.expectedPost)
		}
		if tc.expectedComments != nil {
			var res []*CommentResponse
			err := json.Unmarshal(resBytes, &res)
			if err != nil {
				t.Fatalf("can't get expected result, error occured: %v", err.Error())
			}

			if !reflect.DeepEqual(res, tc.expectedComments) {
				t.Errorf("test case %d %s fail, expected: %v, but was: %v", i, tc.name, tc.expectedComments, res)
			}
		}
		if tc.expectedCustom != nil {
			res := map[string]string{}
			err := json.Unmarshal(resBytes, &res)
			if err != nil {
				t.Fatalf("can't get expected result, error occured: %v", err.Error())
			}

			if !reflect.DeepEqual(tc.expectedCustom, res) {
				t.Errorf("test case %d %s fail, expected: %v, but was: %v", i, tc.name, tc.expectedCustom, res)
			}
		}
	}
}

func TestAddCommentValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := prepareCommentHandler(ctrl)
	w := httptest.NewRecorder()

	bodyBytes, _ := json.Marshal(map[string]string{"content": ""})
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBuffer(bodyBytes))
	r = mux.SetURLVars(r, map[string]string{"post_id": "1"})

	h.Add(w, r)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong response code: %d", w.Code)
	}

	res, _ := ioutil.ReadAll(w.Result().Body)
	expected := []byte(`{"errors":[{"location":"body","param":"content","value":"","msg":"cannot be blank"}]}`)
	if !reflect.DeepEqual(res, expected) {
		t.Fatalf("unexpected response: %s but expected %s", res, expected)
	}
}
