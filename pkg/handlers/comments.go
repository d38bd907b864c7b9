package handlers

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"threadboard/pkg/comments"
	"threadboard/pkg/session"
	"time"

	"go.uber.org/zap"
)

type CommentHandler struct {
	CommentsRepo CommentsRepo
	PostsRepo    PostsRepo
	UsersRepo    UsersRepo
	Logger       *zap.SugaredLogger
}

type CommentsRepo interface {
	GetByPostID(context.Context, int64) ([]*comments.Comment, error)
	GetByID(context.Context, int64) (*comments.Comment, error)
	GetReplies(context.Context, int64) ([]*comments.Comment, error)
	Add(context.Context, *comments.Comment) (int64, error)
}

type AddCommentRequest struct {
	Content  *string `json:"content"`
	ParentID *int64  `json:"parent_id"`
}

func (req *AddCommentRequest) validate() []*CustomError {
	content := &Validator{value: req.Content, location: "body", field: "content"}
	contentErr := func() *CustomError {
		err := content.Required()
		if err != nil {
			return err
		}
		return content.Empty()
	}()

	return mergeErrors(contentErr)
}

// Add attaches a comment to a post, optionally under a parent comment on the
// same post, and answers with the refreshed post.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	postID, err := ParseIntParam(r, "post_id")
	if err != nil {
		h.Logger.Error(err.Error())
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
		return
	}

	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var req AddCommentRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		WriteResponse(w, "bad request", http.StatusBadRequest)
		return
	}

	validationErrors := req.validate()
	if len(validationErrors) > 0 {
		writeErrorsResponse(w, validationErrors, http.StatusUnprocessableEntity)
		return
	}

	sess, err := session.SessionFromContext(r.Context())
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	post, err := h.PostsRepo.GetByID(ctx, postID)
	if err != nil {
		writeRepoError(w, h.Logger, err)
		return
	}

	comment := &comments.Comment{
		PostID:   post.ID,
		ParentID: req.ParentID,
		AuthorID: sess.User.ID,
		Content:  *req.Content,
		Created:  time.Now().UTC(),
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = h.CommentsRepo.Add(ctx, comment)
	if err != nil {
		writeRepoError(w, h.Logger, err)
		return
	}

	postWithData, err := getPostData(post, h.UsersRepo, h.CommentsRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(postWithData)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(respBytes)
}

// Thread returns the whole comment forest of a post.
func (h *CommentHandler) Thread(w http.ResponseWriter, r *http.Request) {
	postID, err := ParseIntParam(r, "post_id")
	if err != nil {
		h.Logger.Error(err.Error())
		WriteResponse(w, "invalid post id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := h.PostsRepo.GetByID(ctx, postID); err != nil {
		writeRepoError(w, h.Logger, err)
		return
	}

	list, err := h.CommentsRepo.GetByPostID(ctx, postID)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	thread, err := mapThreadResponse(comments.BuildThread(list), h.UsersRepo)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(thread)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}

// Replies returns the direct children of one comment, oldest first.
func (h *CommentHandler) Replies(w http.ResponseWriter, r *http.Request) {
	commentID, err := ParseIntParam(r, "comment_id")
	if err != nil {
		h.Logger.Error(err.Error())
		WriteResponse(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := h.CommentsRepo.GetByID(ctx, commentID); err != nil {
		writeRepoError(w, h.Logger, err)
		return
	}

	replies, err := h.CommentsRepo.GetReplies(ctx, commentID)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	result := make([]*CommentResponse, 0, len(replies))
	for _, c := range replies {
		author, err := h.UsersRepo.GetByID(c.AuthorID)
		if err != nil || author == nil {
			h.Logger.Errorf("author %d lookup failed for comment %d", c.AuthorID, c.ID)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		result = append(result, &CommentResponse{
			ID:      c.ID,
			Content: c.Content,
			Author:  &Author{Username: author.Username, ID: author.ID},
			Created: c.Created,
			Replies: []*CommentResponse{},
		})
	}

	respBytes, err := json.Marshal(result)
	if err != nil {
		h.Logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(respBytes)
}
