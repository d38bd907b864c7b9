package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"threadboard/pkg/comments"
	"threadboard/pkg/posts"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Response struct {
	Message string `json:"message"`
}

type CustomError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

type ErrorsResponse struct {
	Errors []*CustomError `json:"errors"`
}

type Author struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}

type PostResponse struct {
	ID        int64              `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Author    *Author            `json:"author"`
	Upvotes   int64              `json:"upvotes"`
	Downvotes int64              `json:"downvotes"`
	Created   time.Time          `json:"created"`
	Comments  []*CommentResponse `json:"comments"`
}

type CommentResponse struct {
	ID      int64              `json:"id"`
	Content string             `json:"content"`
	Author  *Author            `json:"author"`
	Created time.Time          `json:"created"`
	Replies []*CommentResponse `json:"replies"`
}

func WriteResponse(w http.ResponseWriter, msg string, status int) {
	resp := &Response{Message: msg}
	res, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(status)
		return
	}

	w.WriteHeader(status)
	w.Write(res)
}

func writeErrorsResponse(w http.ResponseWriter, errors []*CustomError, status int) {
	errorsJSON, err := json.Marshal(&ErrorsResponse{Errors: errors})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}

	w.WriteHeader(status)
	w.Write(errorsJSON)
}

// writeRepoError translates the storage sentinels into boundary responses;
// anything else is a server fault.
func writeRepoError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, posts.ErrNotFound):
		WriteResponse(w, "post not found", http.StatusNotFound)
	case errors.Is(err, comments.ErrNotFound):
		WriteResponse(w, "comment not found", http.StatusNotFound)
	case errors.Is(err, comments.ErrInvalidParent):
		WriteResponse(w, "invalid parent comment", http.StatusUnprocessableEntity)
	default:
		logger.Error(err.Error())
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// getPostData decorates a post with its author and materialized comment
// forest for rendering.
func getPostData(p *posts.Post, ur UsersRepo, cr CommentsRepo) (*PostResponse, error) {
	author, err := ur.GetByID(p.AuthorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, fmt.Errorf("author %d not found for post %d", p.AuthorID, p.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	list, err := cr.GetByPostID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	commentsResp, err := mapThreadResponse(comments.BuildThread(list), ur)
	if err != nil {
		return nil, err
	}

	return &PostResponse{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    &Author{Username: author.Username, ID: author.ID},
		Upvotes:   p.Upvotes,
		Downvotes: p.Downvotes,
		Created:   p.Created,
		Comments:  commentsResp,
	}, nil
}

func mapThreadResponse(nodes []*comments.ThreadNode, ur UsersRepo) ([]*CommentResponse, error) {
	result := make([]*CommentResponse, 0, len(nodes))
	for _, n := range nodes {
		author, err := ur.GetByID(n.Comment.AuthorID)
		if err != nil {
			return nil, err
		}
		if author == nil {
			return nil, fmt.Errorf("author %d not found for comment %d", n.Comment.AuthorID, n.Comment.ID)
		}

		replies, err := mapThreadResponse(n.Replies, ur)
		if err != nil {
			return nil, err
		}

		result = append(result, &CommentResponse{
			ID:      n.Comment.ID,
			Content: n.Comment.Content,
			Author:  &Author{Username: author.Username, ID: author.ID},
			Created: n.Comment.Created,
			Replies: replies,
		})
	}

	return result, nil
}

func ParseIntParam(r *http.Request, name string) (int64, error) {
	vars := mux.Vars(r)
	varStr := vars[name]
	val, err := strconv.ParseInt(varStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("wrong id value: %v", varStr)
	}

	return val, nil
}
