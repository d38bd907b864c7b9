package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"threadboard/pkg/session"
	"time"

	"go.uber.org/zap"
)

// needsAuth marks the mutating surface: creating posts, voting, commenting
// and logout. Reads (post list, single post, threads, replies) stay open.
func needsAuth(r *http.Request) bool {
	if r.URL.Path == "/api/posts" && r.Method == http.MethodPost {
		return true
	}
	if r.URL.Path == "/api/logout" {
		return true
	}
	if strings.HasSuffix(r.URL.Path, "/upvote") || strings.HasSuffix(r.URL.Path, "/downvote") {
		return true
	}
	if strings.HasPrefix(r.URL.Path, "/api/post/") && r.Method == http.MethodPost {
		return true
	}

	return false
}

// Auth resolves the session for guarded routes and stores it in the request
// context; anonymous requests to those routes get 401 and go no further.
func Auth(logger *zap.SugaredLogger, sm session.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !needsAuth(r) {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sess, err := sm.Check(ctx, r)
		if err != nil {
			logger.Error(err.Error())
			w.Header().Set("Content-type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			errorBody, _ := json.Marshal(map[string]string{"message": "authentication required"})
			w.Write(errorBody)

			return
		}

		ctx = context.WithValue(r.Context(), session.SessionKey, sess)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
