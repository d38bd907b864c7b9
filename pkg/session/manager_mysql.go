package session

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
)

// SessionManagerSQL is the relational twin of the redis manager: live
// sessions sit in a sessions table and logout deletes the row.
type SessionManagerSQL struct {
	db  *sql.DB
	jwt SessionManager
}

func NewSessionManagerSQL(db *sql.DB, jwt SessionManager) *SessionManagerSQL {
	return &SessionManagerSQL{db: db, jwt: jwt}
}

func (sm *SessionManagerSQL) Create(ctx context.Context, w http.ResponseWriter, u *User, sessID string, expiresAt int64) (string, error) {
	token, err := sm.jwt.Create(ctx, w, u, sessID, expiresAt)
	if err != nil {
		return "", err
	}

	_, err = sm.db.ExecContext(ctx, "INSERT INTO sessions (`id`, `user_id`) VALUES (?, ?)", sessID, u.ID)
	if err != nil {
		return "", err
	}

	return token, nil
}

func (sm *SessionManagerSQL) Check(ctx context.Context, r *http.Request) (*Session, error) {
	sess, err := sm.jwt.Check(ctx, r)
	if err != nil {
		return nil, err
	}

	var userID int64
	err = sm.db.QueryRowContext(ctx, "SELECT `user_id` FROM sessions WHERE id = ?", sess.SessionID).Scan(&userID)
	if err != nil {
		return nil, err
	}

	if userID != sess.User.ID {
		return nil, errors.New("wrong user")
	}

	return sess, nil
}

func (sm *SessionManagerSQL) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sess, err := SessionFromContext(r.Context())
	if err != nil {
		return err
	}

	_, err = sm.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sess.SessionID)
	if err != nil {
		return err
	}

	return nil
}

func (sm *SessionManagerSQL) DestroyAll(ctx context.Context, user *User) error {
	_, err := sm.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", user.ID)
	if err != nil {
		return err
	}

	return nil
}
