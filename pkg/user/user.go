package user

import "errors"

// ErrUsernameTaken is returned by Add when the username is already registered.
var ErrUsernameTaken = errors.New("username already taken")

type User struct {
	ID       int64
	Username string
	Password []byte
}
