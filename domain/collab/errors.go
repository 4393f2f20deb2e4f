package collab

import "errors"

// Domain errors for collaborative sessions.
var (
	ErrUsernameEmpty = errors.New("username cannot be empty")
	ErrDuplicateUser = errors.New("user already in session")
	ErrUserNotFound  = errors.New("user not in session")
)
