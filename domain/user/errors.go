package user

import "fmt"

// NotFoundError reports that no account exists for a username.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("user: no account for username %q", e.Username)
}
