package catalog

import (
	"strconv"
	"time"
)

// User carries the account attributes relevant to coin operations
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrUserNotFound indicates no user exists for the ID
type ErrUserNotFound struct {
	UserID int64
}

func (e ErrUserNotFound) Error() string {
	return "user not found: " + strconv.FormatInt(e.UserID, 10)
}

// Is matches any ErrUserNotFound when the target carries a zero ID
func (e ErrUserNotFound) Is(target error) bool {
	t, ok := target.(ErrUserNotFound)
	if !ok {
		return false
	}
	if t.UserID == 0 {
		return true
	}
	return e.UserID == t.UserID
}
