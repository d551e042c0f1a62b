// Package users keeps the minimal profile of everyone who has logged in through
// the identity provider.
package users

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// NowTimeFunc stamps created and updated times.
var NowTimeFunc = time.Now

// User is keyed by the identity provider's stable account id.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
