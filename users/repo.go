package users

import "context"

// Directory stores users. Upsert creates the user on first login; later calls only
// refresh the username and avatar, keeping the display name chosen at creation.
type Directory interface {
	Upsert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
}
