package fakeuserrepo

import (
	"context"
	"sync"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
)

var _ users.Directory = (*FakeUserDirectory)(nil)

type FakeUserDirectory struct {
	users map[string]users.User
	lock  sync.RWMutex

	// Err, when set, fails every call as a store failure.
	Err error
}

func NewFakeUserDirectory() *FakeUserDirectory {
	return &FakeUserDirectory{
		users: make(map[string]users.User),
	}
}

func (ud *FakeUserDirectory) Upsert(_ context.Context, user *users.User) error {
	if ud.Err != nil {
		return autherrors.E(autherrors.KindStoreUnavailable, "users upsert", ud.Err)
	}
	ud.lock.Lock()
	defer ud.lock.Unlock()

	now := users.NowTimeFunc().UTC()
	existing, ok := ud.users[user.ID]
	if !ok {
		stored := *user
		stored.CreatedAt = now
		stored.UpdatedAt = now
		ud.users[user.ID] = stored
		return nil
	}
	existing.Username = user.Username
	existing.AvatarURL = user.AvatarURL
	existing.UpdatedAt = now
	ud.users[user.ID] = existing
	return nil
}

func (ud *FakeUserDirectory) GetByID(_ context.Context, id string) (*users.User, error) {
	if ud.Err != nil {
		return nil, autherrors.E(autherrors.KindStoreUnavailable, "users get", ud.Err)
	}
	ud.lock.RLock()
	defer ud.lock.RUnlock()

	user, ok := ud.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &user, nil
}
