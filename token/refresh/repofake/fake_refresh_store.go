package refreshrepofake

import (
	"context"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token/refresh"
)

var _ refresh.Store = (*FakeRefreshStore)(nil)

// FakeRefreshStore keeps refresh records in memory. It backs the memory storage
// driver and the tests.
type FakeRefreshStore struct {
	records map[string]refresh.Record
	lock    sync.RWMutex

	// Err, when set, is returned by every operation as a store failure.
	Err error
}

func NewFakeRefreshStore() *FakeRefreshStore {
	return &FakeRefreshStore{
		records: make(map[string]refresh.Record),
	}
}

func (fs *FakeRefreshStore) Persist(_ context.Context, rec *refresh.Record) error {
	if fs.Err != nil {
		return autherrors.E(autherrors.KindStoreUnavailable, "refresh persist", fs.Err)
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.records[rec.JTI] = *rec
	return nil
}

func (fs *FakeRefreshStore) Consume(_ context.Context, jti string) (bool, error) {
	if fs.Err != nil {
		return false, autherrors.E(autherrors.KindStoreUnavailable, "refresh consume", fs.Err)
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()

	rec, ok := fs.records[jti]
	if !ok {
		return false, nil
	}
	delete(fs.records, jti)
	return rec.Live(refresh.NowTimeFunc()), nil
}

func (fs *FakeRefreshStore) RevokeSubject(_ context.Context, subject string) (int64, error) {
	if fs.Err != nil {
		return 0, autherrors.E(autherrors.KindStoreUnavailable, "refresh revoke subject", fs.Err)
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()

	var n int64
	for jti, rec := range fs.records {
		if rec.Subject == subject {
			delete(fs.records, jti)
			n++
		}
	}
	return n, nil
}

func (fs *FakeRefreshStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	if fs.Err != nil {
		return 0, autherrors.E(autherrors.KindStoreUnavailable, "refresh purge", fs.Err)
	}
	fs.lock.Lock()
	defer fs.lock.Unlock()

	var n int64
	for jti, rec := range fs.records {
		if !rec.Live(now) {
			delete(fs.records, jti)
			n++
		}
	}
	return n, nil
}

// Get returns a copy of the record for jti.
func (fs *FakeRefreshStore) Get(jti string) (refresh.Record, bool) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	rec, ok := fs.records[jti]
	return rec, ok
}

// Len returns the number of stored records.
func (fs *FakeRefreshStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.records)
}
