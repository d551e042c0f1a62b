package refresh

import (
	"context"
	"time"
)

// NowTimeFunc is the clock used by the stores to decide whether a record is live.
var NowTimeFunc = time.Now

// Record is the server-side half of a refresh credential. The client only holds the
// signed token; a token is usable for rotation iff a live Record with its jti exists.
type Record struct {
	JTI       string
	Subject   string
	ExpiresAt time.Time
}

// Live reports whether the record has not yet expired at now.
func (r *Record) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// Store persists refresh records keyed by jti.
type Store interface {
	// Persist upserts the record. Retrying with the same record is harmless.
	Persist(ctx context.Context, rec *Record) error
	// Consume atomically deletes the record for jti and reports whether a live record
	// existed. Of any number of concurrent calls for one jti at most one returns true.
	Consume(ctx context.Context, jti string) (bool, error)
	// RevokeSubject deletes every record belonging to subject.
	RevokeSubject(ctx context.Context, subject string) (int64, error)
	// PurgeExpired deletes records that expired at or before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
