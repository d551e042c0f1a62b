package rotation_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/rotation"
	"github.com/jrsteele09/go-session-auth/token"
	refreshrepofake "github.com/jrsteele09/go-session-auth/token/refresh/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	secretStr   = "rotation-test-secret"
	testSubject = "7"
)

type testFixture struct {
	now       time.Time
	store     *refreshrepofake.FakeRefreshStore
	issuer    *token.Issuer
	validator *rotation.Validator
	logs      *bytes.Buffer
}

func setupTestFixture(t *testing.T, opts ...rotation.Option) *testFixture {
	t.Helper()

	f := &testFixture{
		now:   time.Now(),
		store: refreshrepofake.NewFakeRefreshStore(),
		logs:  &bytes.Buffer{},
	}
	f.issuer = token.NewIssuer(token.NewHMACSigner(secretStr), token.WithNowFunc(func() time.Time { return f.now }))
	opts = append([]rotation.Option{rotation.WithLogger(zerolog.New(zerolog.SyncWriter(f.logs)))}, opts...)
	f.validator = rotation.NewValidator(f.issuer, f.store, opts...)
	return f
}

func (f *testFixture) login(t *testing.T) *token.Pair {
	t.Helper()
	pair, err := f.validator.Mint(context.Background(), testSubject)
	require.NoError(t, err)
	return pair
}

func TestMintPersistsRefreshRecord(t *testing.T) {
	f := setupTestFixture(t)

	pair := f.login(t)

	rec, ok := f.store.Get(pair.Refresh.ID)
	require.True(t, ok)
	require.Equal(t, testSubject, rec.Subject)
	require.Equal(t, pair.Refresh.ExpiresAt, rec.ExpiresAt)
}

func TestRotateEndToEnd(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first := f.login(t)
	require.Equal(t, 1, f.store.Len())

	second, err := f.validator.Rotate(ctx, first.Refresh.Token)
	require.NoError(t, err)
	require.Equal(t, testSubject, second.Refresh.Subject)
	require.NotEqual(t, first.Refresh.ID, second.Refresh.ID)

	_, ok := f.store.Get(first.Refresh.ID)
	require.False(t, ok, "rotated record must be gone")
	_, ok = f.store.Get(second.Refresh.ID)
	require.True(t, ok, "new record must be persisted")
	require.Equal(t, 1, f.store.Len())

	claims, err := f.issuer.ParseAccess(second.Access.Token)
	require.NoError(t, err)
	require.Equal(t, testSubject, claims.Subject)
}

func TestRotateReplayIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	first := f.login(t)
	second, err := f.validator.Rotate(ctx, first.Refresh.Token)
	require.NoError(t, err)

	_, err = f.validator.Rotate(ctx, first.Refresh.Token)
	require.Equal(t, autherrors.KindReplayedToken, autherrors.KindOf(err))
	require.Contains(t, f.logs.String(), `"event":"refresh_replay"`)
	require.Contains(t, f.logs.String(), `"level":"warn"`)

	// single-record revocation leaves the newer session alone
	_, ok := f.store.Get(second.Refresh.ID)
	require.True(t, ok)
}

func TestRotateReplayCascades(t *testing.T) {
	f := setupTestFixture(t, rotation.WithCascadeRevocation(true))
	ctx := context.Background()

	first := f.login(t)
	second, err := f.validator.Rotate(ctx, first.Refresh.Token)
	require.NoError(t, err)
	other, err := f.validator.Mint(ctx, "8")
	require.NoError(t, err)

	_, err = f.validator.Rotate(ctx, first.Refresh.Token)
	require.Equal(t, autherrors.KindReplayedToken, autherrors.KindOf(err))

	_, ok := f.store.Get(second.Refresh.ID)
	require.False(t, ok, "replay must revoke the subject's live records")
	_, ok = f.store.Get(other.Refresh.ID)
	require.True(t, ok, "other subjects are untouched")
	require.Contains(t, f.logs.String(), `"revoked":1`)
}

func TestRotateNeverPersistedIsReplay(t *testing.T) {
	f := setupTestFixture(t)

	pair, err := f.issuer.Issue(testSubject)
	require.NoError(t, err)

	_, err = f.validator.Rotate(context.Background(), pair.Refresh.Token)
	require.Equal(t, autherrors.KindReplayedToken, autherrors.KindOf(err))
}

func TestRotateExpiredTokenLeavesRecord(t *testing.T) {
	f := setupTestFixture(t)

	pair := f.login(t)
	f.now = f.now.Add(token.DefaultRefreshTokenExpiry + time.Second)

	_, err := f.validator.Rotate(context.Background(), pair.Refresh.Token)
	require.Equal(t, autherrors.KindExpiredToken, autherrors.KindOf(err))

	_, ok := f.store.Get(pair.Refresh.ID)
	require.True(t, ok, "an expired token must be rejected before the store is consulted")
}

func TestRotateRejectsBadInput(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	tests := []struct {
		name string
		raw  string
		want autherrors.Kind
	}{
		{name: "missing", raw: "", want: autherrors.KindMissingCredential},
		{name: "garbage", raw: "not-a-token", want: autherrors.KindMalformedToken},
		{name: "access token", raw: pair.Access.Token, want: autherrors.KindMalformedToken},
		{name: "tampered", raw: pair.Refresh.Token + "x", want: autherrors.KindMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.validator.Rotate(context.Background(), tt.raw)
			require.Equal(t, tt.want, autherrors.KindOf(err))
		})
	}

	_, ok := f.store.Get(pair.Refresh.ID)
	require.True(t, ok)
}

func TestRotateStoreUnavailable(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	f.store.Err = errors.New("connection refused")
	_, err := f.validator.Rotate(context.Background(), pair.Refresh.Token)
	require.Equal(t, autherrors.KindStoreUnavailable, autherrors.KindOf(err))
}

func TestConcurrentRotationSingleWinner(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	const workers = 16
	var wins, replays atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.validator.Rotate(context.Background(), pair.Refresh.Token)
			switch {
			case err == nil:
				wins.Add(1)
			case autherrors.KindOf(err) == autherrors.KindReplayedToken:
				replays.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.EqualValues(t, 1, wins.Load())
	require.EqualValues(t, workers-1, replays.Load())
	require.Equal(t, 1, f.store.Len())
	require.Equal(t, workers-1, strings.Count(f.logs.String(), `"event":"refresh_replay"`))
}

func TestRevokeConsumesCurrentRecord(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	f.validator.Revoke(context.Background(), pair.Refresh.Token)

	_, ok := f.store.Get(pair.Refresh.ID)
	require.False(t, ok)

	_, err := f.validator.Rotate(context.Background(), pair.Refresh.Token)
	require.Equal(t, autherrors.KindReplayedToken, autherrors.KindOf(err))
}

func TestRevokeIgnoresExpiry(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)
	f.now = f.now.Add(token.DefaultRefreshTokenExpiry + time.Hour)

	f.validator.Revoke(context.Background(), pair.Refresh.Token)

	_, ok := f.store.Get(pair.Refresh.ID)
	require.False(t, ok)
}

func TestRevokeIsBestEffort(t *testing.T) {
	f := setupTestFixture(t)
	pair := f.login(t)

	require.NotPanics(t, func() {
		f.validator.Revoke(context.Background(), "")
		f.validator.Revoke(context.Background(), "garbage")
	})
	require.Equal(t, 1, f.store.Len())

	f.store.Err = errors.New("down")
	require.NotPanics(t, func() {
		f.validator.Revoke(context.Background(), pair.Refresh.Token)
	})
}
