package refresher_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Unix(1_700_000_000, 0)

// fakeBackend hands out renewed sessions whose expiry grows with every call.
type fakeBackend struct {
	calls    atomic.Int64
	err      error
	inFlight func()
}

func (b *fakeBackend) Refresh(_ context.Context, current sessions.Session) (sessions.Session, error) {
	n := b.calls.Add(1)
	if b.inFlight != nil {
		b.inFlight()
	}
	if b.err != nil {
		return sessions.Session{}, b.err
	}
	return sessions.Session{
		AccessToken:  "access-renewed",
		RefreshToken: "refresh-renewed",
		ExpiresAt:    testNow.Add(time.Hour).Unix() + n,
	}, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *fakeRecorder) RefreshOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

type refreshFixture struct {
	backend   *fakeBackend
	store     *sessions.InMemoryRepo
	recorder  *fakeRecorder
	refresher *refresher.Refresher
}

func setupRefresher(t *testing.T) *refreshFixture {
	t.Helper()
	f := &refreshFixture{
		backend:  &fakeBackend{},
		store:    sessions.NewInMemoryRepo(),
		recorder: &fakeRecorder{},
	}
	f.refresher = refresher.New(f.backend, f.store, config.Session{},
		refresher.WithNow(func() time.Time { return testNow }),
		refresher.WithRecorder(f.recorder),
	)
	return f
}

func (f *refreshFixture) storedSession(t *testing.T, remaining time.Duration) *sessions.Session {
	t.Helper()
	sess := sessions.Session{
		ID:           "sess-1",
		AccessToken:  "access-old",
		RefreshToken: "refresh-old",
		ExpiresAt:    testNow.Add(remaining).Unix(),
		User:         sessions.User{ID: "user-1", Email: "advisor@example.com"},
		CreatedAt:    testNow.Add(-time.Hour),
	}
	require.NoError(t, f.store.Upsert(context.Background(), sess))
	return &sess
}

func TestEnsureFresh_NoSession(t *testing.T) {
	f := setupRefresher(t)

	outcome, err := f.refresher.EnsureFresh(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, refresher.OutcomeNoSession, outcome)
	require.False(t, outcome.OK())
	require.Zero(t, f.backend.calls.Load())
}

func TestEnsureFresh_FastPathSkipsBackend(t *testing.T) {
	for _, remaining := range []time.Duration{600 * time.Second, 601 * time.Second, 24 * time.Hour} {
		t.Run(remaining.String(), func(t *testing.T) {
			f := setupRefresher(t)
			sess := f.storedSession(t, remaining)

			outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
			require.NoError(t, err)
			require.Equal(t, refresher.OutcomeFresh, outcome)
			require.True(t, outcome.OK())
			require.Zero(t, f.backend.calls.Load())
		})
	}
}

func TestEnsureFresh_RefreshesInsideWindow(t *testing.T) {
	for _, remaining := range []time.Duration{599 * time.Second, 5 * time.Minute, time.Second} {
		t.Run(remaining.String(), func(t *testing.T) {
			f := setupRefresher(t)
			sess := f.storedSession(t, remaining)

			outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
			require.NoError(t, err)
			require.Equal(t, refresher.OutcomeRefreshed, outcome)
			require.Equal(t, int64(1), f.backend.calls.Load())

			stored, err := f.store.Get(context.Background(), "sess-1")
			require.NoError(t, err)
			require.Equal(t, "access-renewed", stored.AccessToken)
			require.Equal(t, testNow.Add(time.Hour).Unix()+1, stored.ExpiresAt)
			require.Equal(t, sess.User, stored.User)
			require.Equal(t, sess.CreatedAt, stored.CreatedAt)
		})
	}
}

func TestEnsureFresh_FailureLeavesSessionUntouched(t *testing.T) {
	f := setupRefresher(t)
	f.backend.err = errors.New("upstream unavailable")
	sess := f.storedSession(t, 2*time.Minute)

	outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
	require.Error(t, err)
	require.True(t, apperrors.Is(err, apperrors.ErrRefreshFailed))
	require.Contains(t, err.Error(), "upstream unavailable")
	require.Equal(t, refresher.OutcomeFailed, outcome)
	require.Equal(t, int64(1), f.backend.calls.Load())

	stored, err := f.store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, *sess, stored)
}

func TestEnsureFresh_SignedOutDuringRefresh(t *testing.T) {
	f := setupRefresher(t)
	sess := f.storedSession(t, 2*time.Minute)
	f.backend.inFlight = func() {
		require.NoError(t, f.store.Delete(context.Background(), sess.ID))
	}

	outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	require.Equal(t, refresher.OutcomeNoSession, outcome)
	require.False(t, outcome.OK())

	_, err = f.store.Get(context.Background(), sess.ID)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	require.Equal(t, []string{"no_session"}, f.recorder.outcomes)
}

func TestEnsureFresh_ExpiredAndTokenless(t *testing.T) {
	t.Run("expired session", func(t *testing.T) {
		f := setupRefresher(t)
		sess := f.storedSession(t, -time.Second)

		outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
		require.NoError(t, err)
		require.Equal(t, refresher.OutcomeExpired, outcome)
		require.Zero(t, f.backend.calls.Load())
	})

	t.Run("missing refresh token", func(t *testing.T) {
		f := setupRefresher(t)
		sess := f.storedSession(t, time.Minute)
		sess.RefreshToken = ""

		outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
		require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
		require.Equal(t, refresher.OutcomeFailed, outcome)
		require.Zero(t, f.backend.calls.Load())
	})
}

func TestEnsureFresh_ConcurrentCallersEachRefresh(t *testing.T) {
	f := setupRefresher(t)
	sess := f.storedSession(t, 3*time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.refresher.EnsureFresh(context.Background(), sess)
			assert.NoError(t, err)
			assert.Equal(t, refresher.OutcomeRefreshed, outcome)
		}()
	}
	wg.Wait()

	require.Equal(t, int64(callers), f.backend.calls.Load())
	stored, err := f.store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, "access-renewed", stored.AccessToken)
}

func TestEnsureFresh_LastSuccessfulReplyWins(t *testing.T) {
	f := setupRefresher(t)
	sess := f.storedSession(t, 3*time.Minute)

	for i := 0; i < 2; i++ {
		_, err := f.refresher.EnsureFresh(context.Background(), sess)
		require.NoError(t, err)
	}

	stored, err := f.store.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, testNow.Add(time.Hour).Unix()+2, stored.ExpiresAt)
	require.Equal(t, []string{"refreshed", "refreshed"}, f.recorder.outcomes)
}

func TestNeedsRefresh(t *testing.T) {
	f := setupRefresher(t)
	require.False(t, f.refresher.NeedsRefresh(nil))
	require.False(t, f.refresher.NeedsRefresh(f.storedSession(t, time.Hour)))
	require.True(t, f.refresher.NeedsRefresh(f.storedSession(t, 9*time.Minute)))
	require.False(t, f.refresher.NeedsRefresh(f.storedSession(t, -time.Minute)))
	require.Equal(t, 600*time.Second, f.refresher.Threshold())
}
