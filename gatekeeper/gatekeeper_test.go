package gatekeeper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/auth/authfakes"
	"github.com/jpilocastillo/m8bizz-sub004/gatekeeper"
	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
	fakeprofilerepo "github.com/jpilocastillo/m8bizz-sub004/profiles/repofakes"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const cookieName = "m8_session"

type gatekeeperFixture struct {
	gk       *gatekeeper.Gatekeeper
	store    *sessions.InMemoryRepo
	backend  *authfakes.FakeAuthService
	profiles *fakeprofilerepo.FakeProfileRepo
	spawned  int
}

func newGatekeeperFixture(t *testing.T, opts ...gatekeeper.Option) *gatekeeperFixture {
	t.Helper()

	now := func() time.Time { return testNow }
	f := &gatekeeperFixture{
		store:   sessions.NewInMemoryRepo(),
		backend: authfakes.NewFakeAuthService(time.Hour, now),
		profiles: fakeprofilerepo.NewFakeProfileRepo(
			profiles.Profile{ID: "admin-1", Email: "boss@example.com", Role: profiles.RoleAdmin},
			profiles.Profile{ID: "advisor-1", Email: "advisor@example.com", Role: "advisor"},
		),
	}
	cfg := config.Session{}
	ref := refresher.New(f.backend, f.store, cfg, refresher.WithNow(now))

	// Run background refreshes inline so tests can observe them.
	spawn := func(fn func()) {
		f.spawned++
		fn()
	}

	f.gk = gatekeeper.New(
		gatekeeper.RulesFromAccess(config.DefaultAccess()),
		profiles.RoleLookup{Repo: f.profiles},
		ref,
		gatekeeper.CookieLoader(cookieName, f.store),
		cfg,
		append([]gatekeeper.Option{gatekeeper.WithNow(now), gatekeeper.WithSpawner(spawn)}, opts...)...,
	)
	return f
}

func (f *gatekeeperFixture) addSession(t *testing.T, id, userID string, remaining time.Duration) sessions.Session {
	t.Helper()

	sess := sessions.Session{
		ID:           id,
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		ExpiresAt:    testNow.Add(remaining).Unix(),
		User:         sessions.User{ID: userID, Email: userID + "@example.com"},
		CreatedAt:    testNow.Add(-time.Hour),
	}
	require.NoError(t, f.store.Upsert(context.Background(), sess))
	return sess
}

// serve runs a request through the middleware and reports whether the
// protected handler was reached.
func (f *gatekeeperFixture) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	f.gk.Middleware(next).ServeHTTP(rec, req)
	return rec, reached
}

func requestWithCookie(path, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sessionID})
	}
	return req
}

func TestMiddleware_Routing(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.addSession(t, "advisor-session", "advisor-1", time.Hour)
	f.addSession(t, "admin-session", "admin-1", time.Hour)
	f.addSession(t, "expired-session", "advisor-1", -time.Minute)

	tests := []struct {
		name      string
		path      string
		sessionID string
		reached   bool
		location  string
	}{
		{name: "protected path without session", path: "/business-dashboard/x", location: "/login"},
		{name: "protected path with session", path: "/business-dashboard/x", sessionID: "advisor-session", reached: true},
		{name: "login with session", path: "/login", sessionID: "advisor-session", location: "/"},
		{name: "login without session", path: "/login", reached: true},
		{name: "admin without role", path: "/admin/anything", sessionID: "advisor-session", location: "/admin/login"},
		{name: "admin without session", path: "/admin/anything", location: "/admin/login"},
		{name: "admin with role", path: "/admin/anything", sessionID: "admin-session", reached: true},
		{name: "admin login is public", path: "/admin/login", reached: true},
		{name: "landing is public", path: "/landing", reached: true},
		{name: "auth prefix is public", path: "/auth/callback", reached: true},
		{name: "expired session counts as absent", path: "/profile", sessionID: "expired-session", location: "/login"},
		{name: "login with expired session", path: "/login", sessionID: "expired-session", reached: true},
		{name: "unknown session id", path: "/profile", sessionID: "nope", location: "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, reached := f.serve(t, requestWithCookie(tt.path, tt.sessionID))
			require.Equal(t, tt.reached, reached)
			if tt.location == "" {
				require.Equal(t, http.StatusOK, rec.Code)
				return
			}
			require.Equal(t, http.StatusSeeOther, rec.Code)
			require.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestMiddleware_HTMXRedirect(t *testing.T) {
	f := newGatekeeperFixture(t)

	req := requestWithCookie("/business-dashboard", "")
	req.Header.Set("HX-Request", "true")
	rec, reached := f.serve(t, req)

	require.False(t, reached)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("HX-Redirect"))
}

func TestMiddleware_AttachesSession(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.addSession(t, "advisor-session", "advisor-1", time.Hour)

	var got *sessions.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = sessions.FromContext(r.Context())
	})
	f.gk.Middleware(next).ServeHTTP(httptest.NewRecorder(), requestWithCookie("/profile", "advisor-session"))

	require.NotNil(t, got)
	require.Equal(t, "advisor-1", got.User.ID)
}

func TestMiddleware_RoleLookupFailure(t *testing.T) {
	f := newGatekeeperFixture(t)
	f.addSession(t, "admin-session", "admin-1", time.Hour)
	f.profiles.FailWith(errors.New("database down"))

	rec, reached := f.serve(t, requestWithCookie("/admin", "admin-session"))
	require.False(t, reached)
	require.Equal(t, "/admin/login", rec.Header().Get("Location"))
}

func TestMiddleware_ProactiveRefresh(t *testing.T) {
	t.Run("near expiry refreshes in the background", func(t *testing.T) {
		f := newGatekeeperFixture(t)
		f.addSession(t, "near", "advisor-1", 5*time.Minute)

		_, reached := f.serve(t, requestWithCookie("/business-dashboard", "near"))
		require.True(t, reached)
		require.Equal(t, 1, f.spawned)
		require.Equal(t, 1, f.backend.Refreshes())

		stored, err := f.store.Get(context.Background(), "near")
		require.NoError(t, err)
		require.Equal(t, testNow.Add(time.Hour).Unix(), stored.ExpiresAt)
	})

	t.Run("fresh session is left alone", func(t *testing.T) {
		f := newGatekeeperFixture(t)
		f.addSession(t, "fresh", "advisor-1", time.Hour)

		_, reached := f.serve(t, requestWithCookie("/business-dashboard", "fresh"))
		require.True(t, reached)
		require.Zero(t, f.spawned)
		require.Zero(t, f.backend.Refreshes())
	})

	t.Run("refresh failure does not fail the request", func(t *testing.T) {
		f := newGatekeeperFixture(t)
		sess := f.addSession(t, "near", "advisor-1", 5*time.Minute)
		f.backend.FailRefresh(errors.New("backend unavailable"))

		rec, reached := f.serve(t, requestWithCookie("/business-dashboard", "near"))
		require.True(t, reached)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 1, f.backend.Refreshes())

		stored, err := f.store.Get(context.Background(), "near")
		require.NoError(t, err)
		require.Equal(t, sess.ExpiresAt, stored.ExpiresAt)
	})

	t.Run("expired session is not refreshed", func(t *testing.T) {
		f := newGatekeeperFixture(t)
		f.addSession(t, "gone", "advisor-1", -time.Second)

		_, _ = f.serve(t, requestWithCookie("/business-dashboard", "gone"))
		require.Zero(t, f.spawned)
	})

	t.Run("excluded request is not refreshed", func(t *testing.T) {
		f := newGatekeeperFixture(t, gatekeeper.WithoutBackgroundRefresh(func(r *http.Request) bool {
			return r.URL.Path == "/auth/logout"
		}))
		f.addSession(t, "near", "advisor-1", 5*time.Minute)

		_, reached := f.serve(t, requestWithCookie("/auth/logout", "near"))
		require.True(t, reached)
		require.Zero(t, f.spawned)
		require.Zero(t, f.backend.Refreshes())

		_, reached = f.serve(t, requestWithCookie("/business-dashboard", "near"))
		require.True(t, reached)
		require.Equal(t, 1, f.spawned)
	})
}

func TestDecide(t *testing.T) {
	f := newGatekeeperFixture(t)
	live := &sessions.Session{ID: "s", ExpiresAt: testNow.Add(time.Hour).Unix(), User: sessions.User{ID: "advisor-1"}}

	d := f.gk.Decide(context.Background(), "/business-dashboard/", nil)
	require.Equal(t, gatekeeper.RequiresAuth, d.Kind)
	require.Equal(t, gatekeeper.Redirect, d.Action)

	d = f.gk.Decide(context.Background(), "/login/", live)
	require.Equal(t, gatekeeper.AuthRedirect, d.Kind)
	require.Equal(t, "/", d.Location)

	d = f.gk.Decide(context.Background(), "/static/app.css", nil)
	require.Equal(t, gatekeeper.PublicPath, d.Kind)
	require.Equal(t, gatekeeper.Continue, d.Action)

	d = f.gk.Decide(context.Background(), "/administrator", live)
	require.Equal(t, gatekeeper.RequiresAuth, d.Kind)
	require.Equal(t, gatekeeper.Continue, d.Action)

	require.Equal(t, "requires_role", gatekeeper.RequiresRole.String())
	require.Equal(t, "redirect", gatekeeper.Redirect.String())
}
