package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jpilocastillo/m8bizz-sub004/auth"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testSecret    = "super-secret-jwt-key"
	testUserID    = "4f1c2d3e-0000-4a4a-9999-000000000001"
	testUserEmail = "advisor@example.com"
	testPassword  = "Password123"
)

type testBackendConfig struct {
	logoutURL string
}

func (testBackendConfig) GetAuthTokenURL() string { return "" }
func (c testBackendConfig) GetAuthLogoutURL() string { return c.logoutURL }
func (testBackendConfig) GetAuthClientID() string { return "dashboard" }
func (testBackendConfig) GetAuthClientSecret() string { return "" }
func (testBackendConfig) GetAuthJWTSecret() string { return testSecret }
func (testBackendConfig) GetAuthOIDCIssuer() string { return "" }
func (testBackendConfig) IsBackendConfigured() bool { return true }

func signAccessToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// fakeHostedAuth is a minimal token + logout endpoint.
type fakeHostedAuth struct {
	server     *httptest.Server
	expiresAt  int64
	tokenCalls atomic.Int64
	logouts    atomic.Int64
	lastBearer atomic.Value
}

func newFakeHostedAuth(t *testing.T) *fakeHostedAuth {
	t.Helper()
	f := &fakeHostedAuth{expiresAt: time.Now().Add(time.Hour).Unix()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		var refresh string
		switch r.PostForm.Get("grant_type") {
		case "password":
			if r.PostForm.Get("username") != testUserEmail || r.PostForm.Get("password") != testPassword {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
				return
			}
			refresh = "refresh-1"
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "refresh-1" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
				return
			}
			refresh = "refresh-2"
		default:
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  signAccessToken(t, testUserID, testUserEmail, time.Unix(f.expiresAt, 0)),
			"token_type":    "bearer",
			"expires_in":    3600,
			"expires_at":    f.expiresAt,
			"refresh_token": refresh,
		})
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		f.logouts.Add(1)
		f.lastBearer.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeHostedAuth) client() *auth.HostedClient {
	endpoint := oauth2.Endpoint{TokenURL: f.server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	return auth.NewHostedClient(endpoint,
		testBackendConfig{logoutURL: f.server.URL + "/logout"},
		auth.NewHMACVerifier(testSecret),
		auth.WithHTTPClient(f.server.Client()),
	)
}

func TestHostedClient_SignIn(t *testing.T) {
	backend := newFakeHostedAuth(t)
	client := backend.client()
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		sess, err := client.SignIn(ctx, testUserEmail, testPassword)
		require.NoError(t, err)
		require.Equal(t, "refresh-1", sess.RefreshToken)
		require.Equal(t, backend.expiresAt, sess.ExpiresAt)
		require.Equal(t, sessions.User{ID: testUserID, Email: testUserEmail}, sess.User)
		require.NotEmpty(t, sess.AccessToken)
		require.Empty(t, sess.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.SignIn(ctx, testUserEmail, "nope")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("empty credentials never reach the backend", func(t *testing.T) {
		before := backend.tokenCalls.Load()
		_, err := client.SignIn(ctx, "", "")
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		require.Equal(t, before, backend.tokenCalls.Load())
	})
}

func TestHostedClient_Refresh(t *testing.T) {
	backend := newFakeHostedAuth(t)
	client := backend.client()
	ctx := context.Background()

	created := time.Now().Add(-time.Hour).Truncate(time.Second)
	current := sessions.Session{ID: "sess-1", RefreshToken: "refresh-1", ExpiresAt: time.Now().Unix() + 60, CreatedAt: created}

	renewed, err := client.Refresh(ctx, current)
	require.NoError(t, err)
	require.Equal(t, "sess-1", renewed.ID)
	require.Equal(t, created, renewed.CreatedAt)
	require.Equal(t, "refresh-2", renewed.RefreshToken)
	require.Equal(t, backend.expiresAt, renewed.ExpiresAt)
	require.Equal(t, int64(1), backend.tokenCalls.Load())

	t.Run("rejected refresh token", func(t *testing.T) {
		_, err := client.Refresh(ctx, sessions.Session{RefreshToken: "stale"})
		require.Error(t, err)
	})

	t.Run("no refresh token", func(t *testing.T) {
		_, err := client.Refresh(ctx, sessions.Session{})
		require.ErrorIs(t, err, apperrors.ErrNoRefreshToken)
	})
}

func TestHostedClient_SignOut(t *testing.T) {
	backend := newFakeHostedAuth(t)
	client := backend.client()

	require.NoError(t, client.SignOut(context.Background(), sessions.Session{AccessToken: "abc"}))
	require.Equal(t, int64(1), backend.logouts.Load())
	require.Equal(t, "Bearer abc", backend.lastBearer.Load())

	require.NoError(t, client.SignOut(context.Background(), sessions.Session{}))
	require.Equal(t, int64(1), backend.logouts.Load())
}

func TestUnconfigured(t *testing.T) {
	svc := auth.Unconfigured{}
	_, err := svc.SignIn(context.Background(), testUserEmail, testPassword)
	require.ErrorIs(t, err, apperrors.ErrNotConfigured)
	_, err = svc.Refresh(context.Background(), sessions.Session{RefreshToken: "x"})
	require.ErrorIs(t, err, apperrors.ErrNotConfigured)
	require.NoError(t, svc.SignOut(context.Background(), sessions.Session{}))
}
