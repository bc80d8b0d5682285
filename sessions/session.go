package sessions

import (
	"context"
	"time"
)

// User is the identity the hosted auth service attaches to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the application's read-only view of a credential pair issued by
// the hosted auth service. It is replaced wholesale on refresh; nothing local
// derives a new expiry.
type Session struct {
	ID           string    `json:"id"`            // Server-side handle carried in the session cookie
	AccessToken  string    `json:"access_token"`  // Bearer token (JWT)
	RefreshToken string    `json:"refresh_token"` // Exchanged for a renewed session
	ExpiresAt    int64     `json:"expires_at"`    // Absolute expiry, seconds since epoch
	User         User      `json:"user"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expiry returns ExpiresAt as a time.
func (s Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// Remaining is expires_at*1000 - now, at millisecond resolution.
func (s Session) Remaining(now time.Time) time.Duration {
	return time.Duration(s.ExpiresAt*1000-now.UnixMilli()) * time.Millisecond
}

// IsLive reports whether sess is present and not yet expired.
func IsLive(sess *Session, now time.Time) bool {
	return sess != nil && sess.Remaining(now) > 0
}

type contextKey struct{}

// WithSession attaches the request's session to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session the gatekeeper attached, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*Session)
	return sess, ok && sess != nil
}
