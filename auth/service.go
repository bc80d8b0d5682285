// Package auth talks to the hosted authentication service. The service owns
// credentials and sessions; this package only exchanges tokens with it.
package auth

import (
	"context"

	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

// Service is the surface of the hosted auth service the dashboard relies on.
type Service interface {
	// SignIn exchanges credentials for a new session. The returned session has no ID yet.
	SignIn(ctx context.Context, email, password string) (sessions.Session, error)

	// Refresh exchanges current's refresh token for a renewed session.
	Refresh(ctx context.Context, current sessions.Session) (sessions.Session, error)

	// SignOut revokes the session upstream.
	SignOut(ctx context.Context, current sessions.Session) error
}
