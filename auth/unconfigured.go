package auth

import (
	"context"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

var _ Service = Unconfigured{}

// Unconfigured stands in when no backend credentials are present.
type Unconfigured struct{}

func (Unconfigured) SignIn(context.Context, string, string) (sessions.Session, error) {
	return sessions.Session{}, apperrors.ErrNotConfigured
}

func (Unconfigured) Refresh(context.Context, sessions.Session) (sessions.Session, error) {
	return sessions.Session{}, apperrors.ErrNotConfigured
}

func (Unconfigured) SignOut(context.Context, sessions.Session) error {
	return nil
}
