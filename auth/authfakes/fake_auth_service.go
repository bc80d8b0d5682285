package authfakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/auth"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

var _ auth.Service = (*FakeAuthService)(nil)

// FakeAuthService signs in a fixed set of users and counts refreshes.
type FakeAuthService struct {
	lock       sync.Mutex
	users      map[string]fakeUser // email -> user
	lifetime   time.Duration
	now        func() time.Time
	refreshErr error
	refreshes  int
	signOuts   int
	issued     int
}

type fakeUser struct {
	id       string
	password string
}

func NewFakeAuthService(lifetime time.Duration, now func() time.Time) *FakeAuthService {
	return &FakeAuthService{
		users:    make(map[string]fakeUser),
		lifetime: lifetime,
		now:      now,
	}
}

func (f *FakeAuthService) AddUser(id, email, password string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.users[email] = fakeUser{id: id, password: password}
}

// FailRefresh makes Refresh return err until called again with nil.
func (f *FakeAuthService) FailRefresh(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshErr = err
}

func (f *FakeAuthService) Refreshes() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshes
}

func (f *FakeAuthService) SignOuts() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signOuts
}

func (f *FakeAuthService) SignIn(_ context.Context, email, password string) (sessions.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	u, ok := f.users[email]
	if !ok || u.password != password {
		return sessions.Session{}, apperrors.ErrInvalidCredentials
	}
	return f.issue(sessions.User{ID: u.id, Email: email}), nil
}

func (f *FakeAuthService) Refresh(_ context.Context, current sessions.Session) (sessions.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.refreshes++
	if f.refreshErr != nil {
		return sessions.Session{}, f.refreshErr
	}
	renewed := f.issue(current.User)
	renewed.ID = current.ID
	renewed.CreatedAt = current.CreatedAt
	return renewed, nil
}

func (f *FakeAuthService) SignOut(context.Context, sessions.Session) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.signOuts++
	return nil
}

func (f *FakeAuthService) issue(user sessions.User) sessions.Session {
	f.issued++
	return sessions.Session{
		AccessToken:  fmt.Sprintf("access-%d", f.issued),
		RefreshToken: fmt.Sprintf("refresh-%d", f.issued),
		ExpiresAt:    f.now().Add(f.lifetime).Unix(),
		User:         user,
		CreatedAt:    f.now(),
	}
}
