package fakeprofilerepo

import (
	"context"
	"sync"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
)

var _ profiles.Repo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]profiles.Profile
	err      error
	lock     sync.RWMutex
}

func NewFakeProfileRepo(seed ...profiles.Profile) *FakeProfileRepo {
	r := &FakeProfileRepo{profiles: make(map[string]profiles.Profile)}
	for _, p := range seed {
		r.profiles[p.ID] = p
	}
	return r
}

// FailWith makes every lookup return err until called again with nil.
func (r *FakeProfileRepo) FailWith(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.err = err
}

func (r *FakeProfileRepo) GetByID(_ context.Context, userID string) (*profiles.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	return &p, nil
}

func (r *FakeProfileRepo) Upsert(_ context.Context, profile *profiles.Profile) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.profiles[profile.ID] = *profile
	return nil
}
