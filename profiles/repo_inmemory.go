package profiles

import (
	"context"
	"sync"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepo struct {
	profiles map[string]Profile
	lock     sync.RWMutex
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{profiles: make(map[string]Profile)}
}

func (r *InMemoryRepo) GetByID(_ context.Context, userID string) (*Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperrors.ErrProfileNotFound
	}
	return &p, nil
}

func (r *InMemoryRepo) Upsert(_ context.Context, profile *Profile) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.profiles[profile.ID] = *profile
	return nil
}
