package costcenters

import (
	"context"
	"sync"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type InMemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{docs: make(map[string]Document)}
}

func (r *InMemoryRepo) Get(_ context.Context, userID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.docs[userID]
	if !ok {
		return Document{}, apperrors.ErrNotFound
	}
	doc.Items = append([]CostCenter(nil), doc.Items...)
	return doc, nil
}

func (r *InMemoryRepo) Put(_ context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc.Items = append([]CostCenter(nil), doc.Items...)
	r.docs[doc.UserID] = doc
	return nil
}
