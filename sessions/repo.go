package sessions

import "context"

// Repo is the ambient session state. A successful refresh replaces the
// stored session in a single Replace; failures never touch it.
type Repo interface {
	Upsert(ctx context.Context, session Session) error
	// Replace overwrites an existing session and returns ErrSessionNotFound
	// when it has been deleted in the meantime.
	Replace(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}
