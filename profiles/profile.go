package profiles

import (
	"context"
	"fmt"
	"time"
)

// RoleAdmin is the role required for the /admin area.
const RoleAdmin = "admin"

// Profile is a row of the profiles table, keyed by the auth user id.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo interface {
	GetByID(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, profile *Profile) error
}

// RoleLookup answers "which role does this user have" from the profile store.
type RoleLookup struct {
	Repo Repo
}

func (l RoleLookup) RoleFor(ctx context.Context, userID string) (string, error) {
	profile, err := l.Repo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("[profiles RoleFor] %w", err)
	}
	return profile.Role, nil
}
