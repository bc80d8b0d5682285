package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

var _ Repo = (*PostgresRepo)(nil)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetByID(ctx context.Context, userID string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, COALESCE(full_name, ''), COALESCE(role, ''), created_at FROM profiles WHERE id = $1`, userID)

	var p Profile
	if err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("[profiles GetByID] query: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepo) Upsert(ctx context.Context, profile *Profile) error {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (id, email, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, full_name = EXCLUDED.full_name, role = EXCLUDED.role`,
		profile.ID, profile.Email, profile.FullName, profile.Role, profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("[profiles Upsert] exec: %w", err)
	}
	return nil
}
