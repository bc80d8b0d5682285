package costcenters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

var _ Repo = (*PostgresRepo)(nil)

// PostgresRepo keeps the items in a jsonb column of cost_centers.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Get(ctx context.Context, userID string) (Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data, updated_at FROM cost_centers WHERE user_id = $1`, userID)

	var data []byte
	doc := Document{UserID: userID}
	if err := row.Scan(&data, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, apperrors.ErrNotFound
		}
		return Document{}, fmt.Errorf("[costcenters Get] query: %w", err)
	}
	if err := json.Unmarshal(data, &doc.Items); err != nil {
		return Document{}, fmt.Errorf("[costcenters Get] decode data for %s: %w", userID, err)
	}
	return doc, nil
}

func (r *PostgresRepo) Put(ctx context.Context, doc Document) error {
	if doc.Items == nil {
		doc.Items = []CostCenter{}
	}
	data, err := json.Marshal(doc.Items)
	if err != nil {
		return fmt.Errorf("[costcenters Put] encode: %w", err)
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO cost_centers (user_id, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		doc.UserID, data, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("[costcenters Put] exec: %w", err)
	}
	return nil
}
