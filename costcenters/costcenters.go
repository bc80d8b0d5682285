// Package costcenters stores each advisor's cost centers as a single JSON
// document and derives the totals shown in the dashboard chart legend.
package costcenters

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
)

const maxItems = 100

type CostCenter struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Document is the per-user blob.
type Document struct {
	UserID    string       `json:"user_id"`
	Items     []CostCenter `json:"items"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Repo interface {
	// Get returns apperrors.ErrNotFound when the user has never saved a document
	Get(ctx context.Context, userID string) (Document, error)
	Put(ctx context.Context, doc Document) error
}

// Validate trims names and rejects documents the dashboard cannot render.
func (d *Document) Validate() error {
	if d.UserID == "" {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[costcenters Validate] user id is required")
	}
	if len(d.Items) > maxItems {
		return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[costcenters Validate] at most %d cost centers", maxItems)
	}
	for i := range d.Items {
		d.Items[i].Name = strings.TrimSpace(d.Items[i].Name)
		if d.Items[i].Name == "" {
			return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[costcenters Validate] item %d has no name", i)
		}
		if d.Items[i].Amount < 0 {
			return apperrors.Wrapf(apperrors.ErrInvalidRequest, "[costcenters Validate] %q has a negative amount", d.Items[i].Name)
		}
	}
	return nil
}

// GetOrEmpty returns the stored document, or an empty one when none exists.
func GetOrEmpty(ctx context.Context, repo Repo, userID string) (Document, error) {
	doc, err := repo.Get(ctx, userID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return Document{UserID: userID, Items: []CostCenter{}}, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("[costcenters GetOrEmpty] %w", err)
	}
	return doc, nil
}
