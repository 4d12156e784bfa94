package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// SeedDefaultCategories creates the default categories for an owner that has
// none. It returns how many were created.
func SeedDefaultCategories(ctx context.Context, store ledger.CategoryStore, ownerID string) (int, error) {
	existing, err := store.ListCategories(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	created := 0
	for _, c := range core.DefaultCategories() {
		c.ID = uuid.NewString()
		c.OwnerID = ownerID
		c.CreatedAt = now
		if err := store.CreateCategory(ctx, c); err != nil {
			return created, fmt.Errorf("create category %q: %w", c.Name, err)
		}
		created++
	}

	slog.InfoContext(ctx, "Seeded default categories", "owner_id", ownerID, "count", created)
	return created, nil
}
