package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/core"
)

type categoryRow struct {
	ID          string `db:"id"`
	OwnerID     string `db:"owner_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Color       string `db:"color"`
	Icon        string `db:"icon"`
	Active      bool   `db:"is_active"`
	Default     bool   `db:"is_default"`
	CreatedAt   int64  `db:"created_at"`
}

func (row categoryRow) toCore() core.Category {
	return core.Category{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Name:        row.Name,
		Description: row.Description,
		Color:       row.Color,
		Icon:        row.Icon,
		Active:      row.Active,
		Default:     row.Default,
		CreatedAt:   time.UnixMicro(row.CreatedAt).UTC(),
	}
}

const categoryColumns = `id, owner_id, name, description, color, icon, is_active, is_default, created_at`

// Resolve does not look at is_active: inactive categories still label
// existing transactions.
func (r *Repository) Resolve(ctx context.Context, ownerID, categoryID string) (core.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, categoryID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("resolve category %s: %w", categoryID, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, wrapErr("resolve category", err)
	}
	return row.toCore(), nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO categories (`+categoryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.Color, c.Icon, c.Active, c.Default, c.CreatedAt.UnixMicro())
	if err != nil {
		return wrapErr("create category", err)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]core.Category, error) {
	var rows []categoryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY is_default DESC, name`, ownerID)
	if err != nil {
		return nil, wrapErr("list categories", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}
