package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, category, price, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Category,
		&m.Price,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	return m, err
}

const listMenuItems = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE ($1::text IS NULL OR category = $1)
  AND ($2::text IS NULL OR name ILIKE '%' || $2 || '%')
ORDER BY name
`

type ListMenuItemsParams struct {
	Category pgtype.Text
	Search   pgtype.Text
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.Category, arg.Search)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT ` + menuItemColumns + `
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id))
}

const createMenuItem = `
INSERT INTO menu_items (name, category, price)
VALUES ($1, $2, $3)
RETURNING ` + menuItemColumns + `
`

type CreateMenuItemParams struct {
	Name     string
	Category string
	Price    pgtype.Numeric
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, createMenuItem, arg.Name, arg.Category, arg.Price))
}

const updateMenuItem = `
UPDATE menu_items
SET name = $2, category = $3, price = $4, updated_at = now()
WHERE id = $1
RETURNING ` + menuItemColumns + `
`

type UpdateMenuItemParams struct {
	ID       uuid.UUID
	Name     string
	Category string
	Price    pgtype.Numeric
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	return scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.Name, arg.Category, arg.Price))
}

const deleteMenuItem = `
DELETE FROM menu_items
WHERE id = $1
RETURNING id
`

// DeleteMenuItem hard-deletes a catalog entry. Historical order lines carry
// copied name and price, so past records stay intact.
func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var deleted uuid.UUID
	err := q.db.QueryRow(ctx, deleteMenuItem, id).Scan(&deleted)
	return deleted, err
}
