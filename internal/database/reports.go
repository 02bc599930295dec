package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const getOrderStatusCounts = `
SELECT status, count(*)
FROM orders
GROUP BY status
`

type OrderStatusCountRow struct {
	Status string
	Count  int64
}

func (q *Queries) GetOrderStatusCounts(ctx context.Context) ([]OrderStatusCountRow, error) {
	rows, err := q.db.Query(ctx, getOrderStatusCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []OrderStatusCountRow
	for rows.Next() {
		var row OrderStatusCountRow
		if err := rows.Scan(&row.Status, &row.Count); err != nil {
			return nil, err
		}
		counts = append(counts, row)
	}
	return counts, rows.Err()
}

const getRevenueSummary = `
SELECT count(*), COALESCE(sum(total_amount), 0)
FROM orders
WHERE status <> 'CANCELLED'
`

type RevenueSummaryRow struct {
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetRevenueSummary(ctx context.Context) (RevenueSummaryRow, error) {
	var row RevenueSummaryRow
	err := q.db.QueryRow(ctx, getRevenueSummary).Scan(&row.OrderCount, &row.TotalRevenue)
	return row, err
}

const getDailyRevenue = `
SELECT date_trunc('day', created_at)::date AS day, count(*), COALESCE(sum(total_amount), 0)
FROM orders
WHERE status <> 'CANCELLED'
  AND created_at >= date_trunc('day', now()) - ($1::int - 1) * interval '1 day'
GROUP BY day
ORDER BY day
`

type DailyRevenueRow struct {
	Day          time.Time
	OrderCount   int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetDailyRevenue(ctx context.Context, days int32) ([]DailyRevenueRow, error) {
	rows, err := q.db.Query(ctx, getDailyRevenue, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyRevenueRow
	for rows.Next() {
		var row DailyRevenueRow
		if err := rows.Scan(&row.Day, &row.OrderCount, &row.TotalRevenue); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Top items unpack the embedded JSONB line items of per-item orders. Plate
// orders are excluded: their item lists are reference-only and unpriced.
const getTopItems = `
SELECT item->>'menu_item_id', item->>'name', sum((item->>'quantity')::bigint)
FROM orders, jsonb_array_elements(items) AS item
WHERE order_type = 'INDIVIDUAL' AND status <> 'CANCELLED'
GROUP BY 1, 2
ORDER BY 3 DESC
LIMIT $1
`

type TopItemRow struct {
	MenuItemID    string
	Name          string
	QuantityTotal int64
}

func (q *Queries) GetTopItems(ctx context.Context, limit int32) ([]TopItemRow, error) {
	rows, err := q.db.Query(ctx, getTopItems, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TopItemRow
	for rows.Next() {
		var row TopItemRow
		if err := rows.Scan(&row.MenuItemID, &row.Name, &row.QuantityTotal); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
