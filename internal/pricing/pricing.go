// Package pricing computes order and quotation totals. All functions are
// pure; callers recompute on every mutation instead of caching results.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/nisarga-catering/api/internal/database"
	"github.com/nisarga-catering/api/internal/enum"
)

// Summary is the derived pricing view of an order or quotation snapshot.
type Summary struct {
	TotalItems    int
	TotalQuantity int32
	TotalAmount   decimal.Decimal
}

// Calculate derives the pricing summary for a snapshot.
//
// INDIVIDUAL orders price each line at its captured price times quantity;
// the captured price is whatever the line carries, never a live menu lookup.
// PLATE orders price perPlatePrice times numberOfPlates; their item list is
// reference-only and TotalQuantity is not meaningful for display.
func Calculate(orderType string, items []database.OrderItem, perPlatePrice decimal.Decimal, numberOfPlates int32) Summary {
	s := Summary{
		TotalItems:  len(items),
		TotalAmount: decimal.Zero,
	}
	for _, item := range items {
		s.TotalQuantity += item.Quantity
	}

	if orderType == enum.OrderTypePlate {
		s.TotalAmount = perPlatePrice.Mul(decimal.NewFromInt32(numberOfPlates))
		return s
	}

	for _, item := range items {
		s.TotalAmount = s.TotalAmount.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return s
}

// NormalizeItems drops lines whose quantity is zero or negative. A zero
// quantity means "remove from order"; such lines are never persisted.
func NormalizeItems(items []database.OrderItem) []database.OrderItem {
	normalized := make([]database.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
