// Package status holds the order and quotation status machines.
//
// The transition table and the display sort rank are deliberately separate
// artifacts: reordering statuses for listing purposes must never change
// which transitions are legal.
package status

import (
	"errors"
	"fmt"

	"github.com/nisarga-catering/api/internal/enum"
)

var (
	ErrUnknownStatus       = errors.New("unknown status")
	ErrQuotationConsumed   = errors.New("quotation has already been converted to an order")
	ErrOrderedNotDirect    = errors.New("ORDERED cannot be set directly; convert the quotation instead")
	ErrCancelReasonMissing = errors.New("cancellation reason is required")
)

// orderTransitions is the allowed-transitions graph for orders. The business
// keeps it fully permissive, including backward moves and un-cancelling;
// cancellation itself additionally requires a reason (enforced by the caller
// through RequiresCancellationReason).
var orderTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusConfirmed, enum.OrderStatusInProgress, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusConfirmed:  {enum.OrderStatusPending, enum.OrderStatusInProgress, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusInProgress: {enum.OrderStatusPending, enum.OrderStatusConfirmed, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted:  {enum.OrderStatusPending, enum.OrderStatusConfirmed, enum.OrderStatusInProgress, enum.OrderStatusCancelled},
	enum.OrderStatusCancelled:  {enum.OrderStatusPending, enum.OrderStatusConfirmed, enum.OrderStatusInProgress, enum.OrderStatusCompleted},
}

// quotationTransitions covers the four user-selectable quotation statuses.
// ORDERED appears as no map key and no target: it is reachable only through
// conversion and terminal once reached.
var quotationTransitions = map[string][]string{
	enum.QuotationStatusDraft:    {enum.QuotationStatusSent, enum.QuotationStatusAccepted, enum.QuotationStatusDeclined},
	enum.QuotationStatusSent:     {enum.QuotationStatusDraft, enum.QuotationStatusAccepted, enum.QuotationStatusDeclined},
	enum.QuotationStatusAccepted: {enum.QuotationStatusDraft, enum.QuotationStatusSent, enum.QuotationStatusDeclined},
	enum.QuotationStatusDeclined: {enum.QuotationStatusDraft, enum.QuotationStatusSent, enum.QuotationStatusAccepted},
}

// orderDisplayRank drives listing order only. It intentionally shares no
// data with the transition graph above.
var orderDisplayRank = map[string]int{
	enum.OrderStatusPending:    0,
	enum.OrderStatusConfirmed:  1,
	enum.OrderStatusInProgress: 2,
	enum.OrderStatusCompleted:  3,
	enum.OrderStatusCancelled:  4,
}

var quotationDisplayRank = map[string]int{
	enum.QuotationStatusDraft:    0,
	enum.QuotationStatusSent:     1,
	enum.QuotationStatusAccepted: 2,
	enum.QuotationStatusDeclined: 3,
	enum.QuotationStatusOrdered:  4,
}

func IsValidOrderStatus(s string) bool {
	_, ok := orderDisplayRank[s]
	return ok
}

func IsValidQuotationStatus(s string) bool {
	_, ok := quotationDisplayRank[s]
	return ok
}

// ValidateOrderTransition reports whether an order may move from current to
// next. A same-status write is always a legal no-op.
func ValidateOrderTransition(current, next string) error {
	if !IsValidOrderStatus(next) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if current == next {
		return nil
	}
	for _, allowed := range orderTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition order from %s to %s", current, next)
}

// ValidateQuotationTransition reports whether a quotation may move from
// current to next via a direct status edit. Conversion bypasses this check.
func ValidateQuotationTransition(current, next string) error {
	if next == enum.QuotationStatusOrdered {
		return ErrOrderedNotDirect
	}
	if !IsValidQuotationStatus(next) {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, next)
	}
	if current == enum.QuotationStatusOrdered {
		return ErrQuotationConsumed
	}
	if current == next {
		return nil
	}
	for _, allowed := range quotationTransitions[current] {
		if allowed == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition quotation from %s to %s", current, next)
}

// RequiresCancellationReason reports whether moving from current to next
// must carry a reason. Only the edge into CANCELLED needs one.
func RequiresCancellationReason(current, next string) bool {
	return next == enum.OrderStatusCancelled && current != enum.OrderStatusCancelled
}

// ClearsCancellationReason reports whether moving from current to next must
// drop the stored reason. Any move away from CANCELLED clears it.
func ClearsCancellationReason(current, next string) bool {
	return current == enum.OrderStatusCancelled && next != enum.OrderStatusCancelled
}

// OrderSortRank is the display comparator key for order listings. Unknown
// statuses sort last.
func OrderSortRank(s string) int {
	if rank, ok := orderDisplayRank[s]; ok {
		return rank
	}
	return len(orderDisplayRank)
}

// QuotationSortRank is the display comparator key for quotation listings.
func QuotationSortRank(s string) int {
	if rank, ok := quotationDisplayRank[s]; ok {
		return rank
	}
	return len(quotationDisplayRank)
}
