package enum

// Statuses are CHECK constrained in the DB; keep these in sync with the
// migrations.

const (
	OrderStatusPending    = "PENDING"
	OrderStatusConfirmed  = "CONFIRMED"
	OrderStatusInProgress = "IN_PROGRESS"
	OrderStatusCompleted  = "COMPLETED"
	OrderStatusCancelled  = "CANCELLED"
)

const (
	QuotationStatusDraft    = "DRAFT"
	QuotationStatusSent     = "SENT"
	QuotationStatusAccepted = "ACCEPTED"
	QuotationStatusDeclined = "DECLINED"
	QuotationStatusOrdered  = "ORDERED"
)

const (
	OrderTypeIndividual = "INDIVIDUAL"
	OrderTypePlate      = "PLATE"
)

const (
	MenuCategoryVeg    = "VEG"
	MenuCategoryNonVeg = "NON_VEG"
)

const (
	UserRoleAdmin = "ADMIN"
	UserRoleStaff = "STAFF"
)
