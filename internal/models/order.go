package models

import "time"

const (
	OrderStatusCreated         = "created"
	OrderStatusPaid            = "paid"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusCancelled       = "cancelled"
	OrderStatusCancelledByUser = "cancelled_by_user"
)

//nolint:gochecknoglobals // fixed status set
var OrderStatuses = []string{
	OrderStatusCreated,
	OrderStatusPaid,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCancelled,
	OrderStatusCancelledByUser,
}

func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a product at checkout time, stored as jsonb on
// the order so later price/name changes do not rewrite history.
type OrderItem struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	Qty        int64  `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type Order struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id,omitempty"`
	Email      string      `json:"email,omitempty"`
	Fullname   string      `json:"fullname,omitempty"`
	Items      []OrderItem `json:"items"`
	TotalCents int64       `json:"total_cents"`
	Status     string      `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}
