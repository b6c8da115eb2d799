package lifecycle

import (
	"context"

	"order-management-api/models"
)

// Filter narrows an unrestricted order listing
type Filter struct {
	Status       models.OrderStatus
	RestaurantID uint
}

// Repository is the storage contract for the lifecycle manager. Lookups
// return (nil, nil) when no order matches; the manager decides whether
// absence is an error. Insert and UpdatePaymentAndStatus must enforce
// payment-reference uniqueness at the storage level and surface violations
// as conflict-kinded errors; the manager's own checks are a fast path, not
// the guard of record.
type Repository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uint) (*models.Order, error)
	FindByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
	FindAll(ctx context.Context, f Filter) ([]models.Order, error)
	FindByCustomer(ctx context.Context, customerRef string) ([]models.Order, error)
	FindByRestaurant(ctx context.Context, restaurantID uint) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) error
	UpdatePaymentAndStatus(ctx context.Context, id uint, ref string, status models.OrderStatus) error
}

// OrderCreatedEvent announces a newly persisted order
type OrderCreatedEvent struct {
	OrderID      uint   `json:"order_id"`
	CustomerRef  string `json:"customer_ref"`
	RestaurantID uint   `json:"restaurant_id"`
}

// StatusUpdatedEvent announces an order status change
type StatusUpdatedEvent struct {
	OrderID uint               `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

// NotificationSink receives lifecycle events best-effort. Implementations
// must not block the caller; returned errors are logged and discarded.
type NotificationSink interface {
	OrderCreated(ctx context.Context, ev OrderCreatedEvent) error
	OrderStatusUpdated(ctx context.Context, ev StatusUpdatedEvent) error
}
