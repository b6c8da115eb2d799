package models

import "time"

// OrderStatus represents all possible states of an order's lifecycle
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// AllStatuses lists the enumeration in nominal fulfillment order, with
// cancelled last. Status updates accept any member as a target; the ordering
// here is informational only (surfaced by the lifecycle info endpoint).
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

// Valid reports whether s is a member of the status enumeration
func (s OrderStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Processed reports whether an order in this status has already been handled
// by the payment-confirmation path or moved beyond it. Payment binding
// refuses to touch processed orders.
func (s OrderStatus) Processed() bool {
	return s.Valid() && s != StatusPending
}

type Order struct {
	ID              uint        `json:"id" gorm:"primaryKey"`
	CustomerRef     string      `json:"customer_ref" gorm:"index;not null"`
	RestaurantID    uint        `json:"restaurant_id" gorm:"index;not null"`
	PaymentRef      *string     `json:"payment_ref" gorm:"uniqueIndex"`
	DeliveryAddress string      `json:"delivery_address" gorm:"not null"`
	Status          OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	Items           []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"not null;index"`
	ItemID    string  `json:"item_id" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"`
}
