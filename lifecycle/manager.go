package lifecycle

import (
	"context"
	"log/slog"

	"order-management-api/models"
)

// Manager owns the order lifecycle: creation validation, payment binding
// with its uniqueness and already-processed guards, status transitions, and
// lookups. It is stateless between calls; durable state lives behind the
// Repository and notifications go through the NotificationSink.
type Manager struct {
	repo Repository
	sink NotificationSink
	log  *slog.Logger
}

func NewManager(repo Repository, sink NotificationSink, log *slog.Logger) *Manager {
	return &Manager{repo: repo, sink: sink, log: log}
}

// CreateOrderInput carries a creation request after transport decoding
type CreateOrderInput struct {
	CustomerRef     string
	RestaurantID    uint
	DeliveryAddress string
	PaymentRef      string
	Items           []CreateOrderItem
}

type CreateOrderItem struct {
	ItemID    string
	Quantity  int
	UnitPrice float64
}

func (in CreateOrderInput) validate() error {
	if in.RestaurantID == 0 || in.DeliveryAddress == "" || len(in.Items) == 0 {
		return validationf("Missing required fields")
	}
	for _, item := range in.Items {
		if item.ItemID == "" || item.Quantity <= 0 || item.UnitPrice < 0 {
			return validationf("Each item must include item_id, quantity, and price")
		}
	}
	return nil
}

// CreateOrder validates the input, enforces payment-reference uniqueness,
// and persists a new pending order. The OrderCreated notification is
// best-effort and never fails the call.
func (m *Manager) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if in.PaymentRef != "" {
		existing, err := m.repo.FindByPaymentRef(ctx, in.PaymentRef)
		if err != nil {
			return nil, internal("failed to check payment reference", err)
		}
		if existing != nil {
			return nil, conflict("Order already exists for this payment")
		}
	}

	order := &models.Order{
		CustomerRef:     in.CustomerRef,
		RestaurantID:    in.RestaurantID,
		DeliveryAddress: in.DeliveryAddress,
		Status:          models.StatusPending,
	}
	if in.PaymentRef != "" {
		ref := in.PaymentRef
		order.PaymentRef = &ref
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	if err := m.repo.Insert(ctx, order); err != nil {
		// The unique index is the authoritative guard; a concurrent create
		// that slipped past the fast-path check lands here as a conflict.
		if IsConflict(err) {
			return nil, conflict("Order already exists for this payment")
		}
		return nil, internal("failed to create order", err)
	}

	if err := m.sink.OrderCreated(ctx, OrderCreatedEvent{
		OrderID:      order.ID,
		CustomerRef:  order.CustomerRef,
		RestaurantID: order.RestaurantID,
	}); err != nil {
		m.log.Warn("order created notification failed", "order_id", order.ID, "error", err)
	}

	return order, nil
}

// UpdateStatus moves an order to any member of the status enumeration.
// Beyond membership there is no transition-graph enforcement: every status
// is accepted as a target from every current state. The payment-binding path
// is the only place that special-cases processed orders.
func (m *Manager) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, validationf("Invalid status")
	}

	order, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("failed to fetch order", err)
	}
	if order == nil {
		return nil, notFound("Order not found")
	}

	if err := m.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, internal("failed to update status", err)
	}
	order.Status = status

	if err := m.sink.OrderStatusUpdated(ctx, StatusUpdatedEvent{OrderID: id, Status: status}); err != nil {
		m.log.Warn("status updated notification failed", "order_id", id, "error", err)
	}

	return order, nil
}

// BindPayment records the outcome of an external payment against an order,
// moving it to confirmed or cancelled. Repeating an identical bind is
// acknowledged without mutation; any other attempt against an order that
// already carries a payment reference or has left pending is a conflict,
// as is a payment reference held by a different order.
func (m *Manager) BindPayment(ctx context.Context, id uint, ref string, status models.OrderStatus) (*models.Order, error) {
	if ref == "" {
		return nil, validationf("Missing payment reference")
	}
	if status != models.StatusConfirmed && status != models.StatusCancelled {
		return nil, validationf("Status must be confirmed or cancelled")
	}

	order, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("failed to fetch order", err)
	}
	if order == nil {
		return nil, notFound("Order not found")
	}

	// Idempotent replay: same reference, same status, nothing to do.
	if order.PaymentRef != nil && *order.PaymentRef == ref && order.Status == status {
		return order, nil
	}

	if order.PaymentRef != nil && *order.PaymentRef != ref {
		return nil, conflict("Order already processed")
	}
	if order.Status.Processed() {
		return nil, conflict("Order already processed")
	}

	holder, err := m.repo.FindByPaymentRef(ctx, ref)
	if err != nil {
		return nil, internal("failed to check payment reference", err)
	}
	if holder != nil && holder.ID != order.ID {
		return nil, conflict("Payment reference already used by another order")
	}

	if err := m.repo.UpdatePaymentAndStatus(ctx, id, ref, status); err != nil {
		if IsConflict(err) || IsNotFound(err) {
			return nil, err
		}
		return nil, internal("failed to bind payment", err)
	}
	order.PaymentRef = &ref
	order.Status = status

	if err := m.sink.OrderStatusUpdated(ctx, StatusUpdatedEvent{OrderID: id, Status: status}); err != nil {
		m.log.Warn("status updated notification failed", "order_id", id, "error", err)
	}

	return order, nil
}

// GetOrder returns a single order by id
func (m *Manager) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := m.repo.FindByID(ctx, id)
	if err != nil {
		return nil, internal("failed to fetch order", err)
	}
	if order == nil {
		return nil, notFound("Order not found")
	}
	return order, nil
}

// ListOrders returns every order matching the filter. The unrestricted
// listing is kept for compatibility; production deployments should put an
// authorized, paginated path in front of it.
func (m *Manager) ListOrders(ctx context.Context, f Filter) ([]models.Order, error) {
	orders, err := m.repo.FindAll(ctx, f)
	if err != nil {
		return nil, internal("failed to fetch orders", err)
	}
	return orders, nil
}

// ListCustomerOrders returns the orders belonging to one customer reference
func (m *Manager) ListCustomerOrders(ctx context.Context, customerRef string) ([]models.Order, error) {
	orders, err := m.repo.FindByCustomer(ctx, customerRef)
	if err != nil {
		return nil, internal("failed to fetch your orders", err)
	}
	return orders, nil
}

// ListRestaurantOrders returns the orders targeting one restaurant
func (m *Manager) ListRestaurantOrders(ctx context.Context, restaurantID uint) ([]models.Order, error) {
	orders, err := m.repo.FindByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, internal("failed to fetch restaurant orders", err)
	}
	return orders, nil
}
