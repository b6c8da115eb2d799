package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"order-management-api/lifecycle"
	"order-management-api/middleware"
	"order-management-api/models"
)

// DBPinger probes storage connectivity for the ping-db endpoint
type DBPinger interface {
	Ping(ctx context.Context) error
}

type OrderHandler struct {
	manager *lifecycle.Manager
	pinger  DBPinger
	log     *slog.Logger
}

func NewOrderHandler(manager *lifecycle.Manager, pinger DBPinger, log *slog.Logger) *OrderHandler {
	return &OrderHandler{manager: manager, pinger: pinger, log: log}
}

// RegisterValidations installs custom binding rules on gin's validator.
// Call once at startup before serving.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
	}
}

// respondError maps lifecycle error kinds onto HTTP statuses. Internal
// failures are logged in full and surfaced with the fallback message only.
func (h *OrderHandler) respondError(c *gin.Context, err error, fallback string) {
	switch lifecycle.KindOf(err) {
	case lifecycle.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case lifecycle.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case lifecycle.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error(fallback, "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseIDParam(c *gin.Context, name, message string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": message})
		return 0, false
	}
	return uint(id), true
}

type CreateOrderItemRequest struct {
	ItemID    string   `json:"item_id" binding:"required"`
	Quantity  *int     `json:"quantity" binding:"required,min=1"`
	UnitPrice *float64 `json:"unit_price" binding:"required,gte=0"`
}

type CreateOrderRequest struct {
	RestaurantID    uint                     `json:"restaurant_id" binding:"required"`
	DeliveryAddress string                   `json:"delivery_address" binding:"required"`
	PaymentRef      string                   `json:"payment_ref"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder places a new order for the authenticated customer
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := lifecycle.CreateOrderInput{
		CustomerRef:     middleware.GetCustomerRef(c),
		RestaurantID:    req.RestaurantID,
		DeliveryAddress: req.DeliveryAddress,
		PaymentRef:      req.PaymentRef,
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, lifecycle.CreateOrderItem{
			ItemID:    item.ItemID,
			Quantity:  *item.Quantity,
			UnitPrice: *item.UnitPrice,
		})
	}

	order, err := h.manager.CreateOrder(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"orderId": order.ID})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,orderstatus"`
}

// UpdateOrderStatus moves an order to a new lifecycle status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid ID")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	order, err := h.manager.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		h.respondError(c, err, "Failed to update status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Status updated",
		"orderId":   order.ID,
		"newStatus": order.Status,
	})
}

type BindPaymentRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Status     string `json:"status" binding:"required,oneof=confirmed cancelled"`
}

// BindPayment records the payment outcome, confirming or cancelling the order
func (h *OrderHandler) BindPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid ID")
	if !ok {
		return
	}

	var req BindPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.manager.BindPayment(c.Request.Context(), id, req.PaymentRef, models.OrderStatus(req.Status))
	if err != nil {
		h.respondError(c, err, "Failed to bind payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Payment recorded",
		"orderId":    order.ID,
		"paymentRef": req.PaymentRef,
		"newStatus":  order.Status,
	})
}

// GetOrderByID returns a single order
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "Invalid ID")
	if !ok {
		return
	}

	order, err := h.manager.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders returns all orders, optionally filtered by status or restaurant
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var f lifecycle.Filter
	if status := c.Query("status"); status != "" {
		f.Status = models.OrderStatus(status)
	}
	if rid := c.Query("restaurant_id"); rid != "" {
		n, err := strconv.ParseUint(rid, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant ID"})
			return
		}
		f.RestaurantID = uint(n)
	}

	orders, err := h.manager.ListOrders(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "Failed to fetch orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetMyOrders returns the authenticated caller's orders
func (h *OrderHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.manager.ListCustomerOrders(c.Request.Context(), middleware.GetCustomerRef(c))
	if err != nil {
		h.respondError(c, err, "Failed to fetch your orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrdersByRestaurant returns all orders targeting one restaurant
func (h *OrderHandler) GetOrdersByRestaurant(c *gin.Context) {
	id, ok := parseIDParam(c, "restaurantId", "Invalid restaurant ID")
	if !ok {
		return
	}

	orders, err := h.manager.ListRestaurantOrders(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch restaurant orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetLifecycleInfo documents the status enumeration and its nominal order
func (h *OrderHandler) GetLifecycleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statuses":      models.AllStatuses,
		"initial":       models.StatusPending,
		"payment_bind":  []models.OrderStatus{models.StatusConfirmed, models.StatusCancelled},
		"nominal_order": "pending → confirmed → preparing → out_for_delivery → delivered, cancelled from any non-terminal state",
	})
}

// PingDB probes storage connectivity
func (h *OrderHandler) PingDB(c *gin.Context) {
	if err := h.pinger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
