package routes

import (
	"github.com/gin-gonic/gin"

	"order-management-api/handlers"
	"order-management-api/middleware"
)

// SetupRoutes registers the order routes. Everything under /orders requires
// a bearer token; the listing and lifecycle routes sit before the :id routes
// so their static segments win.
func SetupRoutes(r *gin.Engine, h *handlers.OrderHandler, jwtSecret []byte) {
	handlers.RegisterValidations()

	orders := r.Group("/orders")
	orders.Use(middleware.AuthRequired(jwtSecret))
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/mine", h.GetMyOrders)
		orders.GET("/lifecycle", h.GetLifecycleInfo)
		orders.GET("/ping-db", h.PingDB)
		orders.GET("/restaurant/:restaurantId", h.GetOrdersByRestaurant)
		orders.GET("/:id", h.GetOrderByID)
		orders.PATCH("/:id/status", h.UpdateOrderStatus)
		orders.POST("/:id/payment", h.BindPayment)
	}
}
