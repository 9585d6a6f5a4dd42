package handler

import (
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// ConsumerHandler covers the shop catalog and consumer order routes.
type ConsumerHandler struct {
	products *service.ProductService
	orders   *service.OrderService
}

func NewConsumerHandler(products *service.ProductService, orders *service.OrderService) *ConsumerHandler {
	return &ConsumerHandler{products: products, orders: orders}
}

// --- Catalog ---

func (h *ConsumerHandler) ListProducts(c *gin.Context) {
	rows, err := h.products.ListActive(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"products": rows})
}

func (h *ConsumerHandler) GetProduct(c *gin.Context) {
	row, err := h.products.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, row)
}

// --- Orders ---

func (h *ConsumerHandler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.orders.Place(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, result)
}

func (h *ConsumerHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListForConsumer(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"orders": orders})
}

func (h *ConsumerHandler) TrackOrder(c *gin.Context) {
	tracking, err := h.orders.Track(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, tracking)
}
