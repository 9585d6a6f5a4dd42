package handler

import (
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// SHGHandler covers the SHG-facing routes: supply intake, product listings,
// order fulfilment and farmer settlements.
type SHGHandler struct {
	supplies *service.SupplyService
	products *service.ProductService
	orders   *service.OrderService
	payments *service.PaymentService
}

func NewSHGHandler(supplies *service.SupplyService, products *service.ProductService, orders *service.OrderService, payments *service.PaymentService) *SHGHandler {
	return &SHGHandler{supplies: supplies, products: products, orders: orders, payments: payments}
}

// --- Supplies ---

func (h *SHGHandler) ListSupplies(c *gin.Context) {
	rows, err := h.supplies.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"supplies": rows})
}

func (h *SHGHandler) AcceptSupply(c *gin.Context) {
	var req service.AcceptSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.supplies.Accept(c.Request.Context(), c.Param("id"), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

func (h *SHGHandler) CompleteSupply(c *gin.Context) {
	if err := h.supplies.Complete(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"status": "completed"})
}

// --- Products ---

func (h *SHGHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	product, err := h.products.Create(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, product)
}

func (h *SHGHandler) ListProducts(c *gin.Context) {
	rows, err := h.products.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"products": rows})
}

// --- Orders ---

func (h *SHGHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListForSHG(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"orders": orders})
}

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func (h *SHGHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), GetUserID(c), req.Status, req.Notes); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"status": req.Status})
}

// --- Payments ---

func (h *SHGHandler) PayFarmer(c *gin.Context) {
	var req service.RecordFarmerPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	payment, err := h.payments.RecordFarmerPayment(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, payment)
}

func (h *SHGHandler) PaymentHistory(c *gin.Context) {
	rows, err := h.payments.SHGHistory(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"payments": rows})
}

// --- Dashboard ---

func (h *SHGHandler) Dashboard(c *gin.Context) {
	stats, err := h.orders.DashboardStats(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, stats)
}
