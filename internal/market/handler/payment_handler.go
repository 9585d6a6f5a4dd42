package handler

import (
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// PaymentHandler covers the consumer checkout flow against the gateway.
type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) CreateGatewayOrder(c *gin.Context) {
	var req service.CreateGatewayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.CreateGatewayOrder(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, result)
}

func (h *PaymentHandler) Verify(c *gin.Context) {
	var req service.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	result, err := h.svc.Verify(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

func (h *PaymentHandler) Detail(c *gin.Context) {
	detail, err := h.svc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, detail)
}
