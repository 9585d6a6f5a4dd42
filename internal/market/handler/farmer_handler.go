package handler

import (
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// FarmerHandler covers the farmer-facing routes: supply lots, payment history
// and sales reporting.
type FarmerHandler struct {
	supplies *service.SupplyService
	payments *service.PaymentService
}

func NewFarmerHandler(supplies *service.SupplyService, payments *service.PaymentService) *FarmerHandler {
	return &FarmerHandler{supplies: supplies, payments: payments}
}

func (h *FarmerHandler) AddSupply(c *gin.Context) {
	var req service.AddSupplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	supply, err := h.supplies.Add(c.Request.Context(), GetUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, supply)
}

func (h *FarmerHandler) ListSupplies(c *gin.Context) {
	rows, err := h.supplies.ListMine(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"supplies": rows})
}

func (h *FarmerHandler) GetSupply(c *gin.Context) {
	row, err := h.supplies.GetMine(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, row)
}

func (h *FarmerHandler) PaymentHistory(c *gin.Context) {
	rows, err := h.payments.FarmerHistory(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"payments": rows})
}

func (h *FarmerHandler) PaymentReceipt(c *gin.Context) {
	receipt, err := h.payments.Receipt(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, receipt)
}

func (h *FarmerHandler) SalesSummary(c *gin.Context) {
	summary, breakdown, err := h.supplies.SalesSummary(c.Request.Context(), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"summary": summary, "millet_breakdown": breakdown})
}
