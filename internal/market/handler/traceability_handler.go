package handler

import (
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// TraceabilityHandler serves the public provenance lookups. No auth: the
// whole point is that anyone holding a code on a package can verify it.
type TraceabilityHandler struct {
	svc *service.TraceabilityService
}

func NewTraceabilityHandler(svc *service.TraceabilityService) *TraceabilityHandler {
	return &TraceabilityHandler{svc: svc}
}

func (h *TraceabilityHandler) List(c *gin.Context) {
	rows, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"records": rows})
}

func (h *TraceabilityHandler) Get(c *gin.Context) {
	view, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, view)
}

func (h *TraceabilityHandler) Search(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		BadRequest(c, "code is required")
		return
	}
	view, err := h.svc.Search(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, view)
}
