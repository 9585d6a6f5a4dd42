package handler

import (
	"errors"

	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/gin-gonic/gin"
)

// Handlers marketplace HTTP handler set
type Handlers struct {
	Farmer       *FarmerHandler
	SHG          *SHGHandler
	Consumer     *ConsumerHandler
	Traceability *TraceabilityHandler
	Payment      *PaymentHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Farmer:       NewFarmerHandler(svc.Supply, svc.Payment),
		SHG:          NewSHGHandler(svc.Supply, svc.Product, svc.Order, svc.Payment),
		Consumer:     NewConsumerHandler(svc.Product, svc.Order),
		Traceability: NewTraceabilityHandler(svc.Traceability),
		Payment:      NewPaymentHandler(svc.Payment),
	}
}

// Response common envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error maps an application code to its HTTP status (code / 100).
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID reads the authenticated user id set by the JWT middleware.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// RespondError classifies service and repository errors into the response
// envelope. Unrecognized errors become 500s with a generic message so store
// internals never leak to clients.
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "resource not found")
	case errors.Is(err, service.ErrInvalidState):
		Conflict(c, err.Error())
	case errors.Is(err, repository.ErrInsufficientStock):
		Conflict(c, "insufficient stock")
	case errors.Is(err, repository.ErrConflict):
		Conflict(c, "duplicate resource")
	case errors.Is(err, service.ErrCrossSeller),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrSignatureInvalid):
		BadRequest(c, "payment verification failed")
	case errors.Is(err, service.ErrGatewayFailure):
		Error(c, 50200, "payment gateway unavailable")
	default:
		InternalError(c, "internal server error")
	}
}
