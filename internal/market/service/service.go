package service

import (
	"errors"

	"github.com/agrostack/milletlink/internal/config"
	"github.com/agrostack/milletlink/internal/market/gateway"
	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Business-rule errors. Store-level errors (not found, conflict, stock) come
// from the repository package; handlers classify both with errors.Is.
var (
	ErrInvalidState     = errors.New("operation not allowed in current state")
	ErrCrossSeller      = errors.New("all items must be from the same seller")
	ErrEmptyOrder       = errors.New("order must contain at least one item")
	ErrSignatureInvalid = errors.New("payment signature verification failed")
	ErrGatewayFailure   = errors.New("payment gateway request failed")
	ErrValidation       = errors.New("invalid field value")
)

// Services marketplace service set
type Services struct {
	Supply       *SupplyService
	Traceability *TraceabilityService
	Product      *ProductService
	Order        *OrderService
	Payment      *PaymentService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, gw gateway.Gateway, cfg *config.Config, logger *zap.Logger) *Services {
	traceability := NewTraceabilityService(repos.Traceability, rdb)
	supply := NewSupplyService(repos.Supply, repos.Traceability, db)
	product := NewProductService(repos.Product, repos.Supply, db)
	order := NewOrderService(repos.Order, repos.Product, db)
	payment := NewPaymentService(repos.Payment, repos.Order, repos.Supply, db, gw, cfg.Razorpay, logger)

	return &Services{
		Supply:       supply,
		Traceability: traceability,
		Product:      product,
		Order:        order,
		Payment:      payment,
	}
}
