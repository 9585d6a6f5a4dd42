package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/agrostack/milletlink/internal/config"
	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/gateway"
	"github.com/agrostack/milletlink/internal/market/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// demoSignature is accepted instead of a real HMAC when no gateway secret is
// configured, mirroring the gateway's test-checkout flow.
const demoSignature = "mock_signature"

// PaymentService records payment attempts, verifies gateway confirmations and
// drives the coupled order/supply transitions.
type PaymentService struct {
	repo       *repository.PaymentRepository
	orderRepo  *repository.OrderRepository
	supplyRepo *repository.SupplyRepository
	db         *gorm.DB
	gw         gateway.Gateway
	cfg        config.RazorpayConfig
	logger     *zap.Logger
}

func NewPaymentService(
	repo *repository.PaymentRepository,
	orderRepo *repository.OrderRepository,
	supplyRepo *repository.SupplyRepository,
	db *gorm.DB,
	gw gateway.Gateway,
	cfg config.RazorpayConfig,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:       repo,
		orderRepo:  orderRepo,
		supplyRepo: supplyRepo,
		db:         db,
		gw:         gw,
		cfg:        cfg,
		logger:     logger,
	}
}

type CreateGatewayOrderRequest struct {
	OrderID string  `json:"order_id" binding:"required"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
}

type GatewayOrderResult struct {
	RazorpayOrderID string  `json:"razorpay_order_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	KeyID           string  `json:"key_id"`
}

// CreateGatewayOrder registers a payment order with the gateway (or the demo
// stub) and persists a pending Payment row keyed by the gateway order id.
// The outbound call runs before any local write: a hung or failed gateway
// leaves no Payment row behind and never holds a transaction open.
func (s *PaymentService) CreateGatewayOrder(ctx context.Context, consumerID string, req CreateGatewayOrderRequest) (*GatewayOrderResult, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	order, err := s.orderRepo.FindByIDForConsumer(ctx, req.OrderID, consumerID)
	if err != nil {
		return nil, err
	}

	keyID := s.cfg.KeyID
	var gatewayOrderID string
	if s.cfg.DemoMode() {
		gatewayOrderID = "order_demo_" + randomHex(4)
		keyID = "rzp_test_demo_key"
	} else {
		gatewayOrderID, err = s.gw.CreateOrder(ctx, int64(req.Amount*100), "INR", order.OrderNumber, map[string]string{
			"order_id":    order.ID,
			"consumer_id": consumerID,
		})
		if err != nil {
			s.logger.Warn("gateway order creation failed",
				zap.String("order_id", order.ID),
				zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
		}
	}

	payment := &entity.Payment{
		PaymentType:     entity.PaymentTypeConsumerOrder,
		OrderID:         &order.ID,
		Amount:          req.Amount,
		Status:          entity.PaymentStatusPending,
		RazorpayOrderID: gatewayOrderID,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	return &GatewayOrderResult{
		RazorpayOrderID: gatewayOrderID,
		Amount:          req.Amount,
		Currency:        "INR",
		KeyID:           keyID,
	}, nil
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type VerifyPaymentResult struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// Verify checks the gateway signature against the pending payment. On a
// mismatch the payment is marked failed outside any transaction, so that
// write sticks even though the request fails, and the order is left
// untouched. On a match the payment flip, the order confirmation and the
// history entry commit together.
func (s *PaymentService) Verify(ctx context.Context, req VerifyPaymentRequest) (*VerifyPaymentResult, error) {
	payment, err := s.repo.FindByGatewayOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if payment.Status != entity.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}

	if !s.signatureValid(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if err := s.repo.MarkFailed(ctx, payment.ID); err != nil {
			s.logger.Error("failed to record failed payment",
				zap.String("payment_id", payment.ID),
				zap.Error(err))
		}
		s.logger.Warn("payment signature mismatch",
			zap.String("payment_id", payment.ID),
			zap.String("razorpay_order_id", req.RazorpayOrderID))
		return nil, ErrSignatureInvalid
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.MarkSuccess(tx, payment.ID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
			return err
		}
		if payment.OrderID == nil {
			return nil
		}
		if err := s.orderRepo.UpdateStatus(tx, *payment.OrderID, entity.OrderStatusConfirmed); err != nil {
			return err
		}
		return s.orderRepo.AppendHistory(tx, &entity.OrderStatusHistory{
			OrderID: *payment.OrderID,
			Status:  entity.OrderStatusConfirmed,
			Notes:   "Payment received and verified",
		})
	})
	if err != nil {
		return nil, err
	}

	return &VerifyPaymentResult{PaymentID: payment.ID, Status: entity.PaymentStatusSuccess}, nil
}

// signatureValid recomputes HMAC-SHA256(orderID|paymentID) under the gateway
// secret and compares in constant time. Demo mode accepts the fixed sentinel.
func (s *PaymentService) signatureValid(orderID, paymentID, signature string) bool {
	if s.cfg.DemoMode() {
		return signature == demoSignature
	}
	mac := hmac.New(sha256.New, []byte(s.cfg.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type RecordFarmerPaymentRequest struct {
	FarmerID      string  `json:"farmer_id" binding:"required"`
	SupplyID      *string `json:"supply_id"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
}

// RecordFarmerPayment inserts an already-successful payment (offline
// settlement) and, when a supply is referenced, marks it paid in the same
// transaction.
func (s *PaymentService) RecordFarmerPayment(ctx context.Context, shgID string, req RecordFarmerPaymentRequest) (*entity.Payment, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	payment := &entity.Payment{
		PaymentType:   entity.PaymentTypeFarmer,
		FarmerID:      &req.FarmerID,
		SupplyID:      req.SupplyID,
		Amount:        req.Amount,
		Status:        entity.PaymentStatusSuccess,
		PaymentMethod: req.PaymentMethod,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, payment); err != nil {
			return err
		}
		if req.SupplyID != nil {
			return s.supplyRepo.MarkPaid(tx, *req.SupplyID, req.FarmerID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) Detail(ctx context.Context, paymentID string) (*repository.PaymentDetail, error) {
	return s.repo.FindDetailByID(ctx, paymentID)
}

func (s *PaymentService) FarmerHistory(ctx context.Context, farmerID string) ([]repository.FarmerPaymentRow, error) {
	return s.repo.ListFarmerPayments(ctx, farmerID)
}

func (s *PaymentService) Receipt(ctx context.Context, paymentID, farmerID string) (*repository.ReceiptRow, error) {
	return s.repo.FindReceipt(ctx, paymentID, farmerID)
}

func (s *PaymentService) SHGHistory(ctx context.Context, shgID string) ([]repository.SHGPaymentRow, error) {
	return s.repo.ListConsumerPaymentsForSHG(ctx, shgID)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())[:n*2]
	}
	return hex.EncodeToString(b)
}
