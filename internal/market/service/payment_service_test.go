package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/agrostack/milletlink/internal/config"
	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupPaymentTest(t *testing.T, cfg config.RazorpayConfig) (*gorm.DB, *repository.Repositories, *PaymentService, *OrderService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	orders := NewOrderService(repos.Order, repos.Product, db)
	payments := NewPaymentService(repos.Payment, repos.Order, repos.Supply, db, nil, cfg, zap.NewNop())
	return db, repos, payments, orders
}

func placeTestOrder(t *testing.T, db *gorm.DB, orders *OrderService) (consumerID string, order *PlaceOrderResult) {
	t.Helper()
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	consumerID = testutil.SeedConsumer(t, db, "Asha Rao")
	product := testutil.SeedProduct(t, db, shgID, 50, 60)

	result, err := orders.Place(context.Background(), consumerID, PlaceOrderRequest{
		Items:           []PlaceOrderItem{{ProductID: product.ID, QuantityKg: 10}},
		DropoffLocation: "MG Road, Bengaluru",
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return consumerID, result
}

func TestCreateGatewayOrderDemoMode(t *testing.T) {
	db, repos, payments, orders := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	consumerID, order := placeTestOrder(t, db, orders)

	result, err := payments.CreateGatewayOrder(ctx, consumerID, CreateGatewayOrderRequest{
		OrderID: order.OrderID,
		Amount:  order.TotalAmount,
	})
	if err != nil {
		t.Fatalf("create gateway order: %v", err)
	}
	if !strings.HasPrefix(result.RazorpayOrderID, "order_demo_") {
		t.Fatalf("expected demo order id, got %s", result.RazorpayOrderID)
	}

	payment, err := repos.Payment.FindByGatewayOrderID(ctx, result.RazorpayOrderID)
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if payment.Status != entity.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", payment.Status)
	}
	if payment.OrderID == nil || *payment.OrderID != order.OrderID {
		t.Fatalf("expected payment linked to order, got %v", payment.OrderID)
	}
}

func TestCreateGatewayOrderScopedToConsumer(t *testing.T) {
	db, _, payments, orders := setupPaymentTest(t, config.RazorpayConfig{})

	_, order := placeTestOrder(t, db, orders)
	stranger := testutil.SeedConsumer(t, db, "Someone Else")

	_, err := payments.CreateGatewayOrder(context.Background(), stranger, CreateGatewayOrderRequest{
		OrderID: order.OrderID,
		Amount:  order.TotalAmount,
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign order, got %v", err)
	}
}

func TestVerifyPaymentDemoSentinel(t *testing.T) {
	db, repos, payments, orders := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	consumerID, order := placeTestOrder(t, db, orders)
	created, err := payments.CreateGatewayOrder(ctx, consumerID, CreateGatewayOrderRequest{
		OrderID: order.OrderID,
		Amount:  order.TotalAmount,
	})
	if err != nil {
		t.Fatalf("create gateway order: %v", err)
	}

	result, err := payments.Verify(ctx, VerifyPaymentRequest{
		RazorpayOrderID:   created.RazorpayOrderID,
		RazorpayPaymentID: "pay_demo_001",
		RazorpaySignature: "mock_signature",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != entity.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}

	var ord entity.Order
	if err := db.Where("id = ?", order.OrderID).First(&ord).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if ord.Status != entity.OrderStatusConfirmed {
		t.Fatalf("expected order confirmed, got %s", ord.Status)
	}

	history, err := repos.Order.HistoryByOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	last := history[len(history)-1]
	if last.Status != entity.OrderStatusConfirmed {
		t.Fatalf("expected confirmed history entry, got %s", last.Status)
	}
}

func TestVerifyPaymentSettlesOnlyOnce(t *testing.T) {
	db, repos, payments, orders := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	consumerID, order := placeTestOrder(t, db, orders)
	created, err := payments.CreateGatewayOrder(ctx, consumerID, CreateGatewayOrderRequest{
		OrderID: order.OrderID,
		Amount:  order.TotalAmount,
	})
	if err != nil {
		t.Fatalf("create gateway order: %v", err)
	}

	req := VerifyPaymentRequest{
		RazorpayOrderID:   created.RazorpayOrderID,
		RazorpayPaymentID: "pay_demo_001",
		RazorpaySignature: "mock_signature",
	}
	if _, err := payments.Verify(ctx, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}

	// A settled payment is no longer verifiable; the order must not be
	// confirmed a second time.
	if _, err := payments.Verify(ctx, req); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on re-verify, got %v", err)
	}

	history, err := repos.Order.HistoryByOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var confirmed int
	for _, h := range history {
		if h.Status == entity.OrderStatusConfirmed {
			confirmed++
		}
	}
	if confirmed != 1 {
		t.Fatalf("expected exactly one confirmed history entry, got %d", confirmed)
	}
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	db, repos, payments, orders := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	consumerID, order := placeTestOrder(t, db, orders)
	created, err := payments.CreateGatewayOrder(ctx, consumerID, CreateGatewayOrderRequest{
		OrderID: order.OrderID,
		Amount:  order.TotalAmount,
	})
	if err != nil {
		t.Fatalf("create gateway order: %v", err)
	}

	_, err = payments.Verify(ctx, VerifyPaymentRequest{
		RazorpayOrderID:   created.RazorpayOrderID,
		RazorpayPaymentID: "pay_demo_001",
		RazorpaySignature: "tampered",
	})
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}

	// The failure record sticks even though the request failed.
	payment, err := repos.Payment.FindByGatewayOrderID(ctx, created.RazorpayOrderID)
	if err != nil {
		t.Fatalf("find payment: %v", err)
	}
	if payment.Status != entity.PaymentStatusFailed {
		t.Fatalf("expected failed payment, got %s", payment.Status)
	}

	// The order must not have moved.
	var ord entity.Order
	if err := db.Where("id = ?", order.OrderID).First(&ord).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if ord.Status != entity.OrderStatusPlaced {
		t.Fatalf("expected order still placed, got %s", ord.Status)
	}

	// A failed payment is no longer verifiable.
	_, err = payments.Verify(ctx, VerifyPaymentRequest{
		RazorpayOrderID:   created.RazorpayOrderID,
		RazorpayPaymentID: "pay_demo_001",
		RazorpaySignature: "mock_signature",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-pending payment, got %v", err)
	}
}

func TestVerifyPaymentRealSignature(t *testing.T) {
	cfg := config.RazorpayConfig{KeyID: "rzp_test_abc", KeySecret: "secret123"}
	db, repos, payments, orders := setupPaymentTest(t, cfg)
	ctx := context.Background()

	_, order := placeTestOrder(t, db, orders)

	payment := &entity.Payment{
		PaymentType:     entity.PaymentTypeConsumerOrder,
		OrderID:         &order.OrderID,
		Amount:          order.TotalAmount,
		Status:          entity.PaymentStatusPending,
		RazorpayOrderID: "order_live_xyz",
	}
	if err := repos.Payment.Create(ctx, payment); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(cfg.KeySecret))
	mac.Write([]byte("order_live_xyz|pay_live_001"))
	signature := hex.EncodeToString(mac.Sum(nil))

	result, err := payments.Verify(ctx, VerifyPaymentRequest{
		RazorpayOrderID:   "order_live_xyz",
		RazorpayPaymentID: "pay_live_001",
		RazorpaySignature: signature,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Status != entity.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}

	// The demo sentinel never passes outside demo mode.
	payment2 := &entity.Payment{
		PaymentType:     entity.PaymentTypeConsumerOrder,
		OrderID:         &order.OrderID,
		Amount:          order.TotalAmount,
		Status:          entity.PaymentStatusPending,
		RazorpayOrderID: "order_live_xyz2",
	}
	if err := repos.Payment.Create(ctx, payment2); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	_, err = payments.Verify(ctx, VerifyPaymentRequest{
		RazorpayOrderID:   "order_live_xyz2",
		RazorpayPaymentID: "pay_live_002",
		RazorpaySignature: "mock_signature",
	})
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for sentinel in live mode, got %v", err)
	}
}

func TestRecordFarmerPaymentFlipsSupply(t *testing.T) {
	db, _, payments, _ := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	payment, err := payments.RecordFarmerPayment(ctx, shgID, RecordFarmerPaymentRequest{
		FarmerID:      farmerID,
		SupplyID:      &supply.ID,
		Amount:        3500,
		PaymentMethod: "bank_transfer",
	})
	if err != nil {
		t.Fatalf("record farmer payment: %v", err)
	}
	if payment.Status != entity.PaymentStatusSuccess {
		t.Fatalf("expected success payment, got %s", payment.Status)
	}

	var updated entity.Supply
	if err := db.Where("id = ?", supply.ID).First(&updated).Error; err != nil {
		t.Fatalf("reload supply: %v", err)
	}
	if updated.PaymentStatus != entity.SupplyPaymentPaid {
		t.Fatalf("expected supply paid, got %s", updated.PaymentStatus)
	}
}

func TestRecordFarmerPaymentRollsBackOnSupplyMismatch(t *testing.T) {
	db, _, payments, _ := setupPaymentTest(t, config.RazorpayConfig{})
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	otherFarmer := testutil.SeedFarmer(t, db, "Kamala Bai")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	// Supply belongs to a different farmer; the whole settlement must fail.
	_, err := payments.RecordFarmerPayment(ctx, shgID, RecordFarmerPaymentRequest{
		FarmerID:      otherFarmer,
		SupplyID:      &supply.ID,
		Amount:        3500,
		PaymentMethod: "bank_transfer",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int64
	db.Model(&entity.Payment{}).Where("farmer_id = ?", otherFarmer).Count(&count)
	if count != 0 {
		t.Fatalf("expected payment insert rolled back, found %d rows", count)
	}

	var updated entity.Supply
	if err := db.Where("id = ?", supply.ID).First(&updated).Error; err != nil {
		t.Fatalf("reload supply: %v", err)
	}
	if updated.PaymentStatus != entity.SupplyPaymentUnpaid {
		t.Fatalf("expected supply still unpaid, got %s", updated.PaymentStatus)
	}
}
