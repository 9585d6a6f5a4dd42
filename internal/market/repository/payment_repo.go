package repository

import (
	"context"

	"github.com/agrostack/milletlink/internal/market/entity"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	return translateErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *PaymentRepository) CreateTx(tx *gorm.DB, p *entity.Payment) error {
	return translateErr(tx.Create(p).Error)
}

func (r *PaymentRepository) FindByGatewayOrderID(ctx context.Context, razorpayOrderID string) (*entity.Payment, error) {
	var p entity.Payment
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", razorpayOrderID).
		First(&p).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// MarkFailed runs on the base connection, deliberately outside any open
// transaction: the failure record must survive even though the verification
// request itself fails.
func (r *PaymentRepository) MarkFailed(ctx context.Context, paymentID string) error {
	return translateErr(r.db.WithContext(ctx).Model(&entity.Payment{}).
		Where("id = ?", paymentID).
		Update("status", entity.PaymentStatusFailed).Error)
}

// MarkSuccess records the gateway ids and signature on the caller's
// transaction. Guarded on the pending status: a concurrent verification that
// already settled the payment makes this a zero-row update, rolling the
// caller's transaction back instead of confirming the order twice.
func (r *PaymentRepository) MarkSuccess(tx *gorm.DB, paymentID, razorpayPaymentID, signature string) error {
	res := tx.Model(&entity.Payment{}).
		Where("id = ? AND status = ?", paymentID, entity.PaymentStatusPending).
		Updates(map[string]any{
			"status":              entity.PaymentStatusSuccess,
			"razorpay_payment_id": razorpayPaymentID,
			"razorpay_signature":  signature,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PaymentDetail joins a payment with its order reference.
type PaymentDetail struct {
	entity.Payment
	OrderNumber *string  `json:"order_number,omitempty"`
	OrderAmount *float64 `json:"order_amount,omitempty"`
}

func (r *PaymentRepository) FindDetailByID(ctx context.Context, id string) (*PaymentDetail, error) {
	var d PaymentDetail
	err := r.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.*, o.order_number, o.total_amount AS order_amount").
		Joins("LEFT JOIN orders o ON p.order_id = o.id").
		Where("p.id = ?", id).
		Limit(1).
		Scan(&d).Error
	if err != nil {
		return nil, translateErr(err)
	}
	if d.ID == "" {
		return nil, ErrNotFound
	}
	return &d, nil
}

// FarmerPaymentRow is a successful farmer payment with payer context.
type FarmerPaymentRow struct {
	entity.Payment
	PaidBy     *string `json:"paid_by"`
	MilletType *string `json:"millet_type"`
}

// ListFarmerPayments returns the farmer's receipt list, newest first.
func (r *PaymentRepository) ListFarmerPayments(ctx context.Context, farmerID string) ([]FarmerPaymentRow, error) {
	var rows []FarmerPaymentRow
	err := r.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.*, s.organization_name AS paid_by, sup.millet_type").
		Joins("LEFT JOIN farmer_supplies sup ON sup.id = p.supply_id").
		Joins("LEFT JOIN shg_profiles s ON s.user_id = sup.shg_id").
		Where("p.farmer_id = ? AND p.payment_type = ? AND p.status = ?",
			farmerID, entity.PaymentTypeFarmer, entity.PaymentStatusSuccess).
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// ReceiptRow is the full receipt for one farmer payment.
type ReceiptRow struct {
	entity.Payment
	FarmerName   *string  `json:"farmer_name"`
	PaidBy       *string  `json:"paid_by"`
	SHGCity      *string  `json:"shg_city"`
	SHGMobile    *string  `json:"shg_mobile"`
	MilletType   *string  `json:"millet_type"`
	QuantityKg   *float64 `json:"quantity_kg"`
	QualityGrade *string  `json:"quality_grade"`
}

func (r *PaymentRepository) FindReceipt(ctx context.Context, paymentID, farmerID string) (*ReceiptRow, error) {
	var row ReceiptRow
	err := r.db.WithContext(ctx).
		Table("payments AS p").
		Select(`p.*, f.name AS farmer_name, s.organization_name AS paid_by, s.city AS shg_city,
			u_shg.mobile AS shg_mobile, sup.millet_type, sup.quantity_kg, sup.quality_grade`).
		Joins("LEFT JOIN farmer_profiles f ON f.user_id = p.farmer_id").
		Joins("LEFT JOIN farmer_supplies sup ON sup.id = p.supply_id").
		Joins("LEFT JOIN shg_profiles s ON s.user_id = sup.shg_id").
		Joins("LEFT JOIN users u_shg ON u_shg.id = s.user_id").
		Where("p.id = ? AND p.farmer_id = ?", paymentID, farmerID).
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	if row.ID == "" {
		return nil, ErrNotFound
	}
	return &row, nil
}

// SHGPaymentRow is a consumer payment against one of the SHG's orders.
type SHGPaymentRow struct {
	entity.Payment
	OrderNumber  string `json:"order_number"`
	ConsumerName string `json:"consumer_name"`
}

// ListConsumerPaymentsForSHG returns payments on the SHG's orders.
func (r *PaymentRepository) ListConsumerPaymentsForSHG(ctx context.Context, shgID string) ([]SHGPaymentRow, error) {
	var rows []SHGPaymentRow
	err := r.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.*, o.order_number, c.name AS consumer_name").
		Joins("INNER JOIN orders o ON p.order_id = o.id").
		Joins("INNER JOIN consumer_profiles c ON o.consumer_id = c.user_id").
		Where("o.shg_id = ? AND p.payment_type = ?", shgID, entity.PaymentTypeConsumerOrder).
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}
