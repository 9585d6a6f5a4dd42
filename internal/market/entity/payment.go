package entity

import (
	"time"
)

// PaymentType distinguishes the two money flows.
const (
	PaymentTypeFarmer        = "farmer_payment" // SHG -> farmer, offline settlement
	PaymentTypeConsumerOrder = "consumer_order" // consumer -> platform via gateway
)

// PaymentStatus values
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment records one payment attempt. Farmer payments are inserted already
// successful; consumer-order payments start pending and transition through
// signature verification.
type Payment struct {
	ID                string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	PaymentType       string    `json:"payment_type" gorm:"size:20;not null;index"`
	OrderID           *string   `json:"order_id" gorm:"type:uuid;index"`
	FarmerID          *string   `json:"farmer_id" gorm:"type:uuid;index"`
	SupplyID          *string   `json:"supply_id" gorm:"type:uuid;index"`
	Amount            float64   `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status            string    `json:"status" gorm:"size:10;not null;default:pending"`
	PaymentMethod     string    `json:"payment_method" gorm:"size:32"`
	RazorpayOrderID   string    `json:"razorpay_order_id" gorm:"size:64;uniqueIndex:uniq_payments_rzp_order,where:razorpay_order_id <> ''"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" gorm:"size:64"`
	RazorpaySignature string    `json:"razorpay_signature" gorm:"size:128"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
