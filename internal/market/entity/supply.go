package entity

import (
	"time"
)

// SupplyStatus lifecycle of a farmer supply lot
const (
	SupplyStatusPending   = "pending"
	SupplyStatusAccepted  = "accepted"
	SupplyStatusListed    = "listed"
	SupplyStatusCompleted = "completed"
)

// SupplyPaymentStatus settlement state towards the farmer
const (
	SupplyPaymentUnpaid = "unpaid"
	SupplyPaymentPaid   = "paid"
)

// QualityGradePending is assigned on intake, before SHG grading.
const QualityGradePending = "PENDING"

// Supply is a raw-millet lot offered by a farmer. Rows are never deleted;
// the status column carries the lifecycle.
type Supply struct {
	ID             string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	FarmerID       string     `json:"farmer_id" gorm:"type:uuid;not null;index"`
	SHGID          *string    `json:"shg_id" gorm:"type:uuid;index"`
	MilletType     string     `json:"millet_type" gorm:"size:64;not null"`
	QuantityKg     float64    `json:"quantity_kg" gorm:"type:decimal(12,2);not null"`
	QualityGrade   string     `json:"quality_grade" gorm:"size:10;not null;default:PENDING"`
	HarvestDate    time.Time  `json:"harvest_date" gorm:"not null"`
	PackagingDate  time.Time  `json:"packaging_date" gorm:"not null"`
	Location       string     `json:"location" gorm:"size:255;not null"`
	CollectionBy   string     `json:"collection_by" gorm:"size:128"`
	CollectionDate *time.Time `json:"collection_date"`
	Status         string     `json:"status" gorm:"size:20;not null;default:pending;index"`
	PaymentStatus  string     `json:"payment_status" gorm:"size:10;not null;default:unpaid"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Supply) TableName() string {
	return "farmer_supplies"
}
