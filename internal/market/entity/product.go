package entity

import (
	"time"
)

// Product is an SHG-owned sellable listing, optionally backed by a farmer
// supply. QuantityKg only moves downward through order placement.
type Product struct {
	ID               string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SHGID            string    `json:"shg_id" gorm:"type:uuid;not null;index"`
	SupplyID         *string   `json:"supply_id" gorm:"type:uuid;index"`
	MilletType       string    `json:"millet_type" gorm:"size:64;not null"`
	QuantityKg       float64   `json:"quantity_kg" gorm:"type:decimal(12,2);not null"`
	PricePerKg       float64   `json:"price_per_kg" gorm:"type:decimal(10,2);not null"`
	QualityGrade     string    `json:"quality_grade" gorm:"size:10;not null"`
	PackagingDate    time.Time `json:"packaging_date" gorm:"not null"`
	SourceFarmerName string    `json:"source_farmer_name" gorm:"size:128"`
	Description      string    `json:"description" gorm:"type:text"`
	IsActive         bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
