package entity

import (
	"time"
)

// TraceabilityRecord is the immutable provenance snapshot written exactly
// once per accepted supply. The unique index on SupplyID enforces
// one-record-per-supply at the store level; Code carries the public
// TR-{year}-{seq} identifier.
type TraceabilityRecord struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code          string    `json:"traceability_id" gorm:"column:traceability_id;size:20;not null;uniqueIndex"`
	SupplyID      string    `json:"supply_id" gorm:"type:uuid;not null;uniqueIndex"`
	FarmerID      string    `json:"farmer_id" gorm:"type:uuid;not null;index"`
	FarmerName    string    `json:"farmer_name" gorm:"size:128;not null"`
	MilletType    string    `json:"millet_type" gorm:"size:64;not null"`
	HarvestDate   time.Time `json:"harvest_date" gorm:"not null"`
	PackagingDate time.Time `json:"packaging_date" gorm:"not null"`
	QualityGrade  string    `json:"quality_grade" gorm:"size:10;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (TraceabilityRecord) TableName() string {
	return "traceability_records"
}
