package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/agrostack/milletlink/internal/market/entity"
	"gorm.io/gorm"
)

type TraceabilityRepository struct {
	db *gorm.DB
}

func NewTraceabilityRepository(db *gorm.DB) *TraceabilityRepository {
	return &TraceabilityRepository{db: db}
}

// NextCode generates TR-{year}-{seq} with a per-year sequence zero-padded to
// three digits (wider once the sequence passes 999). It must be called on the
// transaction that also inserts the record: the unique index on
// traceability_id turns a same-year race into a Conflict that rolls the whole
// acceptance back.
func (r *TraceabilityRepository) NextCode(tx *gorm.DB, year int) (string, error) {
	prefix := fmt.Sprintf("TR-%d-", year)

	// MAX over the text column would compare lexicographically and stall at
	// 999, so take the max over the numeric suffix instead.
	var maxSeq int
	err := tx.Model(&entity.TraceabilityRecord{}).
		Select("COALESCE(MAX(CAST(SUBSTRING(traceability_id, ?::int) AS INTEGER)), 0)", len(prefix)+1).
		Where("traceability_id LIKE ?", prefix+"%").
		Scan(&maxSeq).Error
	if err != nil {
		return "", translateErr(err)
	}
	return fmt.Sprintf("%s%03d", prefix, maxSeq+1), nil
}

// Create inserts the record on the caller's transaction. Never call this
// outside the accept-supply flow; an orphan record would break the
// one-record-per-accepted-supply invariant.
func (r *TraceabilityRepository) Create(tx *gorm.DB, rec *entity.TraceabilityRecord) error {
	return translateErr(tx.Create(rec).Error)
}

// TraceabilityDetail joins the record with supply and farmer data for the
// public lookup endpoints.
type TraceabilityDetail struct {
	entity.TraceabilityRecord
	Location       string     `json:"location"`
	CollectionBy   string     `json:"collection_by"`
	CollectionDate *time.Time `json:"collection_date"`
	SupplyStatus   string     `json:"supply_status"`
	FarmLocation   string     `json:"farm_location"`
	FarmerCity     string     `json:"farmer_city"`
	FarmerEmail    string     `json:"farmer_email"`
	FarmerMobile   string     `json:"farmer_mobile"`
}

const traceDetailSelect = `
	t.*, fs.location, fs.collection_by, fs.collection_date, fs.status AS supply_status,
	fp.farm_location, fp.city AS farmer_city, u.email AS farmer_email, u.mobile AS farmer_mobile`

func (r *TraceabilityRepository) detailQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("traceability_records AS t").
		Select(traceDetailSelect).
		Joins("INNER JOIN farmer_supplies fs ON t.supply_id = fs.id").
		Joins("INNER JOIN farmer_profiles fp ON t.farmer_id = fp.user_id").
		Joins("INNER JOIN users u ON t.farmer_id = u.id")
}

func (r *TraceabilityRepository) FindByID(ctx context.Context, id string) (*TraceabilityDetail, error) {
	var d TraceabilityDetail
	if err := r.detailQuery(ctx).Where("t.id = ?", id).Limit(1).Scan(&d).Error; err != nil {
		return nil, translateErr(err)
	}
	if d.ID == "" {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (r *TraceabilityRepository) FindByCode(ctx context.Context, code string) (*TraceabilityDetail, error) {
	var d TraceabilityDetail
	if err := r.detailQuery(ctx).Where("t.traceability_id = ?", code).Limit(1).Scan(&d).Error; err != nil {
		return nil, translateErr(err)
	}
	if d.ID == "" {
		return nil, ErrNotFound
	}
	return &d, nil
}

// LinkedProduct is the listing built from a traced supply, if any.
type LinkedProduct struct {
	ProductID  string  `json:"product_id"`
	MilletType string  `json:"millet_type"`
	PricePerKg float64 `json:"price_per_kg"`
	SHGName    string  `json:"shg_name"`
	SHGCity    string  `json:"shg_city"`
}

func (r *TraceabilityRepository) FindLinkedProduct(ctx context.Context, supplyID string) (*LinkedProduct, error) {
	var p LinkedProduct
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.id AS product_id, p.millet_type, p.price_per_kg, s.organization_name AS shg_name, s.city AS shg_city").
		Joins("INNER JOIN shg_profiles s ON p.shg_id = s.user_id").
		Where("p.supply_id = ?", supplyID).
		Limit(1).
		Scan(&p).Error
	if err != nil {
		return nil, translateErr(err)
	}
	if p.ProductID == "" {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListRow is the compact listing shape (no contact details).
type ListRow struct {
	ID            string    `json:"id"`
	Code          string    `json:"traceability_id" gorm:"column:traceability_id"`
	MilletType    string    `json:"millet_type"`
	FarmerName    string    `json:"farmer_name"`
	QualityGrade  string    `json:"quality_grade"`
	HarvestDate   time.Time `json:"harvest_date"`
	PackagingDate time.Time `json:"packaging_date"`
	SupplyStatus  string    `json:"supply_status"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListAll returns every record, newest first.
func (r *TraceabilityRepository) ListAll(ctx context.Context) ([]ListRow, error) {
	var rows []ListRow
	err := r.db.WithContext(ctx).
		Table("traceability_records AS t").
		Select("t.id, t.traceability_id, t.millet_type, t.farmer_name, t.quality_grade, t.harvest_date, t.packaging_date, fs.status AS supply_status, t.created_at").
		Joins("INNER JOIN farmer_supplies fs ON t.supply_id = fs.id").
		Order("t.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// CountBySupply backs the acceptance invariant checks in tests.
func (r *TraceabilityRepository) CountBySupply(ctx context.Context, supplyID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.TraceabilityRecord{}).
		Where("supply_id = ?", supplyID).Count(&n).Error
	return n, translateErr(err)
}
