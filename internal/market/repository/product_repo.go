package repository

import (
	"context"

	"github.com/agrostack/milletlink/internal/market/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(tx *gorm.DB, p *entity.Product) error {
	return translateErr(tx.Create(p).Error)
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// ReserveStock re-reads the product row under a row lock, verifies it is
// active with enough quantity on hand, decrements, and returns the price per
// kg in effect. Must run on the order-placement transaction so concurrent
// orders against the same product serialize instead of overselling.
func (r *ProductRepository) ReserveStock(tx *gorm.DB, productID string, quantityKg float64) (unitPrice float64, err error) {
	var p entity.Product
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).
		First(&p).Error
	if err != nil {
		return 0, translateErr(err)
	}
	if !p.IsActive {
		return 0, ErrNotFound
	}
	if p.QuantityKg < quantityKg {
		return 0, ErrInsufficientStock
	}

	err = tx.Model(&entity.Product{}).
		Where("id = ?", productID).
		Update("quantity_kg", gorm.Expr("quantity_kg - ?", quantityKg)).Error
	if err != nil {
		return 0, translateErr(err)
	}
	return p.PricePerKg, nil
}

// ShopProductRow is a product joined with seller and traceability info.
type ShopProductRow struct {
	entity.Product
	SHGName          string  `json:"shg_name,omitempty"`
	SHGCity          string  `json:"shg_city,omitempty"`
	TraceabilityCode *string `json:"traceability_id" gorm:"column:traceability_id"`
}

// ListActive returns the consumer-facing catalog: active listings with stock.
func (r *ProductRepository) ListActive(ctx context.Context) ([]ShopProductRow, error) {
	var rows []ShopProductRow
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, s.organization_name AS shg_name, s.city AS shg_city, t.traceability_id").
		Joins("INNER JOIN shg_profiles s ON p.shg_id = s.user_id").
		Joins("LEFT JOIN traceability_records t ON p.supply_id = t.supply_id").
		Where("p.is_active AND p.quantity_kg > 0").
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// FindActiveByID is the consumer product-detail lookup.
func (r *ProductRepository) FindActiveByID(ctx context.Context, id string) (*ShopProductRow, error) {
	var row ShopProductRow
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, s.organization_name AS shg_name, s.city AS shg_city, t.traceability_id").
		Joins("INNER JOIN shg_profiles s ON p.shg_id = s.user_id").
		Joins("LEFT JOIN traceability_records t ON p.supply_id = t.supply_id").
		Where("p.id = ? AND p.is_active", id).
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

// ListBySHG returns an SHG's own listings with traceability codes.
func (r *ProductRepository) ListBySHG(ctx context.Context, shgID string) ([]ShopProductRow, error) {
	var rows []ShopProductRow
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select("p.*, t.traceability_id").
		Joins("LEFT JOIN traceability_records t ON p.supply_id = t.supply_id").
		Where("p.shg_id = ?", shgID).
		Order("p.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}
