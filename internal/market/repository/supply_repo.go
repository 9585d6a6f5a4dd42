package repository

import (
	"context"

	"github.com/agrostack/milletlink/internal/market/entity"
	"gorm.io/gorm"
)

type SupplyRepository struct {
	db *gorm.DB
}

func NewSupplyRepository(db *gorm.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

func (r *SupplyRepository) Create(ctx context.Context, s *entity.Supply) error {
	return translateErr(r.db.WithContext(ctx).Create(s).Error)
}

func (r *SupplyRepository) FindByID(ctx context.Context, id string) (*entity.Supply, error) {
	var s entity.Supply
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translateErr(err)
	}
	return &s, nil
}

// FarmerSupplyRow is a supply joined with the accepting SHG's name.
type FarmerSupplyRow struct {
	entity.Supply
	SHGName *string `json:"shg_name"`
	SHGCity *string `json:"shg_city,omitempty"`
}

// ListByFarmer returns a farmer's supplies, newest first.
func (r *SupplyRepository) ListByFarmer(ctx context.Context, farmerID string) ([]FarmerSupplyRow, error) {
	var rows []FarmerSupplyRow
	err := r.db.WithContext(ctx).
		Table("farmer_supplies AS fs").
		Select("fs.*, s.organization_name AS shg_name").
		Joins("LEFT JOIN shg_profiles s ON fs.shg_id = s.user_id").
		Where("fs.farmer_id = ?", farmerID).
		Order("fs.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// FindByIDForFarmer is ownership-scoped; a foreign supply reads as not found.
func (r *SupplyRepository) FindByIDForFarmer(ctx context.Context, id, farmerID string) (*FarmerSupplyRow, error) {
	var row FarmerSupplyRow
	err := r.db.WithContext(ctx).
		Table("farmer_supplies AS fs").
		Select("fs.*, s.organization_name AS shg_name, s.city AS shg_city").
		Joins("LEFT JOIN shg_profiles s ON fs.shg_id = s.user_id").
		Where("fs.id = ? AND fs.farmer_id = ?", id, farmerID).
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

// SHGSupplyRow is a supply joined with farmer contact details for SHG intake.
type SHGSupplyRow struct {
	entity.Supply
	FarmerName   string `json:"farmer_name"`
	FarmLocation string `json:"farm_location"`
	FarmerEmail  string `json:"farmer_email"`
	FarmerMobile string `json:"farmer_mobile"`
}

// ListAllForSHG returns every supply with farmer contact, newest first.
func (r *SupplyRepository) ListAllForSHG(ctx context.Context) ([]SHGSupplyRow, error) {
	var rows []SHGSupplyRow
	err := r.db.WithContext(ctx).
		Table("farmer_supplies AS fs").
		Select("fs.*, fp.name AS farmer_name, fp.farm_location, u.email AS farmer_email, u.mobile AS farmer_mobile").
		Joins("INNER JOIN farmer_profiles fp ON fs.farmer_id = fp.user_id").
		Joins("INNER JOIN users u ON fs.farmer_id = u.id").
		Order("fs.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// MarkListed flips a supply to listed when a product cites it. Runs inside
// the product-creation transaction.
func (r *SupplyRepository) MarkListed(tx *gorm.DB, supplyID string) error {
	return translateErr(tx.Model(&entity.Supply{}).
		Where("id = ?", supplyID).
		Update("status", entity.SupplyStatusListed).Error)
}

// MarkCompleted closes out an accepted supply.
func (r *SupplyRepository) MarkCompleted(ctx context.Context, supplyID string) error {
	return translateErr(r.db.WithContext(ctx).Model(&entity.Supply{}).
		Where("id = ?", supplyID).
		Update("status", entity.SupplyStatusCompleted).Error)
}

// MarkPaid sets payment_status to paid, scoped to the matching farmer. Runs
// inside the record-farmer-payment transaction; a miss rolls the payment back.
func (r *SupplyRepository) MarkPaid(tx *gorm.DB, supplyID, farmerID string) error {
	res := tx.Model(&entity.Supply{}).
		Where("id = ? AND farmer_id = ?", supplyID, farmerID).
		Update("payment_status", entity.SupplyPaymentPaid)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SalesSummary aggregates for the farmer analytics endpoint.
type SalesSummary struct {
	TotalSupplies  int64   `json:"total_supplies"`
	TotalQuantity  float64 `json:"total_quantity"`
	PendingCount   int64   `json:"pending_count"`
	AcceptedCount  int64   `json:"accepted_count"`
	CompletedCount int64   `json:"completed_count"`
	TotalEarnings  float64 `json:"total_earnings"`
	TotalPayments  int64   `json:"total_payments"`
}

type MilletBreakdown struct {
	MilletType    string  `json:"millet_type"`
	SupplyCount   int64   `json:"supply_count"`
	TotalQuantity float64 `json:"total_quantity"`
}

func (r *SupplyRepository) SalesSummary(ctx context.Context, farmerID string) (*SalesSummary, []MilletBreakdown, error) {
	var summary SalesSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_supplies,
			COALESCE(SUM(quantity_kg), 0) AS total_quantity,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_count,
			COALESCE(SUM(CASE WHEN status = 'accepted' THEN 1 ELSE 0 END), 0) AS accepted_count,
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed_count
		FROM farmer_supplies
		WHERE farmer_id = ?
	`, farmerID).Scan(&summary).Error
	if err != nil {
		return nil, nil, translateErr(err)
	}

	var earnings struct {
		TotalEarnings float64
		TotalPayments int64
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(amount), 0) AS total_earnings, COUNT(*) AS total_payments
		FROM payments
		WHERE farmer_id = ? AND payment_type = ? AND status = ?
	`, farmerID, entity.PaymentTypeFarmer, entity.PaymentStatusSuccess).Scan(&earnings).Error
	if err != nil {
		return nil, nil, translateErr(err)
	}
	summary.TotalEarnings = earnings.TotalEarnings
	summary.TotalPayments = earnings.TotalPayments

	var breakdown []MilletBreakdown
	err = r.db.WithContext(ctx).Raw(`
		SELECT millet_type, COUNT(*) AS supply_count, COALESCE(SUM(quantity_kg), 0) AS total_quantity
		FROM farmer_supplies
		WHERE farmer_id = ?
		GROUP BY millet_type
	`, farmerID).Scan(&breakdown).Error
	if err != nil {
		return nil, nil, translateErr(err)
	}
	return &summary, breakdown, nil
}
