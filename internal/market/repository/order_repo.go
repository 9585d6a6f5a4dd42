package repository

import (
	"context"

	"github.com/agrostack/milletlink/internal/market/entity"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(tx *gorm.DB, o *entity.Order) error {
	return translateErr(tx.Create(o).Error)
}

func (r *OrderRepository) CreateItem(tx *gorm.DB, item *entity.OrderItem) error {
	return translateErr(tx.Create(item).Error)
}

func (r *OrderRepository) AppendHistory(tx *gorm.DB, h *entity.OrderStatusHistory) error {
	return translateErr(tx.Create(h).Error)
}

// FindByIDForSHG scopes the lookup to the owning SHG; foreign orders read as
// not found so existence is not leaked.
func (r *OrderRepository) FindByIDForSHG(ctx context.Context, id, shgID string) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND shg_id = ?", id, shgID).
		First(&o).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &o, nil
}

func (r *OrderRepository) FindByIDForConsumer(ctx context.Context, id, consumerID string) (*entity.Order, error) {
	var o entity.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND consumer_id = ?", id, consumerID).
		First(&o).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &o, nil
}

// UpdateStatus writes the new status on the caller's transaction.
func (r *OrderRepository) UpdateStatus(tx *gorm.DB, orderID, status string) error {
	return translateErr(tx.Model(&entity.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error)
}

// OrderItemRow is an item joined with its product description.
type OrderItemRow struct {
	entity.OrderItem
	MilletType       string  `json:"millet_type"`
	QualityGrade     string  `json:"quality_grade"`
	TraceabilityCode *string `json:"traceability_id,omitempty" gorm:"column:traceability_id"`
	FarmerName       *string `json:"farmer_name,omitempty"`
}

// ItemsByOrder returns the immutable item snapshots with product and
// provenance context.
func (r *OrderRepository) ItemsByOrder(ctx context.Context, orderID string) ([]OrderItemRow, error) {
	var rows []OrderItemRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.*, p.millet_type, p.quality_grade, t.traceability_id, t.farmer_name").
		Joins("INNER JOIN products p ON oi.product_id = p.id").
		Joins("LEFT JOIN traceability_records t ON p.supply_id = t.supply_id").
		Where("oi.order_id = ?", orderID).
		Scan(&rows).Error
	return rows, translateErr(err)
}

// HistoryByOrder returns the status log oldest first.
func (r *OrderRepository) HistoryByOrder(ctx context.Context, orderID string) ([]entity.OrderStatusHistory, error) {
	var rows []entity.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, translateErr(err)
}

// ConsumerOrderRow is an order joined with the seller organization.
type ConsumerOrderRow struct {
	entity.Order
	SHGName    string `json:"shg_name"`
	SHGContact string `json:"shg_contact"`
}

func (r *OrderRepository) ListByConsumer(ctx context.Context, consumerID string) ([]ConsumerOrderRow, error) {
	var rows []ConsumerOrderRow
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.*, s.organization_name AS shg_name, s.contact_person_name AS shg_contact").
		Joins("LEFT JOIN shg_profiles s ON o.shg_id = s.user_id").
		Where("o.consumer_id = ?", consumerID).
		Order("o.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// SHGOrderRow is an order joined with the buyer's contact details.
type SHGOrderRow struct {
	entity.Order
	ConsumerName    string `json:"consumer_name"`
	ConsumerCity    string `json:"consumer_city"`
	ConsumerAddress string `json:"consumer_address"`
	ConsumerMobile  string `json:"consumer_mobile"`
}

func (r *OrderRepository) ListBySHG(ctx context.Context, shgID string) ([]SHGOrderRow, error) {
	var rows []SHGOrderRow
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.*, c.name AS consumer_name, c.city AS consumer_city, c.street AS consumer_address, u.mobile AS consumer_mobile").
		Joins("INNER JOIN consumer_profiles c ON o.consumer_id = c.user_id").
		Joins("INNER JOIN users u ON o.consumer_id = u.id").
		Where("o.shg_id = ?", shgID).
		Order("o.created_at DESC").
		Scan(&rows).Error
	return rows, translateErr(err)
}

// DashboardStats feeds the SHG dashboard.
type DashboardStats struct {
	TotalRevenue  float64          `json:"total_revenue"`
	TotalOrders   int64            `json:"total_orders"`
	PendingOrders int64            `json:"pending_orders"`
	TotalProducts int64            `json:"total_products"`
	RecentOrders  []RecentOrderRow `json:"recent_orders"`
}

type RecentOrderRow struct {
	entity.Order
	ConsumerName string `json:"consumer_name"`
}

func (r *OrderRepository) DashboardStats(ctx context.Context, shgID string) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	err := db.Raw(`
		SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE shg_id = ? AND status = ?
	`, shgID, entity.OrderStatusDelivered).Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, translateErr(err)
	}
	if err := db.Model(&entity.Order{}).Where("shg_id = ?", shgID).Count(&stats.TotalOrders).Error; err != nil {
		return nil, translateErr(err)
	}
	err = db.Model(&entity.Order{}).
		Where("shg_id = ? AND status IN ?", shgID, []string{entity.OrderStatusPlaced, entity.OrderStatusConfirmed}).
		Count(&stats.PendingOrders).Error
	if err != nil {
		return nil, translateErr(err)
	}
	err = db.Model(&entity.Product{}).
		Where("shg_id = ? AND is_active", shgID).
		Count(&stats.TotalProducts).Error
	if err != nil {
		return nil, translateErr(err)
	}

	err = db.Table("orders AS o").
		Select("o.*, c.name AS consumer_name").
		Joins("INNER JOIN consumer_profiles c ON o.consumer_id = c.user_id").
		Where("o.shg_id = ?", shgID).
		Order("o.created_at DESC").
		Limit(5).
		Scan(&stats.RecentOrders).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &stats, nil
}
