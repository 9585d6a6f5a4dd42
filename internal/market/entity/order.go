package entity

import (
	"time"
)

// OrderStatus values, forward-only plus cancellation
const (
	OrderStatusPlaced    = "order_placed"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPickedUp  = "picked_up"
	OrderStatusInTransit = "in_transit"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a consumer purchase against a single SHG. TotalAmount is fixed at
// placement time from the item snapshots.
type Order struct {
	ID              string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderNumber     string    `json:"order_number" gorm:"size:24;not null;uniqueIndex"`
	ConsumerID      string    `json:"consumer_id" gorm:"type:uuid;not null;index"`
	SHGID           string    `json:"shg_id" gorm:"type:uuid;not null;index"`
	TotalAmount     float64   `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	PickupLocation  string    `json:"pickup_location" gorm:"size:255"`
	DropoffLocation string    `json:"dropoff_location" gorm:"size:255;not null"`
	Status          string    `json:"status" gorm:"size:20;not null;default:order_placed;index"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Items   []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	History []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable price snapshot; later product price changes never
// affect placed orders.
type OrderItem struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID    string    `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID  string    `json:"product_id" gorm:"type:uuid;not null;index"`
	QuantityKg float64   `json:"quantity_kg" gorm:"type:decimal(12,2);not null"`
	PricePerKg float64   `json:"price_per_kg" gorm:"type:decimal(10,2);not null"`
	TotalPrice float64   `json:"total_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusHistory is the append-only transition log.
type OrderStatusHistory struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	OrderID   string    `json:"order_id" gorm:"type:uuid;not null;index"`
	Status    string    `json:"status" gorm:"size:20;not null"`
	Notes     string    `json:"notes" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
