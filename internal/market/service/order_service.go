package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/repository"
	"gorm.io/gorm"
)

// orderTransitions is the enforced state machine: forward-only along the
// fulfilment chain, cancellation allowed from every non-terminal state.
var orderTransitions = map[string][]string{
	entity.OrderStatusPlaced:    {entity.OrderStatusConfirmed, entity.OrderStatusCancelled},
	entity.OrderStatusConfirmed: {entity.OrderStatusPickedUp, entity.OrderStatusCancelled},
	entity.OrderStatusPickedUp:  {entity.OrderStatusInTransit, entity.OrderStatusCancelled},
	entity.OrderStatusInTransit: {entity.OrderStatusDelivered, entity.OrderStatusCancelled},
	entity.OrderStatusDelivered: {},
	entity.OrderStatusCancelled: {},
}

func transitionAllowed(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderService places orders and drives their fulfilment state machine.
type OrderService struct {
	repo        *repository.OrderRepository
	productRepo *repository.ProductRepository
	db          *gorm.DB
}

func NewOrderService(repo *repository.OrderRepository, productRepo *repository.ProductRepository, db *gorm.DB) *OrderService {
	return &OrderService{repo: repo, productRepo: productRepo, db: db}
}

type PlaceOrderItem struct {
	ProductID  string  `json:"product_id" binding:"required"`
	QuantityKg float64 `json:"quantity_kg" binding:"required,gt=0"`
}

type PlaceOrderRequest struct {
	Items           []PlaceOrderItem `json:"items" binding:"required,min=1"`
	DropoffLocation string           `json:"dropoff_location" binding:"required"`
}

type PlaceOrderResult struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number"`
	TotalAmount float64 `json:"total_amount"`
}

// Place validates every item, reserves stock under row locks, and writes the
// order, its item snapshots and the initial history entry in one transaction.
// Any failure (missing product, cross-seller items, insufficient stock) rolls
// back every decrement already applied in the same call.
func (s *OrderService) Place(ctx context.Context, consumerID string, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var result *PlaceOrderResult
	place := func(orderNumber string) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var (
				shgID       string
				totalAmount float64
				snapshots   []entity.OrderItem
			)

			for _, item := range req.Items {
				if item.QuantityKg <= 0 {
					return fmt.Errorf("%w: quantity must be positive", ErrValidation)
				}

				var product entity.Product
				if err := tx.Where("id = ?", item.ProductID).First(&product).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return repository.ErrNotFound
					}
					return err
				}
				if shgID == "" {
					shgID = product.SHGID
				} else if shgID != product.SHGID {
					return ErrCrossSeller
				}

				unitPrice, err := s.productRepo.ReserveStock(tx, item.ProductID, item.QuantityKg)
				if err != nil {
					return err
				}

				lineTotal := unitPrice * item.QuantityKg
				totalAmount += lineTotal
				snapshots = append(snapshots, entity.OrderItem{
					ProductID:  item.ProductID,
					QuantityKg: item.QuantityKg,
					PricePerKg: unitPrice,
					TotalPrice: lineTotal,
				})
			}

			var shg entity.SHGProfile
			if err := tx.Where("user_id = ?", shgID).First(&shg).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			order := &entity.Order{
				OrderNumber:     orderNumber,
				ConsumerID:      consumerID,
				SHGID:           shgID,
				TotalAmount:     totalAmount,
				PickupLocation:  shg.WarehouseLocation,
				DropoffLocation: req.DropoffLocation,
				Status:          entity.OrderStatusPlaced,
			}
			if err := s.repo.Create(tx, order); err != nil {
				return err
			}

			for i := range snapshots {
				snapshots[i].OrderID = order.ID
				if err := s.repo.CreateItem(tx, &snapshots[i]); err != nil {
					return err
				}
			}

			if err := s.repo.AppendHistory(tx, &entity.OrderStatusHistory{
				OrderID: order.ID,
				Status:  entity.OrderStatusPlaced,
				Notes:   "Order placed successfully",
			}); err != nil {
				return err
			}

			result = &PlaceOrderResult{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				TotalAmount: totalAmount,
			}
			return nil
		})
	}

	err := place(repository.NewOrderNumber())
	if errors.Is(err, repository.ErrConflict) {
		// Order-number collision; retry once with a fresh suffix.
		err = place(repository.NewOrderNumber())
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves an SHG-owned order along the transition table and
// appends the history row in the same transaction.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, shgID, newStatus, notes string) error {
	if _, ok := orderTransitions[newStatus]; !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	order, err := s.repo.FindByIDForSHG(ctx, orderID, shgID)
	if err != nil {
		return err
	}
	if !transitionAllowed(order.Status, newStatus) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, order.Status, newStatus)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateStatus(tx, orderID, newStatus); err != nil {
			return err
		}
		return s.repo.AppendHistory(tx, &entity.OrderStatusHistory{
			OrderID: orderID,
			Status:  newStatus,
			Notes:   notes,
		})
	})
}

// OrderTracking is the consumer-facing aggregate.
type OrderTracking struct {
	Order   *entity.Order               `json:"order"`
	Items   []repository.OrderItemRow   `json:"items"`
	History []entity.OrderStatusHistory `json:"status_history"`
}

// Track returns order + items + full status history, ownership-checked
// against the consumer.
func (s *OrderService) Track(ctx context.Context, orderID, consumerID string) (*OrderTracking, error) {
	order, err := s.repo.FindByIDForConsumer(ctx, orderID, consumerID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.HistoryByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderTracking{Order: order, Items: items, History: history}, nil
}

// ConsumerOrder bundles an order row with its item snapshots for listings.
type ConsumerOrder struct {
	repository.ConsumerOrderRow
	Items []repository.OrderItemRow `json:"items"`
}

func (s *OrderService) ListForConsumer(ctx context.Context, consumerID string) ([]ConsumerOrder, error) {
	rows, err := s.repo.ListByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	orders := make([]ConsumerOrder, 0, len(rows))
	for _, row := range rows {
		items, err := s.repo.ItemsByOrder(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, ConsumerOrder{ConsumerOrderRow: row, Items: items})
	}
	return orders, nil
}

type SHGOrder struct {
	repository.SHGOrderRow
	Items []repository.OrderItemRow `json:"items"`
}

func (s *OrderService) ListForSHG(ctx context.Context, shgID string) ([]SHGOrder, error) {
	rows, err := s.repo.ListBySHG(ctx, shgID)
	if err != nil {
		return nil, err
	}
	orders := make([]SHGOrder, 0, len(rows))
	for _, row := range rows {
		items, err := s.repo.ItemsByOrder(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		orders = append(orders, SHGOrder{SHGOrderRow: row, Items: items})
	}
	return orders, nil
}

func (s *OrderService) DashboardStats(ctx context.Context, shgID string) (*repository.DashboardStats, error) {
	return s.repo.DashboardStats(ctx, shgID)
}
