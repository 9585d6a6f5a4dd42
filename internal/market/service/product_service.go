package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/repository"
	"gorm.io/gorm"
)

// ProductService manages SHG listings and the cross-aggregate transition that
// flips a cited supply to listed.
type ProductService struct {
	repo       *repository.ProductRepository
	supplyRepo *repository.SupplyRepository
	db         *gorm.DB
}

func NewProductService(repo *repository.ProductRepository, supplyRepo *repository.SupplyRepository, db *gorm.DB) *ProductService {
	return &ProductService{repo: repo, supplyRepo: supplyRepo, db: db}
}

type CreateProductRequest struct {
	SupplyID         *string `json:"supply_id"`
	MilletType       string  `json:"millet_type" binding:"required"`
	QuantityKg       float64 `json:"quantity_kg" binding:"required,gt=0"`
	PricePerKg       float64 `json:"price_per_kg" binding:"required,gt=0"`
	QualityGrade     string  `json:"quality_grade" binding:"required"`
	PackagingDate    string  `json:"packaging_date" binding:"required"`
	SourceFarmerName string  `json:"source_farmer_name"`
	Description      string  `json:"description"`
}

// Create inserts a listing. When the listing cites a supply, the supply's
// move to listed happens in the same transaction; the coupling is part of
// the supply lifecycle contract, not a side effect.
func (s *ProductService) Create(ctx context.Context, shgID string, req CreateProductRequest) (*entity.Product, error) {
	grade := strings.ToUpper(req.QualityGrade)
	if grade != "A" && grade != "B" && grade != "C" {
		return nil, fmt.Errorf("%w: quality grade must be A, B, or C", ErrValidation)
	}
	if req.QuantityKg <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.PricePerKg <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	packagingDate, err := time.Parse(dateLayout, req.PackagingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid packaging date", ErrValidation)
	}

	product := &entity.Product{
		SHGID:            shgID,
		SupplyID:         req.SupplyID,
		MilletType:       req.MilletType,
		QuantityKg:       req.QuantityKg,
		PricePerKg:       req.PricePerKg,
		QualityGrade:     grade,
		PackagingDate:    packagingDate,
		SourceFarmerName: req.SourceFarmerName,
		Description:      req.Description,
		IsActive:         true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, product); err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if req.SupplyID != nil {
			if err := s.supplyRepo.MarkListed(tx, *req.SupplyID); err != nil {
				return fmt.Errorf("mark supply listed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) ListMine(ctx context.Context, shgID string) ([]repository.ShopProductRow, error) {
	return s.repo.ListBySHG(ctx, shgID)
}

func (s *ProductService) ListActive(ctx context.Context) ([]repository.ShopProductRow, error) {
	return s.repo.ListActive(ctx)
}

func (s *ProductService) GetActive(ctx context.Context, id string) (*repository.ShopProductRow, error) {
	return s.repo.FindActiveByID(ctx, id)
}
