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

const dateLayout = "2006-01-02"

// SupplyService drives the farmer-supply lifecycle:
// pending -> accepted -> listed, and accepted -> completed.
type SupplyService struct {
	repo      *repository.SupplyRepository
	traceRepo *repository.TraceabilityRepository
	db        *gorm.DB
}

func NewSupplyService(repo *repository.SupplyRepository, traceRepo *repository.TraceabilityRepository, db *gorm.DB) *SupplyService {
	return &SupplyService{repo: repo, traceRepo: traceRepo, db: db}
}

type AddSupplyRequest struct {
	MilletType     string  `json:"millet_type" binding:"required"`
	QuantityKg     float64 `json:"quantity_kg" binding:"required,gt=0"`
	HarvestDate    string  `json:"harvest_date" binding:"required"`
	PackagingDate  string  `json:"packaging_date" binding:"required"`
	Location       string  `json:"location" binding:"required"`
	CollectionBy   string  `json:"collection_by"`
	CollectionDate string  `json:"collection_date"`
}

// Add inserts a new lot with status pending and grade PENDING. Single insert,
// no transaction needed.
func (s *SupplyService) Add(ctx context.Context, farmerID string, req AddSupplyRequest) (*entity.Supply, error) {
	if req.QuantityKg <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	harvestDate, err := time.Parse(dateLayout, req.HarvestDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid harvest date", ErrValidation)
	}
	packagingDate, err := time.Parse(dateLayout, req.PackagingDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid packaging date", ErrValidation)
	}

	supply := &entity.Supply{
		FarmerID:      farmerID,
		MilletType:    req.MilletType,
		QuantityKg:    req.QuantityKg,
		QualityGrade:  entity.QualityGradePending,
		HarvestDate:   harvestDate,
		PackagingDate: packagingDate,
		Location:      req.Location,
		CollectionBy:  req.CollectionBy,
		Status:        entity.SupplyStatusPending,
		PaymentStatus: entity.SupplyPaymentUnpaid,
	}
	if req.CollectionDate != "" {
		d, err := time.Parse(dateLayout, req.CollectionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid collection date", ErrValidation)
		}
		supply.CollectionDate = &d
	}

	if err := s.repo.Create(ctx, supply); err != nil {
		return nil, fmt.Errorf("create supply: %w", err)
	}
	return supply, nil
}

type AcceptSupplyRequest struct {
	CollectionBy   string `json:"collection_by"`
	CollectionDate string `json:"collection_date"`
	QualityGrade   string `json:"quality_grade"`
}

// AcceptResult carries the generated traceability code back to the caller.
type AcceptResult struct {
	SupplyID       string `json:"supply_id"`
	TraceabilityID string `json:"traceability_id"`
}

// Accept grades a pending supply, assigns it to the SHG and writes the
// traceability record, all in one transaction. A supply can never end up
// accepted without its record: any failure rolls both writes back.
func (s *SupplyService) Accept(ctx context.Context, supplyID, shgID string, req AcceptSupplyRequest) (*AcceptResult, error) {
	supply, err := s.repo.FindByID(ctx, supplyID)
	if err != nil {
		return nil, err
	}
	if supply.Status != entity.SupplyStatusPending {
		return nil, fmt.Errorf("%w: supply is %s", ErrInvalidState, supply.Status)
	}

	collectionBy := req.CollectionBy
	if collectionBy == "" {
		collectionBy = "Logistics Partner"
	}
	collectionDate := time.Now().AddDate(0, 0, 2)
	if req.CollectionDate != "" {
		d, err := time.Parse(dateLayout, req.CollectionDate)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid collection date", ErrValidation)
		}
		collectionDate = d
	}
	grade := strings.ToUpper(req.QualityGrade)
	if grade == "" {
		grade = "A"
	}
	if grade != "A" && grade != "B" && grade != "C" {
		return nil, fmt.Errorf("%w: quality grade must be A, B, or C", ErrValidation)
	}

	var farmer entity.FarmerProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", supply.FarmerID).First(&farmer).Error; err != nil {
		return nil, fmt.Errorf("load farmer profile: %w", err)
	}

	var code string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Supply{}).
			Where("id = ? AND status = ?", supplyID, entity.SupplyStatusPending).
			Updates(map[string]any{
				"status":          entity.SupplyStatusAccepted,
				"shg_id":          shgID,
				"collection_by":   collectionBy,
				"collection_date": collectionDate,
				"quality_grade":   grade,
			})
		if res.Error != nil {
			return res.Error
		}
		// A concurrent accept already moved it out of pending.
		if res.RowsAffected == 0 {
			return ErrInvalidState
		}

		code, err = s.traceRepo.NextCode(tx, time.Now().Year())
		if err != nil {
			return fmt.Errorf("generate traceability code: %w", err)
		}

		return s.traceRepo.Create(tx, &entity.TraceabilityRecord{
			Code:          code,
			SupplyID:      supply.ID,
			FarmerID:      supply.FarmerID,
			FarmerName:    farmer.Name,
			MilletType:    supply.MilletType,
			HarvestDate:   supply.HarvestDate,
			PackagingDate: supply.PackagingDate,
			QualityGrade:  grade,
		})
	})
	if err != nil {
		return nil, err
	}

	return &AcceptResult{SupplyID: supplyID, TraceabilityID: code}, nil
}

// Complete marks an accepted supply completed. Only the accepting SHG may do
// this; anyone else sees not found.
func (s *SupplyService) Complete(ctx context.Context, supplyID, shgID string) error {
	supply, err := s.repo.FindByID(ctx, supplyID)
	if err != nil {
		return err
	}
	if supply.SHGID == nil || *supply.SHGID != shgID {
		return repository.ErrNotFound
	}
	if supply.Status != entity.SupplyStatusAccepted {
		return fmt.Errorf("%w: supply is %s", ErrInvalidState, supply.Status)
	}

	return s.repo.MarkCompleted(ctx, supplyID)
}

func (s *SupplyService) ListMine(ctx context.Context, farmerID string) ([]repository.FarmerSupplyRow, error) {
	return s.repo.ListByFarmer(ctx, farmerID)
}

func (s *SupplyService) GetMine(ctx context.Context, supplyID, farmerID string) (*repository.FarmerSupplyRow, error) {
	return s.repo.FindByIDForFarmer(ctx, supplyID, farmerID)
}

func (s *SupplyService) ListAll(ctx context.Context) ([]repository.SHGSupplyRow, error) {
	return s.repo.ListAllForSHG(ctx)
}

func (s *SupplyService) SalesSummary(ctx context.Context, farmerID string) (*repository.SalesSummary, []repository.MilletBreakdown, error) {
	return s.repo.SalesSummary(ctx, farmerID)
}
