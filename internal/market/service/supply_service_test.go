package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/testutil"
	"gorm.io/gorm"
)

func setupSupplyTest(t *testing.T) (*gorm.DB, *repository.Repositories, *SupplyService) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewSupplyService(repos.Supply, repos.Traceability, db)
	return db, repos, svc
}

func TestAcceptSupplyWritesTraceabilityRecord(t *testing.T) {
	db, repos, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	result, err := svc.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{QualityGrade: "B"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	wantCode := fmt.Sprintf("TR-%d-001", time.Now().Year())
	if result.TraceabilityID != wantCode {
		t.Fatalf("expected code %s, got %s", wantCode, result.TraceabilityID)
	}

	updated, err := repos.Supply.FindByID(ctx, supply.ID)
	if err != nil {
		t.Fatalf("reload supply: %v", err)
	}
	if updated.Status != entity.SupplyStatusAccepted {
		t.Fatalf("expected status accepted, got %s", updated.Status)
	}
	if updated.SHGID == nil || *updated.SHGID != shgID {
		t.Fatalf("expected shg_id %s, got %v", shgID, updated.SHGID)
	}
	if updated.QualityGrade != "B" {
		t.Fatalf("expected grade B, got %s", updated.QualityGrade)
	}

	count, err := repos.Traceability.CountBySupply(ctx, supply.ID)
	if err != nil {
		t.Fatalf("count records: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one record, got %d", count)
	}

	detail, err := repos.Traceability.FindByCode(ctx, wantCode)
	if err != nil {
		t.Fatalf("find by code: %v", err)
	}
	if detail.FarmerName != "Lakshmi Devi" {
		t.Fatalf("expected farmer name denormalized, got %q", detail.FarmerName)
	}
	if detail.MilletType != "Ragi" {
		t.Fatalf("expected millet type Ragi, got %q", detail.MilletType)
	}
}

func TestAcceptSupplySequenceIncrementsWithinYear(t *testing.T) {
	db, _, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Kamala Bai")
	shgID := testutil.SeedSHG(t, db, "Green Valley SHG")

	first := testutil.SeedSupply(t, db, farmerID, "Foxtail Millet", 40)
	second := testutil.SeedSupply(t, db, farmerID, "Pearl Millet", 60)

	r1, err := svc.Accept(ctx, first.ID, shgID, AcceptSupplyRequest{})
	if err != nil {
		t.Fatalf("accept first: %v", err)
	}
	r2, err := svc.Accept(ctx, second.ID, shgID, AcceptSupplyRequest{})
	if err != nil {
		t.Fatalf("accept second: %v", err)
	}

	year := time.Now().Year()
	if r1.TraceabilityID != fmt.Sprintf("TR-%d-001", year) {
		t.Fatalf("unexpected first code %s", r1.TraceabilityID)
	}
	if r2.TraceabilityID != fmt.Sprintf("TR-%d-002", year) {
		t.Fatalf("unexpected second code %s", r2.TraceabilityID)
	}
}

func TestAcceptSupplySequencePastThreeDigits(t *testing.T) {
	db, _, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Kamala Bai")
	shgID := testutil.SeedSHG(t, db, "Green Valley SHG")
	year := time.Now().Year()

	// Backfill records up to the three-digit boundary; the next code must
	// advance to 1001, not fall back to the lexicographic max of 999.
	for _, seq := range []int{999, 1000} {
		seeded := testutil.SeedSupply(t, db, farmerID, "Ragi", 10)
		rec := &entity.TraceabilityRecord{
			Code:          fmt.Sprintf("TR-%d-%03d", year, seq),
			SupplyID:      seeded.ID,
			FarmerID:      farmerID,
			FarmerName:    "Kamala Bai",
			MilletType:    "Ragi",
			HarvestDate:   seeded.HarvestDate,
			PackagingDate: seeded.PackagingDate,
			QualityGrade:  "A",
		}
		if err := db.Create(rec).Error; err != nil {
			t.Fatalf("seed record %d: %v", seq, err)
		}
	}

	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 50)
	result, err := svc.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	want := fmt.Sprintf("TR-%d-1001", year)
	if result.TraceabilityID != want {
		t.Fatalf("expected %s, got %s", want, result.TraceabilityID)
	}
}

func TestAcceptSupplyRejectsNonPending(t *testing.T) {
	db, _, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Savitri")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 25)

	if _, err := svc.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{}); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	_, err := svc.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestAcceptSupplyMissing(t *testing.T) {
	db, _, svc := setupSupplyTest(t)
	ctx := context.Background()

	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	_, err := svc.Accept(ctx, "9e0f8f5e-0000-4000-8000-000000000000", shgID, AcceptSupplyRequest{})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteSupplyScopedToAcceptingSHG(t *testing.T) {
	db, repos, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	otherSHG := testutil.SeedSHG(t, db, "Another SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 80)

	if _, err := svc.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := svc.Complete(ctx, supply.ID, otherSHG); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign SHG, got %v", err)
	}

	if err := svc.Complete(ctx, supply.ID, shgID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	updated, _ := repos.Supply.FindByID(ctx, supply.ID)
	if updated.Status != entity.SupplyStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}

	if err := svc.Complete(ctx, supply.ID, shgID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on re-complete, got %v", err)
	}
}

func TestAddSupplyValidation(t *testing.T) {
	db, _, svc := setupSupplyTest(t)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")

	_, err := svc.Add(ctx, farmerID, AddSupplyRequest{
		MilletType:    "Ragi",
		QuantityKg:    0,
		HarvestDate:   "2026-08-01",
		PackagingDate: "2026-08-05",
		Location:      "Anantapur",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero quantity, got %v", err)
	}

	_, err = svc.Add(ctx, farmerID, AddSupplyRequest{
		MilletType:    "Ragi",
		QuantityKg:    10,
		HarvestDate:   "01/08/2026",
		PackagingDate: "2026-08-05",
		Location:      "Anantapur",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}

	supply, err := svc.Add(ctx, farmerID, AddSupplyRequest{
		MilletType:    "Ragi",
		QuantityKg:    10,
		HarvestDate:   "2026-08-01",
		PackagingDate: "2026-08-05",
		Location:      "Anantapur",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if supply.Status != entity.SupplyStatusPending {
		t.Fatalf("expected pending, got %s", supply.Status)
	}
	if supply.QualityGrade != entity.QualityGradePending {
		t.Fatalf("expected PENDING grade, got %s", supply.QualityGrade)
	}
}
