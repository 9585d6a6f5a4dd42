package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/testutil"
)

func TestTraceabilityLookupByCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	supplies := NewSupplyService(repos.Supply, repos.Traceability, db)
	products := NewProductService(repos.Product, repos.Supply, db)
	trace := NewTraceabilityService(repos.Traceability, nil)
	ctx := context.Background()

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	accepted, err := supplies.Accept(ctx, supply.ID, shgID, AcceptSupplyRequest{QualityGrade: "A"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	// Lookup is case-insensitive on the code.
	view, err := trace.Search(ctx, "  tr"+accepted.TraceabilityID[2:]+" ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if view.Record.Code != accepted.TraceabilityID {
		t.Fatalf("expected code %s, got %s", accepted.TraceabilityID, view.Record.Code)
	}
	if view.Record.FarmerName != "Lakshmi Devi" {
		t.Fatalf("unexpected farmer name %q", view.Record.FarmerName)
	}
	if view.Product != nil {
		t.Fatalf("expected no linked product yet, got %+v", view.Product)
	}

	// Once the supply is listed, the lookup carries the listing.
	if _, err := products.Create(ctx, shgID, CreateProductRequest{
		SupplyID:      &supply.ID,
		MilletType:    "Ragi",
		QuantityKg:    90,
		PricePerKg:    75,
		QualityGrade:  "A",
		PackagingDate: "2026-08-20",
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}

	view, err = trace.Search(ctx, accepted.TraceabilityID)
	if err != nil {
		t.Fatalf("search after listing: %v", err)
	}
	if view.Product == nil || view.Product.SHGName != "Sunrise Mahila SHG" {
		t.Fatalf("expected linked product with seller, got %+v", view.Product)
	}
}

func TestTraceabilityLookupMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	trace := NewTraceabilityService(repos.Traceability, nil)

	_, err := trace.Search(context.Background(), "TR-2026-999")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
