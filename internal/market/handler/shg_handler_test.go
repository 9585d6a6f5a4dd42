package handler

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/agrostack/milletlink/internal/config"
	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/agrostack/milletlink/internal/market/service"
	"github.com/agrostack/milletlink/internal/market/testutil"
	"github.com/agrostack/milletlink/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupSHGTest(t *testing.T) (*testutil.TestEnv, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	cfg := &config.Config{}
	services := service.NewServices(repos, db, nil, nil, cfg, zap.NewNop())
	handlers := NewHandlers(services)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	shg := api.Group("/shg", middleware.RequireRole(entity.RoleSHG))
	{
		shg.GET("/supplies", handlers.SHG.ListSupplies)
		shg.POST("/supplies/:id/accept", handlers.SHG.AcceptSupply)
		shg.POST("/supplies/:id/complete", handlers.SHG.CompleteSupply)
		shg.POST("/products", handlers.SHG.CreateProduct)
	}

	return &testutil.TestEnv{DB: db, Router: router, T: t}, db
}

func TestAcceptSupplyEndpoint(t *testing.T) {
	env, db := setupSHGTest(t)

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	token := testutil.GenerateTestToken(shgID, entity.RoleSHG, "shg@test.com")

	body := map[string]interface{}{"quality_grade": "A"}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/supplies/"+supply.ID+"/accept", body, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	code := data["traceability_id"].(string)
	if !strings.HasPrefix(code, fmt.Sprintf("TR-%d-", time.Now().Year())) {
		t.Fatalf("unexpected traceability code %q", code)
	}

	// Accepting again conflicts.
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/supplies/"+supply.ID+"/accept", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAcceptSupplyRequiresSHGRole(t *testing.T) {
	env, db := setupSHGTest(t)

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	farmerToken := testutil.GenerateTestToken(farmerID, entity.RoleFarmer, "farmer@test.com")
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/supplies/"+supply.ID+"/accept",
		map[string]interface{}{}, farmerToken)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/supplies/"+supply.ID+"/accept",
		map[string]interface{}{}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateProductMarksSupplyListed(t *testing.T) {
	env, db := setupSHGTest(t)

	farmerID := testutil.SeedFarmer(t, db, "Lakshmi Devi")
	shgID := testutil.SeedSHG(t, db, "Sunrise Mahila SHG")
	supply := testutil.SeedSupply(t, db, farmerID, "Ragi", 100)

	token := testutil.GenerateTestToken(shgID, entity.RoleSHG, "shg@test.com")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/supplies/"+supply.ID+"/accept",
		map[string]interface{}{"quality_grade": "A"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("accept failed: %d: %s", w.Code, w.Body.String())
	}

	body := map[string]interface{}{
		"supply_id":      supply.ID,
		"millet_type":    "Ragi",
		"quantity_kg":    90,
		"price_per_kg":   75,
		"quality_grade":  "A",
		"packaging_date": "2026-08-20",
	}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/shg/products", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var updated entity.Supply
	if err := db.Where("id = ?", supply.ID).First(&updated).Error; err != nil {
		t.Fatalf("reload supply: %v", err)
	}
	if updated.Status != entity.SupplyStatusListed {
		t.Fatalf("expected supply listed, got %s", updated.Status)
	}
}
