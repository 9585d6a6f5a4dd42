package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/agrostack/milletlink/internal/market/entity"
	"github.com/agrostack/milletlink/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_market"
	JWTSecret  = "milletlink-jwt-secret-key-2025"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test
// schema. Each test gets an isolated schema that is dropped on cleanup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "milletlink")
	password := getEnv("DB_PASSWORD", "milletlink123")
	dbname := getEnv("DB_NAME", "milletlink")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// uuid suffix so packages running in parallel never share a schema
	schemaName := fmt.Sprintf("%s_%s", TestSchema, uuid.NewString()[:8])

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database for schema setup: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path in the DSN so all pooled connections use the test schema.
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, role, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"role":  role,
		"email": email,
		"iss":   "milletlink",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
		"jti":   fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser creates a user with the given role and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, role string) string {
	t.Helper()
	id := uuid.NewString()
	user := &entity.User{
		ID:     id,
		Email:  fmt.Sprintf("%s-%s@test.com", role, id[:8]),
		Mobile: "9000000000",
		Role:   role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return id
}

// SeedFarmer creates a farmer user with a profile.
func SeedFarmer(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	id := SeedUser(t, db, entity.RoleFarmer)
	profile := &entity.FarmerProfile{
		UserID:       id,
		Name:         name,
		FarmLocation: "Village Road, Anantapur",
		City:         "Anantapur",
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed farmer profile: %v", err)
	}
	return id
}

// SeedSHG creates an SHG user with a profile.
func SeedSHG(t *testing.T, db *gorm.DB, orgName string) string {
	t.Helper()
	id := SeedUser(t, db, entity.RoleSHG)
	profile := &entity.SHGProfile{
		UserID:            id,
		OrganizationName:  orgName,
		ContactPersonName: "Contact Person",
		WarehouseLocation: "Warehouse 12, Industrial Area",
		City:              "Bengaluru",
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed shg profile: %v", err)
	}
	return id
}

// SeedConsumer creates a consumer user with a profile.
func SeedConsumer(t *testing.T, db *gorm.DB, name string) string {
	t.Helper()
	id := SeedUser(t, db, entity.RoleConsumer)
	profile := &entity.ConsumerProfile{
		UserID: id,
		Name:   name,
		Street: "MG Road",
		City:   "Bengaluru",
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to seed consumer profile: %v", err)
	}
	return id
}

// SeedSupply creates a pending supply lot for the farmer.
func SeedSupply(t *testing.T, db *gorm.DB, farmerID, milletType string, quantityKg float64) *entity.Supply {
	t.Helper()
	supply := &entity.Supply{
		FarmerID:      farmerID,
		MilletType:    milletType,
		QuantityKg:    quantityKg,
		QualityGrade:  entity.QualityGradePending,
		HarvestDate:   time.Now().AddDate(0, 0, -10),
		PackagingDate: time.Now().AddDate(0, 0, -5),
		Location:      "Village Road, Anantapur",
		Status:        entity.SupplyStatusPending,
		PaymentStatus: entity.SupplyPaymentUnpaid,
	}
	if err := db.Create(supply).Error; err != nil {
		t.Fatalf("Failed to seed supply: %v", err)
	}
	return supply
}

// SeedProduct creates an active listing for the SHG.
func SeedProduct(t *testing.T, db *gorm.DB, shgID string, quantityKg, pricePerKg float64) *entity.Product {
	t.Helper()
	product := &entity.Product{
		SHGID:         shgID,
		MilletType:    "Foxtail Millet",
		QuantityKg:    quantityKg,
		PricePerKg:    pricePerKg,
		QualityGrade:  "A",
		PackagingDate: time.Now().AddDate(0, 0, -3),
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}
	return product
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
