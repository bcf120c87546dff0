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

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_warranty"
	JWTSecret  = "warranty-jwt-secret-key-2025"
)

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

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Each test gets an isolated schema that is cleaned up after the test. Tests
// are skipped when no Postgres instance is reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "warranty")
	password := getEnv("DB_PASSWORD", "warranty123")
	dbname := getEnv("DB_NAME", "warranty")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// Create a unique test schema for isolation
	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	// First: create schema using a temporary connection
	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("Postgres not available, skipping: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Skipf("Postgres not available, skipping: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// Second: open connection with search_path in DSN so ALL pooled connections use test schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	// Cleanup on test completion
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		// Reconnect to drop the schema
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
func GenerateTestToken(userID, name, email string, role entity.Role, serviceCenterID string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":               userID,
		"uid":               userID,
		"name":              name,
		"email":             email,
		"role":              string(role),
		"service_center_id": serviceCenterID,
		"iss":               "warranty",
		"iat":               now.Unix(),
		"exp":               now.Add(24 * time.Hour).Unix(),
		"jti":               fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// StaffToken returns a token for a service center staff user
func StaffToken(serviceCenterID string) string {
	return GenerateTestToken(uuid.NewString(), "Test Staff", "staff@test.com",
		entity.RoleServiceCenterStaff, serviceCenterID)
}

// TechToken returns a token for a service center technician
func TechToken(userID, serviceCenterID string) string {
	return GenerateTestToken(userID, "Test Technician", "tech@test.com",
		entity.RoleServiceCenterTech, serviceCenterID)
}

// AdminToken returns a token for a manufacturer admin
func AdminToken() string {
	return GenerateTestToken(uuid.NewString(), "Test Admin", "admin@test.com",
		entity.RoleEMVAdmin, "")
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

// SeedServiceCenter creates a service center row
func SeedServiceCenter(t *testing.T, db *gorm.DB, code string) *entity.ServiceCenter {
	t.Helper()
	sc := &entity.ServiceCenter{
		ID:   uuid.NewString(),
		Code: code,
		Name: "Test Center " + code,
	}
	if err := db.Create(sc).Error; err != nil {
		t.Fatalf("Failed to seed service center: %v", err)
	}
	return sc
}

// SeedUser creates a user with the given role
func SeedUser(t *testing.T, db *gorm.DB, role entity.Role, serviceCenterID string) *entity.User {
	t.Helper()
	id := uuid.NewString()
	user := &entity.User{
		ID:              id,
		Email:           fmt.Sprintf("user-%s@test.com", id[:8]),
		PasswordHash:    "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		Name:            "Test User " + id[:8],
		Role:            role,
		ServiceCenterID: serviceCenterID,
		Status:          "active",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedStock creates a component type, warehouse, stock ledger row and the
// given number of in-warehouse component instances with sequential serials.
func SeedStock(t *testing.T, db *gorm.DB, serviceCenterID string, instances int) (*entity.TypeComponent, *entity.Warehouse, *entity.Stock) {
	t.Helper()

	tc := &entity.TypeComponent{
		ID:   uuid.NewString(),
		SKU:  "SKU-" + uuid.NewString()[:8],
		Name: "Battery Module",
		Unit: "pcs",
	}
	if err := db.Create(tc).Error; err != nil {
		t.Fatalf("Failed to seed type component: %v", err)
	}

	wh := &entity.Warehouse{
		ID:              uuid.NewString(),
		Code:            "WH-" + uuid.NewString()[:8],
		Name:            "Test Warehouse",
		ServiceCenterID: serviceCenterID,
		Status:          "ACTIVE",
	}
	if err := db.Create(wh).Error; err != nil {
		t.Fatalf("Failed to seed warehouse: %v", err)
	}

	stock := &entity.Stock{
		ID:              uuid.NewString(),
		TypeComponentID: tc.ID,
		WarehouseID:     wh.ID,
		QuantityInStock: instances,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("Failed to seed stock: %v", err)
	}

	for i := 0; i < instances; i++ {
		inst := &entity.ComponentInstance{
			ID:              uuid.NewString(),
			SerialNumber:    fmt.Sprintf("SN-%s-%04d", stock.ID[:8], i),
			TypeComponentID: tc.ID,
			WarehouseID:     wh.ID,
			Status:          entity.ComponentStatusInWarehouse,
		}
		if err := db.Create(inst).Error; err != nil {
			t.Fatalf("Failed to seed component instance: %v", err)
		}
	}

	return tc, wh, stock
}

// SeedCaseLine creates the full chain customer -> vehicle -> processing
// record -> guarantee case -> case line for the given service center.
func SeedCaseLine(t *testing.T, db *gorm.DB, serviceCenterID, typeComponentID string) *entity.CaseLine {
	t.Helper()

	customer := &entity.Customer{
		ID:              uuid.NewString(),
		Name:            "Test Customer",
		Phone:           "09" + uuid.NewString()[:8],
		ServiceCenterID: serviceCenterID,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}

	start := time.Now().AddDate(-1, 0, 0)
	end := time.Now().AddDate(2, 0, 0)
	vehicle := &entity.Vehicle{
		ID:                uuid.NewString(),
		VIN:               "VIN" + uuid.NewString()[:14],
		Model:             "EV-X1",
		OwnerID:           customer.ID,
		WarrantyStartDate: &start,
		WarrantyEndDate:   &end,
	}
	if err := db.Create(vehicle).Error; err != nil {
		t.Fatalf("Failed to seed vehicle: %v", err)
	}

	record := &entity.VehicleProcessingRecord{
		ID:              uuid.NewString(),
		VehicleID:       vehicle.ID,
		ServiceCenterID: serviceCenterID,
		CheckedInBy:     uuid.NewString(),
		Status:          "CHECKED_IN",
		CheckedInAt:     time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to seed processing record: %v", err)
	}

	gc := &entity.GuaranteeCase{
		ID:                        uuid.NewString(),
		Code:                      "GC-TEST-" + uuid.NewString()[:8],
		VehicleProcessingRecordID: record.ID,
		Title:                     "Battery degradation",
		Status:                    entity.CaseStatusOpen,
		CreatedBy:                 uuid.NewString(),
	}
	if err := db.Create(gc).Error; err != nil {
		t.Fatalf("Failed to seed guarantee case: %v", err)
	}

	line := &entity.CaseLine{
		ID:              uuid.NewString(),
		GuaranteeCaseID: gc.ID,
		Diagnosis:       "Cell imbalance beyond threshold",
		TypeComponentID: typeComponentID,
		Quantity:        1,
		Status:          entity.CaseLineStatusDiagnosed,
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("Failed to seed case line: %v", err)
	}

	return line
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
