package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/middleware"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type reservationTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	svc    *service.ReservationService
	sc     *entity.ServiceCenter
	tech   *entity.User
}

func setupReservationTest(t *testing.T) *reservationTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	svc := service.NewReservationService(
		db,
		repository.NewReservationRepository(db),
		repository.NewStockRepository(db),
		repository.NewComponentRepository(db),
		nil,
		zap.NewNop(),
	)
	h := NewReservationHandler(svc, service.NewReportService(svc))

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	reservations := api.Group("/reservations")
	reservations.GET("", h.List)
	reservations.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Create)
	reservations.GET("/:id", h.Get)
	reservations.PATCH("/:id/pickup", h.Pickup)
	reservations.PATCH("/:id/installComponent", middleware.RequireRole(entity.RoleServiceCenterTech), h.Install)
	reservations.PATCH("/:id/return", h.Return)
	reservations.PATCH("/:id/cancel", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Cancel)

	return &reservationTestEnv{db: db, router: router, svc: svc, sc: sc, tech: tech}
}

func (env *reservationTestEnv) createReservation(t *testing.T, instances int) string {
	t.Helper()
	tc, wh, _ := testutil.SeedStock(t, env.db, env.sc.ID, instances)
	line := testutil.SeedCaseLine(t, env.db, env.sc.ID, tc.ID)

	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/reservations", map[string]string{
		"typeComponentId": tc.ID,
		"warehouseId":     wh.ID,
		"caseLineId":      line.ID,
	}, testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating reservation, got %d: %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestReservationEndpointsRequireAuth(t *testing.T) {
	env := setupReservationTest(t)

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/reservations", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	env := setupReservationTest(t)

	id := env.createReservation(t, 2)
	if id == "" {
		t.Fatal("Expected reservation id in response")
	}

	w := testutil.DoRequest(env.router, http.MethodGet, "/api/v1/reservations/"+id, nil,
		testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.ReservationStatusReserved) {
		t.Errorf("Expected status RESERVED, got %v", data["status"])
	}
}

func TestCreateReservationRoleGate(t *testing.T) {
	env := setupReservationTest(t)
	tc, wh, _ := testutil.SeedStock(t, env.db, env.sc.ID, 2)
	line := testutil.SeedCaseLine(t, env.db, env.sc.ID, tc.ID)

	// Technicians cannot create holds, only staff can
	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/reservations", map[string]string{
		"typeComponentId": tc.ID,
		"warehouseId":     wh.ID,
		"caseLineId":      line.ID,
	}, testutil.TechToken(env.tech.ID, env.sc.ID))
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for technician create, got %d", w.Code)
	}
}

func TestPickupEndpoint(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)

	w := testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/pickup", id),
		map[string]string{"pickedUpByTechId": env.tech.ID},
		testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.ReservationStatusPickedUp) {
		t.Errorf("Expected status PICKED_UP, got %v", data["status"])
	}
	if data["picked_up_by_tech_id"] != env.tech.ID {
		t.Errorf("Expected picked_up_by_tech_id=%s, got %v", env.tech.ID, data["picked_up_by_tech_id"])
	}
}

func TestPickupMissingBody(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)

	w := testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/pickup", id),
		map[string]string{}, testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without pickedUpByTechId, got %d", w.Code)
	}
}

func TestPickupConflictOnRepeat(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)
	token := testutil.StaffToken(env.sc.ID)
	body := map[string]string{"pickedUpByTechId": env.tech.ID}
	path := fmt.Sprintf("/api/v1/reservations/%s/pickup", id)

	if w := testutil.DoRequest(env.router, http.MethodPatch, path, body, token); w.Code != http.StatusOK {
		t.Fatalf("First pickup expected 200, got %d", w.Code)
	}

	w := testutil.DoRequest(env.router, http.MethodPatch, path, body, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on repeated pickup, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40900 {
		t.Errorf("Expected business code 40900, got %v", resp["code"])
	}
}

func TestInstallEndpoint(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)

	staff := testutil.StaffToken(env.sc.ID)
	techToken := testutil.TechToken(env.tech.ID, env.sc.ID)

	testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/pickup", id),
		map[string]string{"pickedUpByTechId": env.tech.ID}, staff)

	// Install is gated to technicians, staff get 403
	w := testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/installComponent", id), nil, staff)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for staff install, got %d", w.Code)
	}

	w = testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/installComponent", id), nil, techToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.ReservationStatusInstalled) {
		t.Errorf("Expected status INSTALLED, got %v", data["status"])
	}
	if data["installed_by_tech_id"] != env.tech.ID {
		t.Errorf("Install must attribute the caller, got %v", data["installed_by_tech_id"])
	}
}

func TestReturnEndpointSerialMismatch(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)
	staff := testutil.StaffToken(env.sc.ID)

	testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/pickup", id),
		map[string]string{"pickedUpByTechId": env.tech.ID}, staff)

	w := testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/return", id),
		map[string]string{"serialNumber": "SN-WRONG-0000"}, staff)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 on serial mismatch, got %d", w.Code)
	}

	// Reservation stays PICKED_UP after the failed return
	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/reservations/"+id, nil, staff)
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.ReservationStatusPickedUp) {
		t.Errorf("Expected status PICKED_UP after mismatch, got %v", data["status"])
	}
}

func TestCancelEndpoint(t *testing.T) {
	env := setupReservationTest(t)
	id := env.createReservation(t, 2)
	staff := testutil.StaffToken(env.sc.ID)

	w := testutil.DoRequest(env.router, http.MethodPatch,
		fmt.Sprintf("/api/v1/reservations/%s/cancel", id), nil, staff)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != string(entity.ReservationStatusCancelled) {
		t.Errorf("Expected status CANCELLED, got %v", data["status"])
	}
}

func TestGetReservationNotFoundEndpoint(t *testing.T) {
	env := setupReservationTest(t)

	w := testutil.DoRequest(env.router, http.MethodGet,
		"/api/v1/reservations/99999999-9999-9999-9999-999999999999", nil,
		testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40400 {
		t.Errorf("Expected business code 40400, got %v", resp["code"])
	}
}

func TestListReservationsEndpoint(t *testing.T) {
	env := setupReservationTest(t)
	staff := testutil.StaffToken(env.sc.ID)

	tc, wh, _ := testutil.SeedStock(t, env.db, env.sc.ID, 15)
	line := testutil.SeedCaseLine(t, env.db, env.sc.ID, tc.ID)
	for i := 0; i < 15; i++ {
		w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/reservations", map[string]string{
			"typeComponentId": tc.ID,
			"warehouseId":     wh.ID,
			"caseLineId":      line.ID,
		}, staff)
		if w.Code != http.StatusCreated {
			t.Fatalf("Create %d expected 201, got %d", i, w.Code)
		}
	}

	w := testutil.DoRequest(env.router, http.MethodGet,
		"/api/v1/reservations?page=2&limit=10", nil, staff)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	pagination := data["pagination"].(map[string]interface{})
	if len(items) != 5 {
		t.Errorf("Expected 5 items on page 2, got %d", len(items))
	}
	if pagination["total"].(float64) != 15 {
		t.Errorf("Expected total=15, got %v", pagination["total"])
	}
	if pagination["total_pages"].(float64) != 2 {
		t.Errorf("Expected total_pages=2, got %v", pagination["total_pages"])
	}
}

func TestListReservationsRejectsUnknownStatus(t *testing.T) {
	env := setupReservationTest(t)

	w := testutil.DoRequest(env.router, http.MethodGet,
		"/api/v1/reservations?status=SHIPPED", nil, testutil.StaffToken(env.sc.ID))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", w.Code)
	}
}
