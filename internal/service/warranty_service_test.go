package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/testutil"
	"gorm.io/gorm"
)

func newWarrantyService(db *gorm.DB) *WarrantyService {
	return NewWarrantyService(
		repository.NewWarrantyRepository(db),
		repository.NewVehicleRepository(db),
		repository.NewComponentRepository(db),
	)
}

func seedRecord(t *testing.T, db *gorm.DB, serviceCenterID string, warrantyEnd time.Time) *entity.VehicleProcessingRecord {
	t.Helper()

	customer := &entity.Customer{
		ID:              uuid.NewString(),
		Name:            "Warranty Customer",
		Phone:           "08" + uuid.NewString()[:8],
		ServiceCenterID: serviceCenterID,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("Failed to seed customer: %v", err)
	}

	start := warrantyEnd.AddDate(-3, 0, 0)
	vehicle := &entity.Vehicle{
		ID:                uuid.NewString(),
		VIN:               "VIN" + uuid.NewString()[:14],
		Model:             "EV-X1",
		OwnerID:           customer.ID,
		WarrantyStartDate: &start,
		WarrantyEndDate:   &warrantyEnd,
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
		t.Fatalf("Failed to seed record: %v", err)
	}
	return record
}

func TestCreateCaseUnderWarranty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWarrantyService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	rec := seedRecord(t, db, sc.ID, time.Now().AddDate(1, 0, 0))

	gc, err := svc.CreateCase(context.Background(), CreateCaseRequest{
		VehicleProcessingRecordID: rec.ID,
		Title:                     "Battery degradation",
	}, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}
	if gc.Status != entity.CaseStatusOpen {
		t.Errorf("Expected status OPEN, got %s", gc.Status)
	}
	if gc.Code == "" {
		t.Error("Expected a generated case code")
	}
}

func TestCreateCaseOutOfWarranty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWarrantyService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	rec := seedRecord(t, db, sc.ID, time.Now().AddDate(-1, 0, 0))

	_, err := svc.CreateCase(context.Background(), CreateCaseRequest{
		VehicleProcessingRecordID: rec.ID,
		Title:                     "Battery degradation",
	}, staffIdentity(sc.ID))
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden for expired warranty, got %v", err)
	}
}

func TestUpdateCaseStatusTransitions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWarrantyService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	rec := seedRecord(t, db, sc.ID, time.Now().AddDate(1, 0, 0))

	gc, err := svc.CreateCase(context.Background(), CreateCaseRequest{
		VehicleProcessingRecordID: rec.ID,
		Title:                     "Inverter fault",
	}, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}

	// OPEN cannot jump straight to COMPLETED
	if _, err := svc.UpdateCaseStatus(context.Background(), gc.ID, entity.CaseStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for OPEN -> COMPLETED, got %v", err)
	}

	got, err := svc.UpdateCaseStatus(context.Background(), gc.ID, entity.CaseStatusInProgress)
	if err != nil {
		t.Fatalf("OPEN -> IN_PROGRESS failed: %v", err)
	}
	if got.Status != entity.CaseStatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", got.Status)
	}

	got, err = svc.UpdateCaseStatus(context.Background(), gc.ID, entity.CaseStatusCompleted)
	if err != nil {
		t.Fatalf("IN_PROGRESS -> COMPLETED failed: %v", err)
	}
	if got.Status != entity.CaseStatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", got.Status)
	}

	// Terminal
	if _, err := svc.UpdateCaseStatus(context.Background(), gc.ID, entity.CaseStatusInProgress); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition after COMPLETED, got %v", err)
	}
}

func TestCaseLineLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWarrantyService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	rec := seedRecord(t, db, sc.ID, time.Now().AddDate(1, 0, 0))

	gc, err := svc.CreateCase(context.Background(), CreateCaseRequest{
		VehicleProcessingRecordID: rec.ID,
		Title:                     "Charger port damage",
	}, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("CreateCase failed: %v", err)
	}

	line, err := svc.AddCaseLine(context.Background(), gc.ID, CreateCaseLineRequest{
		Diagnosis: "Connector pins corroded",
	})
	if err != nil {
		t.Fatalf("AddCaseLine failed: %v", err)
	}
	if line.Status != entity.CaseLineStatusDraft {
		t.Errorf("Expected DRAFT, got %s", line.Status)
	}

	eligible := true
	plan := "Replace charge port assembly"
	updated, err := svc.UpdateCaseLine(context.Background(), line.ID, UpdateCaseLineRequest{
		RepairPlan:       &plan,
		WarrantyEligible: &eligible,
	})
	if err != nil {
		t.Fatalf("UpdateCaseLine failed: %v", err)
	}
	if updated.RepairPlan != plan {
		t.Errorf("Expected repair plan update, got %q", updated.RepairPlan)
	}
	if updated.WarrantyEligible == nil || !*updated.WarrantyEligible {
		t.Error("Expected warranty_eligible=true")
	}
	// Untouched fields survive a partial update
	if updated.Diagnosis != "Connector pins corroded" {
		t.Errorf("Partial update must keep diagnosis, got %q", updated.Diagnosis)
	}

	if _, err := svc.UpdateCaseLineStatus(context.Background(), line.ID, entity.CaseLineStatusDiagnosed); err != nil {
		t.Fatalf("DRAFT -> DIAGNOSED failed: %v", err)
	}
	if _, err := svc.UpdateCaseLineStatus(context.Background(), line.ID, entity.CaseLineStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition for DIAGNOSED -> COMPLETED, got %v", err)
	}
}

func TestCheckInUnknownVehicle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newWarrantyService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	_, err := svc.CheckIn(context.Background(), CheckInRequest{
		VehicleID: "99999999-9999-9999-9999-999999999999",
	}, staffIdentity(sc.ID))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
