package service

import (
	"context"
	"errors"
	"testing"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newReservationService(db *gorm.DB) *ReservationService {
	return NewReservationService(
		db,
		repository.NewReservationRepository(db),
		repository.NewStockRepository(db),
		repository.NewComponentRepository(db),
		nil,
		zap.NewNop(),
	)
}

func staffIdentity(serviceCenterID string) Identity {
	return Identity{
		UserID:          "11111111-1111-1111-1111-111111111111",
		Role:            entity.RoleServiceCenterStaff,
		ServiceCenterID: serviceCenterID,
	}
}

func techIdentity(serviceCenterID string) Identity {
	return Identity{
		UserID:          "22222222-2222-2222-2222-222222222222",
		Role:            entity.RoleServiceCenterTech,
		ServiceCenterID: serviceCenterID,
	}
}

func seedReservation(t *testing.T, db *gorm.DB, svc *ReservationService, serviceCenterID string, instances int) *entity.ComponentReservation {
	t.Helper()
	tc, wh, _ := testutil.SeedStock(t, db, serviceCenterID, instances)
	line := testutil.SeedCaseLine(t, db, serviceCenterID, tc.ID)

	res, err := svc.Create(context.Background(), CreateReservationRequest{
		TypeComponentID: tc.ID,
		WarehouseID:     wh.ID,
		CaseLineID:      line.ID,
	}, staffIdentity(serviceCenterID))
	if err != nil {
		t.Fatalf("Create reservation failed: %v", err)
	}
	return res
}

func TestCreateReservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	res := seedReservation(t, db, svc, sc.ID, 3)

	if res.Status != entity.ReservationStatusReserved {
		t.Errorf("Expected status RESERVED, got %s", res.Status)
	}
	if res.ComponentInstanceID == "" {
		t.Error("Expected a component instance to be assigned")
	}

	// The assigned instance must be held
	var inst entity.ComponentInstance
	if err := db.First(&inst, "id = ?", res.ComponentInstanceID).Error; err != nil {
		t.Fatalf("Failed to load instance: %v", err)
	}
	if inst.Status != entity.ComponentStatusReserved {
		t.Errorf("Expected instance status RESERVED, got %s", inst.Status)
	}

	// Ledger reflects the hold: available drops, in-stock does not
	var stock entity.Stock
	if err := db.First(&stock, "id = ?", res.StockID).Error; err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if stock.QuantityInStock != 3 || stock.QuantityReserved != 1 {
		t.Errorf("Expected in_stock=3 reserved=1, got in_stock=%d reserved=%d",
			stock.QuantityInStock, stock.QuantityReserved)
	}
}

func TestCreateReservationInsufficientStock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	tc, wh, _ := testutil.SeedStock(t, db, sc.ID, 1)
	line := testutil.SeedCaseLine(t, db, sc.ID, tc.ID)
	actor := staffIdentity(sc.ID)

	if _, err := svc.Create(context.Background(), CreateReservationRequest{
		TypeComponentID: tc.ID, WarehouseID: wh.ID, CaseLineID: line.ID,
	}, actor); err != nil {
		t.Fatalf("First reservation should succeed: %v", err)
	}

	// Only one unit existed, so the second hold must be refused
	_, err := svc.Create(context.Background(), CreateReservationRequest{
		TypeComponentID: tc.ID, WarehouseID: wh.ID, CaseLineID: line.ID,
	}, actor)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}
}

func TestPickupReservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)

	got, err := svc.Pickup(context.Background(), res.ID, tech.ID, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if got.Status != entity.ReservationStatusPickedUp {
		t.Errorf("Expected status PICKED_UP, got %s", got.Status)
	}
	if got.PickedUpByTechID != tech.ID {
		t.Errorf("Expected picked_up_by_tech_id=%s, got %s", tech.ID, got.PickedUpByTechID)
	}
	if got.PickedUpAt == nil {
		t.Error("Expected picked_up_at to be set")
	}
}

func TestPickupRejectsNonReserved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)
	actor := staffIdentity(sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)

	if _, err := svc.Pickup(context.Background(), res.ID, tech.ID, actor); err != nil {
		t.Fatalf("First pickup failed: %v", err)
	}

	// Second pickup must fail and leave the record untouched
	_, err := svc.Pickup(context.Background(), res.ID, tech.ID, actor)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}

	var after entity.ComponentReservation
	if err := db.First(&after, "id = ?", res.ID).Error; err != nil {
		t.Fatalf("Failed to reload reservation: %v", err)
	}
	if after.Status != entity.ReservationStatusPickedUp {
		t.Errorf("Failed pickup must not change status, got %s", after.Status)
	}
}

func TestInstallReservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)
	actor := techIdentity(sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 3)
	if _, err := svc.Pickup(context.Background(), res.ID, tech.ID, staffIdentity(sc.ID)); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}

	got, err := svc.Install(context.Background(), res.ID, actor)
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if got.Status != entity.ReservationStatusInstalled {
		t.Errorf("Expected status INSTALLED, got %s", got.Status)
	}
	if got.InstalledByTechID != actor.UserID {
		t.Errorf("Install must attribute the caller, got %s", got.InstalledByTechID)
	}

	// The unit left the warehouse for good: both counters drop together
	var stock entity.Stock
	if err := db.First(&stock, "id = ?", res.StockID).Error; err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if stock.QuantityInStock != 2 || stock.QuantityReserved != 0 {
		t.Errorf("Expected in_stock=2 reserved=0, got in_stock=%d reserved=%d",
			stock.QuantityInStock, stock.QuantityReserved)
	}

	var inst entity.ComponentInstance
	if err := db.First(&inst, "id = ?", res.ComponentInstanceID).Error; err != nil {
		t.Fatalf("Failed to load instance: %v", err)
	}
	if inst.Status != entity.ComponentStatusInstalled {
		t.Errorf("Expected instance status INSTALLED, got %s", inst.Status)
	}
}

func TestInstallRejectsReserved(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	res := seedReservation(t, db, svc, sc.ID, 2)

	// Install straight from RESERVED skips the pickup step
	_, err := svc.Install(context.Background(), res.ID, techIdentity(sc.ID))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestReturnReservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)
	if _, err := svc.Pickup(context.Background(), res.ID, tech.ID, staffIdentity(sc.ID)); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}

	var inst entity.ComponentInstance
	if err := db.First(&inst, "id = ?", res.ComponentInstanceID).Error; err != nil {
		t.Fatalf("Failed to load instance: %v", err)
	}

	got, err := svc.Return(context.Background(), res.ID, inst.SerialNumber, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("Return failed: %v", err)
	}
	if got.Status != entity.ReservationStatusReturned {
		t.Errorf("Expected status RETURNED, got %s", got.Status)
	}

	// Hold released, unit back on the shelf
	var stock entity.Stock
	if err := db.First(&stock, "id = ?", res.StockID).Error; err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if stock.QuantityInStock != 2 || stock.QuantityReserved != 0 {
		t.Errorf("Expected in_stock=2 reserved=0, got in_stock=%d reserved=%d",
			stock.QuantityInStock, stock.QuantityReserved)
	}

	if err := db.First(&inst, "id = ?", res.ComponentInstanceID).Error; err != nil {
		t.Fatalf("Failed to reload instance: %v", err)
	}
	if inst.Status != entity.ComponentStatusInWarehouse {
		t.Errorf("Expected instance status IN_WAREHOUSE, got %s", inst.Status)
	}
}

func TestReturnSerialMismatch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)
	if _, err := svc.Pickup(context.Background(), res.ID, tech.ID, staffIdentity(sc.ID)); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}

	_, err := svc.Return(context.Background(), res.ID, "SN-WRONG-0000", staffIdentity(sc.ID))
	if !errors.Is(err, ErrSerialMismatch) {
		t.Errorf("Expected ErrSerialMismatch, got %v", err)
	}

	// Mismatch must leave everything as it was
	var after entity.ComponentReservation
	if err := db.First(&after, "id = ?", res.ID).Error; err != nil {
		t.Fatalf("Failed to reload reservation: %v", err)
	}
	if after.Status != entity.ReservationStatusPickedUp {
		t.Errorf("Expected status PICKED_UP after mismatch, got %s", after.Status)
	}

	var stock entity.Stock
	if err := db.First(&stock, "id = ?", res.StockID).Error; err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if stock.QuantityReserved != 1 {
		t.Errorf("Expected reserved=1 after mismatch, got %d", stock.QuantityReserved)
	}
}

func TestCancelReservation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	res := seedReservation(t, db, svc, sc.ID, 2)

	got, err := svc.Cancel(context.Background(), res.ID, staffIdentity(sc.ID))
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if got.Status != entity.ReservationStatusCancelled {
		t.Errorf("Expected status CANCELLED, got %s", got.Status)
	}

	var stock entity.Stock
	if err := db.First(&stock, "id = ?", res.StockID).Error; err != nil {
		t.Fatalf("Failed to load stock: %v", err)
	}
	if stock.QuantityReserved != 0 {
		t.Errorf("Expected reserved=0 after cancel, got %d", stock.QuantityReserved)
	}

	var inst entity.ComponentInstance
	if err := db.First(&inst, "id = ?", res.ComponentInstanceID).Error; err != nil {
		t.Fatalf("Failed to load instance: %v", err)
	}
	if inst.Status != entity.ComponentStatusInWarehouse {
		t.Errorf("Expected instance back IN_WAREHOUSE, got %s", inst.Status)
	}
}

func TestCancelRejectsPickedUp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)
	if _, err := svc.Pickup(context.Background(), res.ID, tech.ID, staffIdentity(sc.ID)); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}

	_, err := svc.Cancel(context.Background(), res.ID, staffIdentity(sc.ID))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestListReservationsPagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	tc, wh, _ := testutil.SeedStock(t, db, sc.ID, 20)
	line := testutil.SeedCaseLine(t, db, sc.ID, tc.ID)
	actor := staffIdentity(sc.ID)

	for i := 0; i < 15; i++ {
		if _, err := svc.Create(context.Background(), CreateReservationRequest{
			TypeComponentID: tc.ID, WarehouseID: wh.ID, CaseLineID: line.ID,
		}, actor); err != nil {
			t.Fatalf("Create reservation %d failed: %v", i, err)
		}
	}

	items, total, err := svc.List(context.Background(), ListReservationsParams{Page: 2, Limit: 10}, actor)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 15 {
		t.Errorf("Expected total=15, got %d", total)
	}
	if len(items) != 5 {
		t.Errorf("Expected 5 items on page 2, got %d", len(items))
	}
}

func TestListReservationsStatusFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)

	tc, wh, _ := testutil.SeedStock(t, db, sc.ID, 5)
	line := testutil.SeedCaseLine(t, db, sc.ID, tc.ID)
	actor := staffIdentity(sc.ID)

	var first *entity.ComponentReservation
	for i := 0; i < 3; i++ {
		res, err := svc.Create(context.Background(), CreateReservationRequest{
			TypeComponentID: tc.ID, WarehouseID: wh.ID, CaseLineID: line.ID,
		}, actor)
		if err != nil {
			t.Fatalf("Create reservation failed: %v", err)
		}
		if first == nil {
			first = res
		}
	}
	if _, err := svc.Pickup(context.Background(), first.ID, tech.ID, actor); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}

	items, total, err := svc.List(context.Background(), ListReservationsParams{
		Status: string(entity.ReservationStatusPickedUp), Page: 1, Limit: 10,
	}, actor)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("Expected exactly one PICKED_UP reservation, got total=%d len=%d", total, len(items))
	}
	if items[0].ID != first.ID {
		t.Errorf("Expected reservation %s, got %s", first.ID, items[0].ID)
	}

	// Unknown status values are rejected, not silently ignored
	if _, _, err := svc.List(context.Background(), ListReservationsParams{Status: "SHIPPED"}, actor); err == nil {
		t.Error("Expected error for unknown status filter")
	}
}

func TestReservationScoping(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	scA := testutil.SeedServiceCenter(t, db, "SC-A")
	scB := testutil.SeedServiceCenter(t, db, "SC-B")

	res := seedReservation(t, db, svc, scA.ID, 2)

	// Another center must not even learn the reservation exists
	_, err := svc.Get(context.Background(), res.ID, staffIdentity(scB.ID))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign center, got %v", err)
	}

	_, err = svc.Cancel(context.Background(), res.ID, staffIdentity(scB.ID))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on foreign cancel, got %v", err)
	}

	items, total, err := svc.List(context.Background(), ListReservationsParams{Page: 1, Limit: 10}, staffIdentity(scB.ID))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("Foreign center list must be empty, got total=%d len=%d", total, len(items))
	}

	// Manufacturer staff see across centers
	admin := Identity{UserID: "33333333-3333-3333-3333-333333333333", Role: entity.RoleEMVStaff}
	_, total, err = svc.List(context.Background(), ListReservationsParams{Page: 1, Limit: 10}, admin)
	if err != nil {
		t.Fatalf("Manufacturer list failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected manufacturer to see 1 reservation, got %d", total)
	}
}

func TestConcurrentPickupSingleWinner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)
	actor := staffIdentity(sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 2)

	const workers = 8
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			_, err := svc.Pickup(context.Background(), res.ID, tech.ID, actor)
			errs <- err
		}()
	}

	wins := 0
	for i := 0; i < workers; i++ {
		if err := <-errs; err == nil {
			wins++
		} else if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Unexpected error from concurrent pickup: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly one winning pickup, got %d", wins)
	}
}

func TestStockAuditConsistency(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	stockSvc := NewStockService(db,
		repository.NewStockRepository(db),
		repository.NewComponentRepository(db),
		repository.NewWarehouseRepository(db))
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)
	actor := staffIdentity(sc.ID)

	tc, wh, stock := testutil.SeedStock(t, db, sc.ID, 4)
	line := testutil.SeedCaseLine(t, db, sc.ID, tc.ID)

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := svc.Create(context.Background(), CreateReservationRequest{
			TypeComponentID: tc.ID, WarehouseID: wh.ID, CaseLineID: line.ID,
		}, actor)
		if err != nil {
			t.Fatalf("Create reservation failed: %v", err)
		}
		ids = append(ids, res.ID)
	}

	// Walk one reservation to a terminal state, leave two active
	if _, err := svc.Pickup(context.Background(), ids[0], tech.ID, actor); err != nil {
		t.Fatalf("Pickup failed: %v", err)
	}
	if _, err := svc.Install(context.Background(), ids[0], techIdentity(sc.ID)); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	audit, err := stockSvc.Audit(context.Background(), stock.ID)
	if err != nil {
		t.Fatalf("Audit failed: %v", err)
	}
	if !audit.Consistent {
		t.Errorf("Expected consistent ledger, got reserved=%d active=%d",
			audit.QuantityReserved, audit.ActiveReserved)
	}
	if audit.QuantityReserved != 2 {
		t.Errorf("Expected reserved=2, got %d", audit.QuantityReserved)
	}
}

func TestReservationLifecycleEndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")
	tech := testutil.SeedUser(t, db, entity.RoleServiceCenterTech, sc.ID)
	actor := staffIdentity(sc.ID)

	res := seedReservation(t, db, svc, sc.ID, 1)

	steps := []struct {
		name string
		run  func() (*entity.ComponentReservation, error)
		want entity.ReservationStatus
	}{
		{"pickup", func() (*entity.ComponentReservation, error) {
			return svc.Pickup(context.Background(), res.ID, tech.ID, actor)
		}, entity.ReservationStatusPickedUp},
		{"install", func() (*entity.ComponentReservation, error) {
			return svc.Install(context.Background(), res.ID, techIdentity(sc.ID))
		}, entity.ReservationStatusInstalled},
	}

	for _, step := range steps {
		got, err := step.run()
		if err != nil {
			t.Fatalf("Step %s failed: %v", step.name, err)
		}
		if got.Status != step.want {
			t.Fatalf("Step %s: expected %s, got %s", step.name, step.want, got.Status)
		}
	}

	// Terminal: nothing moves an installed reservation
	if _, err := svc.Return(context.Background(), res.ID, "SN-ANY", actor); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition after install, got %v", err)
	}
	if _, err := svc.Cancel(context.Background(), res.ID, actor); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition after install, got %v", err)
	}
}

func TestGetReservationNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newReservationService(db)
	sc := testutil.SeedServiceCenter(t, db, "SC01")

	_, err := svc.Get(context.Background(), "99999999-9999-9999-9999-999999999999", staffIdentity(sc.ID))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
