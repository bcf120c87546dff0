package entity

import "testing"

// TestReservationTransitions verifies the full edge set of the reservation
// state machine: only the documented edges are allowed, terminal states have
// no outgoing edges, and no transition skips a state.
func TestReservationTransitions(t *testing.T) {
	all := []ReservationStatus{
		ReservationStatusReserved,
		ReservationStatusPickedUp,
		ReservationStatusInstalled,
		ReservationStatusReturned,
		ReservationStatusCancelled,
	}

	allowed := map[ReservationStatus]map[ReservationStatus]bool{
		ReservationStatusReserved: {
			ReservationStatusPickedUp:  true,
			ReservationStatusCancelled: true,
		},
		ReservationStatusPickedUp: {
			ReservationStatusInstalled: true,
			ReservationStatusReturned:  true,
		},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := from.CanTransition(to); got != want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestReservationTerminalStates(t *testing.T) {
	terminals := map[ReservationStatus]bool{
		ReservationStatusReserved:  false,
		ReservationStatusPickedUp:  false,
		ReservationStatusInstalled: true,
		ReservationStatusReturned:  true,
		ReservationStatusCancelled: true,
	}
	for s, want := range terminals {
		if got := s.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, got, want)
		}
	}
	// RESERVED cannot jump straight to INSTALLED
	if ReservationStatusReserved.CanTransition(ReservationStatusInstalled) {
		t.Error("RESERVED must not transition directly to INSTALLED")
	}
}

func TestComponentTransitions(t *testing.T) {
	cases := []struct {
		from, to ComponentStatus
		want     bool
	}{
		{ComponentStatusInWarehouse, ComponentStatusReserved, true},
		{ComponentStatusReserved, ComponentStatusInstalled, true},
		{ComponentStatusReserved, ComponentStatusInWarehouse, true},
		{ComponentStatusInWarehouse, ComponentStatusInstalled, false},
		{ComponentStatusInstalled, ComponentStatusInWarehouse, false},
		{ComponentStatusInstalled, ComponentStatusReserved, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestCaseLineTransitions(t *testing.T) {
	if !CaseLineStatusDraft.CanTransition(CaseLineStatusDiagnosed) {
		t.Error("DRAFT -> DIAGNOSED must be allowed")
	}
	if CaseLineStatusDraft.CanTransition(CaseLineStatusCompleted) {
		t.Error("DRAFT -> COMPLETED must not skip intermediate states")
	}
	if CaseLineStatusCompleted.CanTransition(CaseLineStatusInRepair) {
		t.Error("COMPLETED is terminal")
	}
	if !CaseLineStatusDiagnosed.CanTransition(CaseLineStatusRejected) {
		t.Error("DIAGNOSED -> REJECTED must be allowed")
	}
}

func TestStockAvailable(t *testing.T) {
	s := Stock{QuantityInStock: 10, QuantityReserved: 3}
	if got := s.Available(); got != 7 {
		t.Errorf("Available() = %d, want 7", got)
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleServiceCenterStaff, RoleServiceCenterTech, RoleEMVStaff, RoleEMVAdmin} {
		if !r.Valid() {
			t.Errorf("role %s should be valid", r)
		}
	}
	if Role("customer").Valid() {
		t.Error("legacy role set must not validate")
	}
	if !RoleEMVAdmin.Manufacturer() || RoleServiceCenterTech.Manufacturer() {
		t.Error("manufacturer scoping misclassified")
	}
}
