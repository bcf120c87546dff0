package entity

import (
	"time"
)

// ReservationStatus 零部件预留状态
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusPickedUp  ReservationStatus = "PICKED_UP"
	ReservationStatusInstalled ReservationStatus = "INSTALLED"
	ReservationStatusReturned  ReservationStatus = "RETURNED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// reservationTransitions 预留状态机的全部合法边，终态无出边
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusReserved: {ReservationStatusPickedUp, ReservationStatusCancelled},
	ReservationStatusPickedUp: {ReservationStatusInstalled, ReservationStatusReturned},
}

// CanTransition 判断预留状态是否允许迁移
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	for _, n := range reservationTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// Terminal 判断是否终态（终态记录只读保留，不再迁移）
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationStatusInstalled, ReservationStatusReturned, ReservationStatusCancelled:
		return true
	}
	return false
}

// Valid 判断是否已知状态值
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusReserved, ReservationStatusPickedUp, ReservationStatusInstalled,
		ReservationStatusReturned, ReservationStatusCancelled:
		return true
	}
	return false
}

// ComponentReservation 零部件预留：维修明细行对库存的占用
type ComponentReservation struct {
	ID                  string            `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StockID             string            `json:"stock_id" gorm:"type:uuid;not null;index"`
	TypeComponentID     string            `json:"type_component_id" gorm:"type:uuid;not null;index"`
	WarehouseID         string            `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	CaseLineID          string            `json:"case_line_id" gorm:"type:uuid;not null;index"`
	ComponentInstanceID string            `json:"component_instance_id" gorm:"type:uuid;not null;index"`
	Quantity            int               `json:"quantity" gorm:"not null;default:1"`
	Status              ReservationStatus `json:"status" gorm:"size:20;not null;default:RESERVED;index"`
	ReservedBy          string            `json:"reserved_by" gorm:"type:uuid;not null"`
	PickedUpByTechID    string            `json:"picked_up_by_tech_id" gorm:"size:36"`
	PickedUpAt          *time.Time        `json:"picked_up_at"`
	InstalledByTechID   string            `json:"installed_by_tech_id" gorm:"size:36"`
	InstalledAt         *time.Time        `json:"installed_at"`
	ReturnedAt          *time.Time        `json:"returned_at"`
	CancelledAt         *time.Time        `json:"cancelled_at"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`

	Stock             *Stock             `json:"stock,omitempty" gorm:"foreignKey:StockID"`
	TypeComponent     *TypeComponent     `json:"type_component,omitempty" gorm:"foreignKey:TypeComponentID"`
	Warehouse         *Warehouse         `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
	CaseLine          *CaseLine          `json:"case_line,omitempty" gorm:"foreignKey:CaseLineID"`
	ComponentInstance *ComponentInstance `json:"component_instance,omitempty" gorm:"foreignKey:ComponentInstanceID"`
}

func (ComponentReservation) TableName() string {
	return "component_reservations"
}
