package entity

import (
	"time"
)

// ComponentStatus 零部件实体状态
type ComponentStatus string

const (
	ComponentStatusInWarehouse ComponentStatus = "IN_WAREHOUSE"
	ComponentStatusReserved    ComponentStatus = "RESERVED"
	ComponentStatusInstalled   ComponentStatus = "INSTALLED"
)

var componentTransitions = map[ComponentStatus][]ComponentStatus{
	ComponentStatusInWarehouse: {ComponentStatusReserved},
	// RESERVED 可以装车，也可以在取消/退回后回到库内
	ComponentStatusReserved: {ComponentStatusInstalled, ComponentStatusInWarehouse},
}

// CanTransition 判断零部件状态是否允许迁移
func (s ComponentStatus) CanTransition(to ComponentStatus) bool {
	for _, n := range componentTransitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// TypeComponent 零部件类别（目录）
type TypeComponent struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SKU       string     `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Category  string     `json:"category" gorm:"size:64;index"`
	Price     float64    `json:"price" gorm:"type:decimal(12,2);default:0"`
	Unit      string     `json:"unit" gorm:"size:20;not null;default:pcs"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (TypeComponent) TableName() string {
	return "type_components"
}

// Warehouse 仓库
type Warehouse struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code            string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name            string     `json:"name" gorm:"size:128;not null"`
	Address         string     `json:"address" gorm:"size:500"`
	ServiceCenterID string     `json:"service_center_id" gorm:"size:36;index"`
	Status          string     `json:"status" gorm:"size:20;not null;default:ACTIVE"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

// Stock 库存台账：某类别零部件在某仓库的数量
type Stock struct {
	ID               string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	TypeComponentID  string     `json:"type_component_id" gorm:"type:uuid;not null;index:idx_stock_type_wh,unique"`
	WarehouseID      string     `json:"warehouse_id" gorm:"type:uuid;not null;index:idx_stock_type_wh,unique"`
	QuantityInStock  int        `json:"quantity_in_stock" gorm:"not null;default:0"`
	QuantityReserved int        `json:"quantity_reserved" gorm:"not null;default:0"`
	LastMovedAt      *time.Time `json:"last_moved_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	TypeComponent *TypeComponent `json:"type_component,omitempty" gorm:"foreignKey:TypeComponentID"`
	Warehouse     *Warehouse     `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (Stock) TableName() string {
	return "stocks"
}

// Available 可用数量 = 在库 - 已预留
func (s *Stock) Available() int {
	return s.QuantityInStock - s.QuantityReserved
}

// ComponentInstance 零部件实体（单件，序列号唯一）
type ComponentInstance struct {
	ID              string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	SerialNumber    string          `json:"serial_number" gorm:"size:100;not null;uniqueIndex"`
	TypeComponentID string          `json:"type_component_id" gorm:"type:uuid;not null;index"`
	WarehouseID     string          `json:"warehouse_id" gorm:"type:uuid;not null;index"`
	Status          ComponentStatus `json:"status" gorm:"size:20;not null;default:IN_WAREHOUSE"`
	InstalledVIN    string          `json:"installed_vin" gorm:"size:32"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	TypeComponent *TypeComponent `json:"type_component,omitempty" gorm:"foreignKey:TypeComponentID"`
	Warehouse     *Warehouse     `json:"warehouse,omitempty" gorm:"foreignKey:WarehouseID"`
}

func (ComponentInstance) TableName() string {
	return "component_instances"
}
