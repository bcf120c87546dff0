package entity

import (
	"time"
)

// Customer 车主
type Customer struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Name            string     `json:"name" gorm:"size:128;not null"`
	Phone           string     `json:"phone" gorm:"size:32;not null;index"`
	Email           string     `json:"email" gorm:"size:128"`
	Address         string     `json:"address" gorm:"size:500"`
	ServiceCenterID string     `json:"service_center_id" gorm:"size:36;index"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:OwnerID"`
}

func (Customer) TableName() string {
	return "customers"
}

// Vehicle 车辆
type Vehicle struct {
	ID                string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	VIN               string     `json:"vin" gorm:"size:32;not null;uniqueIndex"`
	Model             string     `json:"model" gorm:"size:64;not null"`
	Year              int        `json:"year"`
	Color             string     `json:"color" gorm:"size:32"`
	OwnerID           string     `json:"owner_id" gorm:"type:uuid;not null;index"`
	WarrantyStartDate *time.Time `json:"warranty_start_date"`
	WarrantyEndDate   *time.Time `json:"warranty_end_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	Owner *Customer `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}

// UnderWarranty 判断车辆在指定时间点是否在保
func (v *Vehicle) UnderWarranty(at time.Time) bool {
	if v.WarrantyStartDate == nil || v.WarrantyEndDate == nil {
		return false
	}
	return !at.Before(*v.WarrantyStartDate) && !at.After(*v.WarrantyEndDate)
}
