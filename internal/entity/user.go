package entity

import (
	"time"
)

// Role is the closed set of API principals. Customers are data rows, not
// callers, so they carry no role.
type Role string

const (
	RoleServiceCenterStaff Role = "service_center_staff"
	RoleServiceCenterTech  Role = "service_center_technician"
	RoleEMVStaff           Role = "emv_staff"
	RoleEMVAdmin           Role = "emv_admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleServiceCenterStaff, RoleServiceCenterTech, RoleEMVStaff, RoleEMVAdmin:
		return true
	}
	return false
}

// Manufacturer roles are not scoped to a single service center.
func (r Role) Manufacturer() bool {
	return r == RoleEMVStaff || r == RoleEMVAdmin
}

// User 系统用户
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Email           string     `json:"email" gorm:"size:128;not null;uniqueIndex"`
	PasswordHash    string     `json:"-" gorm:"size:128;not null"`
	Name            string     `json:"name" gorm:"size:128;not null"`
	Phone           string     `json:"phone" gorm:"size:32"`
	Role            Role       `json:"role" gorm:"size:32;not null"`
	ServiceCenterID string     `json:"service_center_id" gorm:"size:36;index"`
	Status          string     `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	ServiceCenter *ServiceCenter `json:"service_center,omitempty" gorm:"foreignKey:ServiceCenterID"`
}

func (User) TableName() string {
	return "users"
}

// ServiceCenter 服务中心
type ServiceCenter struct {
	ID        string     `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Code      string     `json:"code" gorm:"size:50;not null;uniqueIndex"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Address   string     `json:"address" gorm:"size:500"`
	Phone     string     `json:"phone" gorm:"size:32"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (ServiceCenter) TableName() string {
	return "service_centers"
}
