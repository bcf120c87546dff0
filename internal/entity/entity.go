package entity

import "gorm.io/gorm"

// AutoMigrate 自动迁移全部表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&ServiceCenter{},
		&User{},
		&Customer{},
		&Vehicle{},

		// 质保
		&VehicleProcessingRecord{},
		&GuaranteeCase{},
		&CaseLine{},
		&CaseLineAttachment{},

		// 库存
		&TypeComponent{},
		&Warehouse{},
		&Stock{},
		&ComponentInstance{},
		&ComponentReservation{},
	)
}
