package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
)

type WarehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) *WarehouseRepository {
	return &WarehouseRepository{db: db}
}

func (r *WarehouseRepository) Create(ctx context.Context, w *entity.Warehouse) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WarehouseRepository) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WarehouseRepository) List(ctx context.Context, serviceCenterID string) ([]entity.Warehouse, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if serviceCenterID != "" {
		query = query.Where("service_center_id = ?", serviceCenterID)
	}
	var items []entity.Warehouse
	err := query.Order("code ASC").Find(&items).Error
	return items, err
}
