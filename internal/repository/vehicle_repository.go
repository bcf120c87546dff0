package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
)

type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Create(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := r.db.WithContext(ctx).Preload("Owner").
		Where("id = ? AND deleted_at IS NULL", id).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) GetByVIN(ctx context.Context, vin string) (*entity.Vehicle, error) {
	var v entity.Vehicle
	err := r.db.WithContext(ctx).Preload("Owner").
		Where("vin = ? AND deleted_at IS NULL", vin).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type VehicleListParams struct {
	OwnerID string
	Model   string
	Keyword string
	Page    int
	Limit   int
}

func (r *VehicleRepository) List(ctx context.Context, params VehicleListParams) ([]entity.Vehicle, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Vehicle{}).Where("deleted_at IS NULL")
	if params.OwnerID != "" {
		query = query.Where("owner_id = ?", params.OwnerID)
	}
	if params.Model != "" {
		query = query.Where("model = ?", params.Model)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("vin ILIKE ? OR model ILIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.Vehicle
	err := query.Preload("Owner").Order("created_at DESC").
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *VehicleRepository) Update(ctx context.Context, v *entity.Vehicle) error {
	return r.db.WithContext(ctx).Save(v).Error
}
