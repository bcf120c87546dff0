package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
)

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.db.WithContext(ctx).Preload("Vehicles").
		Where("id = ? AND deleted_at IS NULL", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) GetByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.db.WithContext(ctx).
		Where("phone = ? AND deleted_at IS NULL", phone).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type CustomerListParams struct {
	ServiceCenterID string
	Keyword         string
	Page            int
	Limit           int
}

func (r *CustomerRepository) List(ctx context.Context, params CustomerListParams) ([]entity.Customer, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Customer{}).Where("deleted_at IS NULL")
	if params.ServiceCenterID != "" {
		query = query.Where("service_center_id = ?", params.ServiceCenterID)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ?", kw, kw)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.Customer
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

func (r *CustomerRepository) Update(ctx context.Context, c *entity.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}
