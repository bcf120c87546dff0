package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Preload("ServiceCenter").
		Where("id = ? AND deleted_at IS NULL", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND deleted_at IS NULL", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListTechnicians 列出服务中心的技师
func (r *UserRepository) ListTechnicians(ctx context.Context, serviceCenterID string) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND service_center_id = ? AND deleted_at IS NULL",
			entity.RoleServiceCenterTech, serviceCenterID).
		Order("name ASC").Find(&users).Error
	return users, err
}

// CreateServiceCenter 创建服务中心
func (r *UserRepository) CreateServiceCenter(ctx context.Context, sc *entity.ServiceCenter) error {
	return r.db.WithContext(ctx).Create(sc).Error
}

func (r *UserRepository) GetServiceCenter(ctx context.Context, id string) (*entity.ServiceCenter, error) {
	var sc entity.ServiceCenter
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).First(&sc).Error
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *UserRepository) ListServiceCenters(ctx context.Context) ([]entity.ServiceCenter, error) {
	var centers []entity.ServiceCenter
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NULL").Order("code ASC").Find(&centers).Error
	return centers, err
}
