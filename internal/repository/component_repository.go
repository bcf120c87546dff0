package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ComponentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

// ---- 类别目录 ----

func (r *ComponentRepository) CreateType(ctx context.Context, tc *entity.TypeComponent) error {
	return r.db.WithContext(ctx).Create(tc).Error
}

func (r *ComponentRepository) GetType(ctx context.Context, id string) (*entity.TypeComponent, error) {
	var tc entity.TypeComponent
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).First(&tc).Error
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

func (r *ComponentRepository) ListTypes(ctx context.Context, category, keyword string) ([]entity.TypeComponent, error) {
	query := r.db.WithContext(ctx).Where("deleted_at IS NULL")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ?", kw, kw)
	}
	var items []entity.TypeComponent
	err := query.Order("sku ASC").Find(&items).Error
	return items, err
}

// ---- 零部件实体 ----

func (r *ComponentRepository) CreateInstance(ctx context.Context, ci *entity.ComponentInstance) error {
	return r.db.WithContext(ctx).Create(ci).Error
}

func (r *ComponentRepository) GetInstance(ctx context.Context, id string) (*entity.ComponentInstance, error) {
	var ci entity.ComponentInstance
	err := r.db.WithContext(ctx).Preload("TypeComponent").
		Where("id = ?", id).First(&ci).Error
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// GetInstanceForUpdate 在事务内锁定零部件实体行
func (r *ComponentRepository) GetInstanceForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.ComponentInstance, error) {
	var ci entity.ComponentInstance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&ci).Error
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// FindFreeInstanceForUpdate 在事务内锁定一件在库的指定类别零部件。
// SKIP LOCKED 让并发的预留请求各自拿到不同的件，而不是互相阻塞。
func (r *ComponentRepository) FindFreeInstanceForUpdate(ctx context.Context, tx *gorm.DB, typeComponentID, warehouseID string) (*entity.ComponentInstance, error) {
	var ci entity.ComponentInstance
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("type_component_id = ? AND warehouse_id = ? AND status = ?",
			typeComponentID, warehouseID, entity.ComponentStatusInWarehouse).
		Order("created_at ASC").
		First(&ci).Error
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

func (r *ComponentRepository) ListInstances(ctx context.Context, typeComponentID, warehouseID string, status entity.ComponentStatus) ([]entity.ComponentInstance, error) {
	query := r.db.WithContext(ctx).Model(&entity.ComponentInstance{})
	if typeComponentID != "" {
		query = query.Where("type_component_id = ?", typeComponentID)
	}
	if warehouseID != "" {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var items []entity.ComponentInstance
	err := query.Order("serial_number ASC").Find(&items).Error
	return items, err
}
