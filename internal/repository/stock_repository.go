package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

func (r *StockRepository) Create(ctx context.Context, s *entity.Stock) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *StockRepository) GetByID(ctx context.Context, id string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.db.WithContext(ctx).
		Preload("TypeComponent").Preload("Warehouse").
		Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepository) GetByTypeAndWarehouse(ctx context.Context, typeComponentID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := r.db.WithContext(ctx).
		Where("type_component_id = ? AND warehouse_id = ?", typeComponentID, warehouseID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetForUpdate 在事务内锁定台账行，预留/释放前必须先锁
func (r *StockRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.Stock, error) {
	var s entity.Stock
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByTypeAndWarehouseForUpdate 按类别+仓库锁定台账行
func (r *StockRepository) GetByTypeAndWarehouseForUpdate(ctx context.Context, tx *gorm.DB, typeComponentID, warehouseID string) (*entity.Stock, error) {
	var s entity.Stock
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("type_component_id = ? AND warehouse_id = ?", typeComponentID, warehouseID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert 入库时更新或创建台账行
func (r *StockRepository) Upsert(ctx context.Context, s *entity.Stock) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "type_component_id"}, {Name: "warehouse_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity_in_stock", "quantity_reserved", "last_moved_at", "updated_at"}),
	}).Create(s).Error
}

type StockListParams struct {
	WarehouseID     string
	TypeComponentID string
	LowAvailable    bool
	Page            int
	Limit           int
}

func (r *StockRepository) List(ctx context.Context, params StockListParams) ([]entity.Stock, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Stock{})
	if params.WarehouseID != "" {
		query = query.Where("warehouse_id = ?", params.WarehouseID)
	}
	if params.TypeComponentID != "" {
		query = query.Where("type_component_id = ?", params.TypeComponentID)
	}
	if params.LowAvailable {
		query = query.Where("quantity_in_stock - quantity_reserved <= 0")
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.Stock
	err := query.Preload("TypeComponent").Preload("Warehouse").
		Order("updated_at DESC").
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

// SumActiveReserved 统计台账行上活跃预留（RESERVED/PICKED_UP）占用的数量
func (r *StockRepository) SumActiveReserved(ctx context.Context, stockID string) (int, error) {
	var result struct{ Total int }
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(SUM(quantity), 0) AS total
		FROM component_reservations
		WHERE stock_id = ? AND status IN (?, ?)
	`, stockID, entity.ReservationStatusReserved, entity.ReservationStatusPickedUp).
		Scan(&result).Error
	return result.Total, err
}

// CountLowAvailable 统计可用量不足的台账行数
func (r *StockRepository) CountLowAvailable(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Stock{}).
		Where("quantity_in_stock - quantity_reserved <= 0").
		Count(&count).Error
	return count, err
}
