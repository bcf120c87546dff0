package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"gorm.io/gorm"
)

// StockService 库存管理：类别目录、仓库、入库、台账查询与核对
type StockService struct {
	db         *gorm.DB
	stocks     *repository.StockRepository
	comps      *repository.ComponentRepository
	warehouses *repository.WarehouseRepository
}

func NewStockService(db *gorm.DB, stocks *repository.StockRepository, comps *repository.ComponentRepository, warehouses *repository.WarehouseRepository) *StockService {
	return &StockService{db: db, stocks: stocks, comps: comps, warehouses: warehouses}
}

type CreateTypeComponentRequest struct {
	SKU      string  `json:"sku" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Category string  `json:"category"`
	Price    float64 `json:"price" binding:"gte=0"`
	Unit     string  `json:"unit"`
}

func (s *StockService) CreateType(ctx context.Context, req CreateTypeComponentRequest) (*entity.TypeComponent, error) {
	unit := req.Unit
	if unit == "" {
		unit = "pcs"
	}
	tc := &entity.TypeComponent{
		SKU:      req.SKU,
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Unit:     unit,
	}
	if err := s.comps.CreateType(ctx, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

func (s *StockService) GetType(ctx context.Context, id string) (*entity.TypeComponent, error) {
	tc, err := s.comps.GetType(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: type component %s", ErrNotFound, id)
		}
		return nil, err
	}
	return tc, nil
}

func (s *StockService) ListTypes(ctx context.Context, category, keyword string) ([]entity.TypeComponent, error) {
	return s.comps.ListTypes(ctx, category, keyword)
}

type CreateWarehouseRequest struct {
	Code            string `json:"code" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Address         string `json:"address"`
	ServiceCenterID string `json:"serviceCenterId" binding:"omitempty,uuid"`
}

func (s *StockService) CreateWarehouse(ctx context.Context, req CreateWarehouseRequest, actor Identity) (*entity.Warehouse, error) {
	scID := req.ServiceCenterID
	if scID == "" {
		scID = actor.ServiceCenterID
	}
	w := &entity.Warehouse{
		Code:            req.Code,
		Name:            req.Name,
		Address:         req.Address,
		ServiceCenterID: scID,
		Status:          "ACTIVE",
	}
	if err := s.warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *StockService) ListWarehouses(ctx context.Context, actor Identity) ([]entity.Warehouse, error) {
	return s.warehouses.List(ctx, actor.scope())
}

// InboundRequest 入库请求：按序列号登记实体零部件
type InboundRequest struct {
	TypeComponentID string   `json:"typeComponentId" binding:"required,uuid"`
	WarehouseID     string   `json:"warehouseId" binding:"required,uuid"`
	SerialNumbers   []string `json:"serialNumbers" binding:"required,min=1,dive,required"`
}

// Inbound 入库：每个序列号建一件实体，台账在库数同事务累加
func (s *StockService) Inbound(ctx context.Context, req InboundRequest, actor Identity) (*entity.Stock, error) {
	if _, err := s.GetType(ctx, req.TypeComponentID); err != nil {
		return nil, err
	}
	if _, err := s.warehouses.GetByID(ctx, req.WarehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: warehouse %s", ErrNotFound, req.WarehouseID)
		}
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, sn := range req.SerialNumbers {
			ci := &entity.ComponentInstance{
				SerialNumber:    sn,
				TypeComponentID: req.TypeComponentID,
				WarehouseID:     req.WarehouseID,
				Status:          entity.ComponentStatusInWarehouse,
			}
			if err := tx.Create(ci).Error; err != nil {
				return fmt.Errorf("failed to register serial %s: %w", sn, err)
			}
		}

		stock, err := s.stocks.GetByTypeAndWarehouseForUpdate(ctx, tx, req.TypeComponentID, req.WarehouseID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return tx.Create(&entity.Stock{
				TypeComponentID: req.TypeComponentID,
				WarehouseID:     req.WarehouseID,
				QuantityInStock: len(req.SerialNumbers),
				LastMovedAt:     &now,
			}).Error
		}
		return tx.Model(&entity.Stock{}).
			Where("id = ?", stock.ID).
			Updates(map[string]interface{}{
				"quantity_in_stock": gorm.Expr("quantity_in_stock + ?", len(req.SerialNumbers)),
				"last_moved_at":     now,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.stocks.GetByTypeAndWarehouse(ctx, req.TypeComponentID, req.WarehouseID)
}

func (s *StockService) List(ctx context.Context, params repository.StockListParams) ([]entity.Stock, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}
	return s.stocks.List(ctx, params)
}

func (s *StockService) Get(ctx context.Context, id string) (*entity.Stock, []entity.ComponentInstance, error) {
	stock, err := s.stocks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: stock %s", ErrNotFound, id)
		}
		return nil, nil, err
	}
	instances, err := s.comps.ListInstances(ctx, stock.TypeComponentID, stock.WarehouseID, "")
	if err != nil {
		return nil, nil, err
	}
	return stock, instances, nil
}

// StockAudit 台账核对结果
type StockAudit struct {
	StockID          string `json:"stock_id"`
	QuantityInStock  int    `json:"quantity_in_stock"`
	QuantityReserved int    `json:"quantity_reserved"`
	ActiveReserved   int    `json:"active_reserved"`
	Consistent       bool   `json:"consistent"`
}

// Audit 核对台账：预留数必须等于活跃预留（RESERVED/PICKED_UP）占用之和
func (s *StockService) Audit(ctx context.Context, stockID string) (*StockAudit, error) {
	stock, err := s.stocks.GetByID(ctx, stockID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: stock %s", ErrNotFound, stockID)
		}
		return nil, err
	}
	active, err := s.stocks.SumActiveReserved(ctx, stockID)
	if err != nil {
		return nil, err
	}
	return &StockAudit{
		StockID:          stock.ID,
		QuantityInStock:  stock.QuantityInStock,
		QuantityReserved: stock.QuantityReserved,
		ActiveReserved:   active,
		Consistent:       stock.QuantityReserved == active,
	}, nil
}
