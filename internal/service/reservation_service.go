package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/notify"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Identity 经认证的调用者身份，由 JWT 中间件注入
type Identity struct {
	UserID          string
	Role            entity.Role
	ServiceCenterID string
}

// scope 返回用于数据过滤的服务中心；厂端角色不受限
func (id Identity) scope() string {
	if id.Role.Manufacturer() {
		return ""
	}
	return id.ServiceCenterID
}

// ReservationService 预留生命周期服务。所有状态迁移都在单个事务内执行，
// 事务内用行锁读当前状态，并发迁移最多一个赢家。
type ReservationService struct {
	db     *gorm.DB
	repo   *repository.ReservationRepository
	stocks *repository.StockRepository
	comps  *repository.ComponentRepository
	events *notify.Publisher
	logger *zap.Logger
}

func NewReservationService(db *gorm.DB, repo *repository.ReservationRepository, stocks *repository.StockRepository, comps *repository.ComponentRepository, events *notify.Publisher, logger *zap.Logger) *ReservationService {
	return &ReservationService{db: db, repo: repo, stocks: stocks, comps: comps, events: events, logger: logger}
}

// ListReservationsParams 列表查询参数（handler 层已完成格式校验）
type ListReservationsParams struct {
	Status                    string
	WarehouseID               string
	TypeComponentID           string
	CaseLineID                string
	GuaranteeCaseID           string
	VehicleProcessingRecordID string
	Page                      int
	Limit                     int
	SortBy                    string
	SortOrder                 string
}

// List 分页查询预留，按调用者服务中心过滤。只读，不加锁。
func (s *ReservationService) List(ctx context.Context, params ListReservationsParams, actor Identity) ([]entity.ComponentReservation, int64, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	status := entity.ReservationStatus(params.Status)
	if params.Status != "" && !status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, params.Status)
	}

	sortBy := "created_at"
	if params.SortBy == "updatedAt" {
		sortBy = "updated_at"
	}
	sortOrder := "DESC"
	if params.SortOrder == "ASC" {
		sortOrder = "ASC"
	}

	return s.repo.List(ctx, repository.ReservationListParams{
		Status:                    status,
		WarehouseID:               params.WarehouseID,
		TypeComponentID:           params.TypeComponentID,
		CaseLineID:                params.CaseLineID,
		GuaranteeCaseID:           params.GuaranteeCaseID,
		VehicleProcessingRecordID: params.VehicleProcessingRecordID,
		ServiceCenterID:           actor.scope(),
		Page:                      page,
		Limit:                     limit,
		SortBy:                    sortBy,
		SortOrder:                 sortOrder,
	})
}

// CreateReservationRequest 创建预留请求。一条预留占用一件实体零部件。
type CreateReservationRequest struct {
	TypeComponentID string `json:"typeComponentId" binding:"required,uuid"`
	WarehouseID     string `json:"warehouseId" binding:"required,uuid"`
	CaseLineID      string `json:"caseLineId" binding:"required,uuid"`
}

// Create 创建预留：锁台账行校验可用量，挑一件在库零部件，占用并落预留记录。
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest, actor Identity) (*entity.ComponentReservation, error) {
	var created *entity.ComponentReservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stock, err := s.stocks.GetByTypeAndWarehouseForUpdate(ctx, tx, req.TypeComponentID, req.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: stock entry", ErrNotFound)
			}
			return err
		}
		if stock.Available() < 1 {
			return fmt.Errorf("%w: available %d", ErrInsufficientStock, stock.Available())
		}

		instance, err := s.comps.FindFreeInstanceForUpdate(ctx, tx, req.TypeComponentID, req.WarehouseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no free component instance", ErrInsufficientStock)
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&entity.ComponentInstance{}).
			Where("id = ?", instance.ID).
			Updates(map[string]interface{}{
				"status":     entity.ComponentStatusReserved,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.Stock{}).
			Where("id = ?", stock.ID).
			Updates(map[string]interface{}{
				"quantity_reserved": gorm.Expr("quantity_reserved + 1"),
				"last_moved_at":     now,
				"updated_at":        now,
			}).Error; err != nil {
			return err
		}

		res := &entity.ComponentReservation{
			StockID:             stock.ID,
			TypeComponentID:     req.TypeComponentID,
			WarehouseID:         req.WarehouseID,
			CaseLineID:          req.CaseLineID,
			ComponentInstanceID: instance.ID,
			Quantity:            1,
			Status:              entity.ReservationStatusReserved,
			ReservedBy:          actor.UserID,
		}
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "reservation.created", created, actor.UserID)
	return s.repo.GetByID(ctx, created.ID)
}

// Pickup 取件：RESERVED -> PICKED_UP，记录取件技师与时间
func (s *ReservationService) Pickup(ctx context.Context, id, pickedUpByTechID string, actor Identity) (*entity.ComponentReservation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.lockScoped(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if !res.Status.CanTransition(entity.ReservationStatusPickedUp) {
			return fmt.Errorf("%w: %s -> PICKED_UP", ErrInvalidTransition, res.Status)
		}

		now := time.Now()
		return tx.Model(&entity.ComponentReservation{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":               entity.ReservationStatusPickedUp,
				"picked_up_by_tech_id": pickedUpByTechID,
				"picked_up_at":         now,
				"updated_at":           now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "reservation.picked_up", updated, actor.UserID)
	return updated, nil
}

// Install 装车：预留 PICKED_UP -> INSTALLED，零部件同事务迁移到 INSTALLED。
// 装车人取调用者身份，与取件的显式技师参数不同，属自助操作。
func (s *ReservationService) Install(ctx context.Context, id string, actor Identity) (*entity.ComponentReservation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.lockScoped(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if !res.Status.CanTransition(entity.ReservationStatusInstalled) {
			return fmt.Errorf("%w: %s -> INSTALLED", ErrInvalidTransition, res.Status)
		}

		instance, err := s.comps.GetInstanceForUpdate(ctx, tx, res.ComponentInstanceID)
		if err != nil {
			return err
		}
		if !instance.Status.CanTransition(entity.ComponentStatusInstalled) {
			return fmt.Errorf("%w: component %s -> INSTALLED", ErrInvalidTransition, instance.Status)
		}

		now := time.Now()
		if err := tx.Model(&entity.ComponentReservation{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":               entity.ReservationStatusInstalled,
				"installed_by_tech_id": actor.UserID,
				"installed_at":         now,
				"updated_at":           now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.ComponentInstance{}).
			Where("id = ?", instance.ID).
			Updates(map[string]interface{}{
				"status":     entity.ComponentStatusInstalled,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		// 装车后该件永久离库：在库与预留同减，可用量不变
		return tx.Model(&entity.Stock{}).
			Where("id = ?", res.StockID).
			Updates(map[string]interface{}{
				"quantity_in_stock": gorm.Expr("quantity_in_stock - ?", res.Quantity),
				"quantity_reserved": gorm.Expr("quantity_reserved - ?", res.Quantity),
				"last_moved_at":     now,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "reservation.installed", updated, actor.UserID)
	return updated, nil
}

// Return 退回：PICKED_UP -> RETURNED，序列号必须与取出的那件一致，
// 零部件回到 IN_WAREHOUSE，释放台账预留量。
func (s *ReservationService) Return(ctx context.Context, id, serialNumber string, actor Identity) (*entity.ComponentReservation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.lockScoped(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if !res.Status.CanTransition(entity.ReservationStatusReturned) {
			return fmt.Errorf("%w: %s -> RETURNED", ErrInvalidTransition, res.Status)
		}

		instance, err := s.comps.GetInstanceForUpdate(ctx, tx, res.ComponentInstanceID)
		if err != nil {
			return err
		}
		if instance.SerialNumber != serialNumber {
			return fmt.Errorf("%w: got %q", ErrSerialMismatch, serialNumber)
		}

		now := time.Now()
		if err := tx.Model(&entity.ComponentReservation{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":      entity.ReservationStatusReturned,
				"returned_at": now,
				"updated_at":  now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.ComponentInstance{}).
			Where("id = ?", instance.ID).
			Updates(map[string]interface{}{
				"status":     entity.ComponentStatusInWarehouse,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Stock{}).
			Where("id = ?", res.StockID).
			Updates(map[string]interface{}{
				"quantity_reserved": gorm.Expr("quantity_reserved - ?", res.Quantity),
				"last_moved_at":     now,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "reservation.returned", updated, actor.UserID)
	return updated, nil
}

// Cancel 取消：RESERVED -> CANCELLED，释放零部件与台账预留量
func (s *ReservationService) Cancel(ctx context.Context, id string, actor Identity) (*entity.ComponentReservation, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.lockScoped(ctx, tx, id, actor)
		if err != nil {
			return err
		}
		if !res.Status.CanTransition(entity.ReservationStatusCancelled) {
			return fmt.Errorf("%w: %s -> CANCELLED", ErrInvalidTransition, res.Status)
		}

		now := time.Now()
		if err := tx.Model(&entity.ComponentReservation{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":       entity.ReservationStatusCancelled,
				"cancelled_at": now,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&entity.ComponentInstance{}).
			Where("id = ?", res.ComponentInstanceID).
			Updates(map[string]interface{}{
				"status":     entity.ComponentStatusInWarehouse,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Stock{}).
			Where("id = ?", res.StockID).
			Updates(map[string]interface{}{
				"quantity_reserved": gorm.Expr("quantity_reserved - ?", res.Quantity),
				"last_moved_at":     now,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, "reservation.cancelled", updated, actor.UserID)
	return updated, nil
}

// Get 按ID查询（带范围校验）
func (s *ReservationService) Get(ctx context.Context, id string, actor Identity) (*entity.ComponentReservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
		}
		return nil, err
	}
	ok, err := s.repo.InScope(ctx, s.db, res, actor.scope())
	if err != nil {
		return nil, err
	}
	if !ok {
		// 范围外等同不存在，不向调用者泄露存在性
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	return res, nil
}

// lockScoped 锁定预留行并做范围校验；范围外返回 ErrNotFound
func (s *ReservationService) lockScoped(ctx context.Context, tx *gorm.DB, id string, actor Identity) (*entity.ComponentReservation, error) {
	res, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
		}
		return nil, err
	}
	ok, err := s.repo.InScope(ctx, tx, res, actor.scope())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	return res, nil
}

func (s *ReservationService) publish(ctx context.Context, eventType string, res *entity.ComponentReservation, actorID string) {
	if res == nil {
		return
	}
	s.events.Publish(ctx, notify.Event{
		Type:          eventType,
		ReservationID: res.ID,
		CaseLineID:    res.CaseLineID,
		Status:        string(res.Status),
		ActorID:       actorID,
		OccurredAt:    time.Now(),
	})
}
