package repository

import (
	"context"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *entity.ComponentReservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*entity.ComponentReservation, error) {
	var res entity.ComponentReservation
	err := r.db.WithContext(ctx).
		Preload("TypeComponent").Preload("Warehouse").Preload("ComponentInstance").
		Where("id = ?", id).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetForUpdate 在事务内锁定预留行。状态读写必须原子，否则并发取件会双双成功。
func (r *ReservationRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, id string) (*entity.ComponentReservation, error) {
	var res entity.ComponentReservation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ReservationListParams 预留查询条件。SortBy 只允许 created_at/updated_at。
type ReservationListParams struct {
	Status                    entity.ReservationStatus
	WarehouseID               string
	TypeComponentID           string
	CaseLineID                string
	GuaranteeCaseID           string
	VehicleProcessingRecordID string
	ServiceCenterID           string
	Page                      int
	Limit                     int
	SortBy                    string
	SortOrder                 string
}

func (r *ReservationRepository) List(ctx context.Context, params ReservationListParams) ([]entity.ComponentReservation, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.ComponentReservation{})

	if params.Status != "" {
		query = query.Where("component_reservations.status = ?", params.Status)
	}
	if params.WarehouseID != "" {
		query = query.Where("component_reservations.warehouse_id = ?", params.WarehouseID)
	}
	if params.TypeComponentID != "" {
		query = query.Where("component_reservations.type_component_id = ?", params.TypeComponentID)
	}
	if params.CaseLineID != "" {
		query = query.Where("component_reservations.case_line_id = ?", params.CaseLineID)
	}
	if params.GuaranteeCaseID != "" || params.VehicleProcessingRecordID != "" {
		query = query.Joins("JOIN case_lines cl ON cl.id = component_reservations.case_line_id").
			Joins("JOIN guarantee_cases gc ON gc.id = cl.guarantee_case_id")
		if params.GuaranteeCaseID != "" {
			query = query.Where("gc.id = ?", params.GuaranteeCaseID)
		}
		if params.VehicleProcessingRecordID != "" {
			query = query.Where("gc.vehicle_processing_record_id = ?", params.VehicleProcessingRecordID)
		}
	}
	if params.ServiceCenterID != "" {
		query = query.Joins("JOIN warehouses w ON w.id = component_reservations.warehouse_id").
			Where("w.service_center_id = ?", params.ServiceCenterID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := "created_at"
	if params.SortBy == "updated_at" {
		sortBy = "updated_at"
	}
	order := "DESC"
	if params.SortOrder == "ASC" {
		order = "ASC"
	}

	var items []entity.ComponentReservation
	err := query.
		Preload("TypeComponent").Preload("Warehouse").Preload("ComponentInstance").
		Order("component_reservations." + sortBy + " " + order).
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

// CountByStatus 按状态统计预留数
func (r *ReservationRepository) CountByStatus(ctx context.Context, serviceCenterID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	query := r.db.WithContext(ctx).Model(&entity.ComponentReservation{}).
		Select("component_reservations.status AS status, COUNT(*) AS count")
	if serviceCenterID != "" {
		query = query.Joins("JOIN warehouses w ON w.id = component_reservations.warehouse_id").
			Where("w.service_center_id = ?", serviceCenterID)
	}
	var rows []row
	if err := query.Group("component_reservations.status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// InScope 判断预留是否属于给定服务中心（经仓库归属）
func (r *ReservationRepository) InScope(ctx context.Context, tx *gorm.DB, res *entity.ComponentReservation, serviceCenterID string) (bool, error) {
	if serviceCenterID == "" {
		return true, nil
	}
	var count int64
	err := tx.WithContext(ctx).Model(&entity.Warehouse{}).
		Where("id = ? AND service_center_id = ?", res.WarehouseID, serviceCenterID).
		Count(&count).Error
	return count > 0, err
}
