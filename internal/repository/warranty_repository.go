package repository

import (
	"context"
	"time"

	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"gorm.io/gorm"
)

type WarrantyRepository struct {
	db *gorm.DB
}

func NewWarrantyRepository(db *gorm.DB) *WarrantyRepository {
	return &WarrantyRepository{db: db}
}

// ---- 处理记录 ----

func (r *WarrantyRepository) CreateRecord(ctx context.Context, rec *entity.VehicleProcessingRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *WarrantyRepository) GetRecord(ctx context.Context, id string) (*entity.VehicleProcessingRecord, error) {
	var rec entity.VehicleProcessingRecord
	err := r.db.WithContext(ctx).
		Preload("Vehicle").Preload("Vehicle.Owner").Preload("GuaranteeCases").
		Where("id = ?", id).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type RecordListParams struct {
	ServiceCenterID string
	VehicleID       string
	Status          string
	Page            int
	Limit           int
}

func (r *WarrantyRepository) ListRecords(ctx context.Context, params RecordListParams) ([]entity.VehicleProcessingRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.VehicleProcessingRecord{})
	if params.ServiceCenterID != "" {
		query = query.Where("service_center_id = ?", params.ServiceCenterID)
	}
	if params.VehicleID != "" {
		query = query.Where("vehicle_id = ?", params.VehicleID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.VehicleProcessingRecord
	err := query.Preload("Vehicle").Order("checked_in_at DESC").
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

// ---- 质保工单 ----

func (r *WarrantyRepository) CreateCase(ctx context.Context, gc *entity.GuaranteeCase) error {
	return r.db.WithContext(ctx).Create(gc).Error
}

func (r *WarrantyRepository) GetCase(ctx context.Context, id string) (*entity.GuaranteeCase, error) {
	var gc entity.GuaranteeCase
	err := r.db.WithContext(ctx).
		Preload("CaseLines").Preload("CaseLines.TypeComponent").
		Preload("Record").Preload("Record.Vehicle").
		Where("id = ?", id).First(&gc).Error
	if err != nil {
		return nil, err
	}
	return &gc, nil
}

type CaseListParams struct {
	ServiceCenterID string
	RecordID        string
	Status          string
	Page            int
	Limit           int
}

func (r *WarrantyRepository) ListCases(ctx context.Context, params CaseListParams) ([]entity.GuaranteeCase, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.GuaranteeCase{})
	if params.ServiceCenterID != "" {
		query = query.Joins("JOIN vehicle_processing_records vpr ON vpr.id = guarantee_cases.vehicle_processing_record_id").
			Where("vpr.service_center_id = ?", params.ServiceCenterID)
	}
	if params.RecordID != "" {
		query = query.Where("vehicle_processing_record_id = ?", params.RecordID)
	}
	if params.Status != "" {
		query = query.Where("guarantee_cases.status = ?", params.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []entity.GuaranteeCase
	err := query.Order("guarantee_cases.created_at DESC").
		Offset((params.Page - 1) * params.Limit).Limit(params.Limit).
		Find(&items).Error
	return items, total, err
}

// UpdateCaseStatus 更新工单状态
func (r *WarrantyRepository) UpdateCaseStatus(ctx context.Context, id string, status entity.GuaranteeCaseStatus) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == entity.CaseStatusCompleted {
		updates["completed_at"] = time.Now()
	}
	return r.db.WithContext(ctx).Model(&entity.GuaranteeCase{}).
		Where("id = ?", id).Updates(updates).Error
}

// CountCasesByStatus 按状态统计工单数
func (r *WarrantyRepository) CountCasesByStatus(ctx context.Context, serviceCenterID string) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	query := r.db.WithContext(ctx).Model(&entity.GuaranteeCase{}).
		Select("guarantee_cases.status as status, COUNT(*) as count")
	if serviceCenterID != "" {
		query = query.Joins("JOIN vehicle_processing_records vpr ON vpr.id = guarantee_cases.vehicle_processing_record_id").
			Where("vpr.service_center_id = ?", serviceCenterID)
	}
	var rows []row
	if err := query.Group("guarantee_cases.status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// ---- 明细行 ----

func (r *WarrantyRepository) CreateCaseLine(ctx context.Context, line *entity.CaseLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *WarrantyRepository) GetCaseLine(ctx context.Context, id string) (*entity.CaseLine, error) {
	var line entity.CaseLine
	err := r.db.WithContext(ctx).
		Preload("TypeComponent").Preload("Attachments").
		Where("id = ?", id).First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *WarrantyRepository) UpdateCaseLine(ctx context.Context, line *entity.CaseLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

func (r *WarrantyRepository) CreateAttachment(ctx context.Context, att *entity.CaseLineAttachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}
