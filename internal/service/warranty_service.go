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

// WarrantyService 质保受理：进场记录、质保工单、维修明细行
type WarrantyService struct {
	repo     *repository.WarrantyRepository
	vehicles *repository.VehicleRepository
	comps    *repository.ComponentRepository
}

func NewWarrantyService(repo *repository.WarrantyRepository, vehicles *repository.VehicleRepository, comps *repository.ComponentRepository) *WarrantyService {
	return &WarrantyService{repo: repo, vehicles: vehicles, comps: comps}
}

type CheckInRequest struct {
	VehicleID string `json:"vehicleId" binding:"required,uuid"`
	Odometer  int    `json:"odometer" binding:"gte=0"`
	Notes     string `json:"notes"`
}

// CheckIn 车辆进场，创建处理记录
func (s *WarrantyService) CheckIn(ctx context.Context, req CheckInRequest, actor Identity) (*entity.VehicleProcessingRecord, error) {
	if _, err := s.vehicles.GetByID(ctx, req.VehicleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: vehicle %s", ErrNotFound, req.VehicleID)
		}
		return nil, err
	}

	rec := &entity.VehicleProcessingRecord{
		VehicleID:       req.VehicleID,
		ServiceCenterID: actor.ServiceCenterID,
		CheckedInBy:     actor.UserID,
		Odometer:        req.Odometer,
		Status:          "CHECKED_IN",
		Notes:           req.Notes,
		CheckedInAt:     time.Now(),
	}
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *WarrantyService) GetRecord(ctx context.Context, id string) (*entity.VehicleProcessingRecord, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: record %s", ErrNotFound, id)
		}
		return nil, err
	}
	return rec, nil
}

func (s *WarrantyService) ListRecords(ctx context.Context, vehicleID, status string, page, limit int, actor Identity) ([]entity.VehicleProcessingRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.ListRecords(ctx, repository.RecordListParams{
		ServiceCenterID: actor.scope(),
		VehicleID:       vehicleID,
		Status:          status,
		Page:            page,
		Limit:           limit,
	})
}

type CreateCaseRequest struct {
	VehicleProcessingRecordID string `json:"vehicleProcessingRecordId" binding:"required,uuid"`
	Title                     string `json:"title" binding:"required"`
	Description               string `json:"description"`
}

// CreateCase 在处理记录下开质保工单
func (s *WarrantyService) CreateCase(ctx context.Context, req CreateCaseRequest, actor Identity) (*entity.GuaranteeCase, error) {
	rec, err := s.repo.GetRecord(ctx, req.VehicleProcessingRecordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: record %s", ErrNotFound, req.VehicleProcessingRecordID)
		}
		return nil, err
	}

	// 进保判定基于进场时间
	if rec.Vehicle != nil && !rec.Vehicle.UnderWarranty(rec.CheckedInAt) {
		return nil, fmt.Errorf("%w: vehicle %s is out of warranty", ErrForbidden, rec.VehicleID)
	}

	gc := &entity.GuaranteeCase{
		Code:                      generateCaseCode(),
		VehicleProcessingRecordID: req.VehicleProcessingRecordID,
		Title:                     req.Title,
		Description:               req.Description,
		Status:                    entity.CaseStatusOpen,
		CreatedBy:                 actor.UserID,
	}
	if err := s.repo.CreateCase(ctx, gc); err != nil {
		return nil, err
	}
	return gc, nil
}

func (s *WarrantyService) GetCase(ctx context.Context, id string) (*entity.GuaranteeCase, error) {
	gc, err := s.repo.GetCase(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: case %s", ErrNotFound, id)
		}
		return nil, err
	}
	return gc, nil
}

func (s *WarrantyService) ListCases(ctx context.Context, recordID, status string, page, limit int, actor Identity) ([]entity.GuaranteeCase, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.ListCases(ctx, repository.CaseListParams{
		ServiceCenterID: actor.scope(),
		RecordID:        recordID,
		Status:          status,
		Page:            page,
		Limit:           limit,
	})
}

// UpdateCaseStatus 工单状态迁移
func (s *WarrantyService) UpdateCaseStatus(ctx context.Context, id string, to entity.GuaranteeCaseStatus) (*entity.GuaranteeCase, error) {
	gc, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gc.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: case %s -> %s", ErrInvalidTransition, gc.Status, to)
	}
	if err := s.repo.UpdateCaseStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.GetCase(ctx, id)
}

type CreateCaseLineRequest struct {
	Diagnosis       string `json:"diagnosis" binding:"required"`
	RepairPlan      string `json:"repairPlan"`
	TypeComponentID string `json:"typeComponentId" binding:"omitempty,uuid"`
	Quantity        int    `json:"quantity" binding:"omitempty,gte=1"`
	AssignedTechID  string `json:"assignedTechId" binding:"omitempty,uuid"`
}

// AddCaseLine 在工单下加维修明细行
func (s *WarrantyService) AddCaseLine(ctx context.Context, caseID string, req CreateCaseLineRequest) (*entity.CaseLine, error) {
	if _, err := s.GetCase(ctx, caseID); err != nil {
		return nil, err
	}
	if req.TypeComponentID != "" {
		if _, err := s.comps.GetType(ctx, req.TypeComponentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: type component %s", ErrNotFound, req.TypeComponentID)
			}
			return nil, err
		}
	}
	qty := req.Quantity
	if qty == 0 {
		qty = 1
	}

	line := &entity.CaseLine{
		GuaranteeCaseID: caseID,
		Diagnosis:       req.Diagnosis,
		RepairPlan:      req.RepairPlan,
		TypeComponentID: req.TypeComponentID,
		Quantity:        qty,
		AssignedTechID:  req.AssignedTechID,
		Status:          entity.CaseLineStatusDraft,
	}
	if err := s.repo.CreateCaseLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func (s *WarrantyService) GetCaseLine(ctx context.Context, id string) (*entity.CaseLine, error) {
	line, err := s.repo.GetCaseLine(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: case line %s", ErrNotFound, id)
		}
		return nil, err
	}
	return line, nil
}

type UpdateCaseLineRequest struct {
	Diagnosis        *string `json:"diagnosis"`
	RepairPlan       *string `json:"repairPlan"`
	WarrantyEligible *bool   `json:"warrantyEligible"`
	RejectionReason  *string `json:"rejectionReason"`
	AssignedTechID   *string `json:"assignedTechId"`
}

// UpdateCaseLine 更新诊断、质保判定、指派技师
func (s *WarrantyService) UpdateCaseLine(ctx context.Context, id string, req UpdateCaseLineRequest) (*entity.CaseLine, error) {
	line, err := s.GetCaseLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if line.Status == entity.CaseLineStatusCompleted || line.Status == entity.CaseLineStatusRejected {
		return nil, fmt.Errorf("%w: case line is %s", ErrInvalidTransition, line.Status)
	}

	if req.Diagnosis != nil {
		line.Diagnosis = *req.Diagnosis
	}
	if req.RepairPlan != nil {
		line.RepairPlan = *req.RepairPlan
	}
	if req.WarrantyEligible != nil {
		line.WarrantyEligible = req.WarrantyEligible
	}
	if req.RejectionReason != nil {
		line.RejectionReason = *req.RejectionReason
	}
	if req.AssignedTechID != nil {
		line.AssignedTechID = *req.AssignedTechID
	}
	if err := s.repo.UpdateCaseLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateCaseLineStatus 明细行状态迁移
func (s *WarrantyService) UpdateCaseLineStatus(ctx context.Context, id string, to entity.CaseLineStatus) (*entity.CaseLine, error) {
	line, err := s.GetCaseLine(ctx, id)
	if err != nil {
		return nil, err
	}
	if !line.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: case line %s -> %s", ErrInvalidTransition, line.Status, to)
	}
	line.Status = to
	if err := s.repo.UpdateCaseLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

func generateCaseCode() string {
	now := time.Now()
	return fmt.Sprintf("GC-%s-%04d", now.Format("20060102"), now.UnixNano()%10000)
}
