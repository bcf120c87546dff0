package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// ReservationHandler 零部件预留处理器
type ReservationHandler struct {
	svc     *service.ReservationService
	reports *service.ReportService
}

// NewReservationHandler 创建预留处理器
func NewReservationHandler(svc *service.ReservationService, reports *service.ReportService) *ReservationHandler {
	return &ReservationHandler{svc: svc, reports: reports}
}

func (h *ReservationHandler) listParams(c *gin.Context) service.ListReservationsParams {
	page, limit := GetPagination(c)
	return service.ListReservationsParams{
		Status:                    c.Query("status"),
		WarehouseID:               c.Query("warehouseId"),
		TypeComponentID:           c.Query("typeComponentId"),
		CaseLineID:                c.Query("caseLineId"),
		GuaranteeCaseID:           c.Query("guaranteeCaseId"),
		VehicleProcessingRecordID: c.Query("vehicleProcessingRecordId"),
		Page:                      page,
		Limit:                     limit,
		SortBy:                    c.DefaultQuery("sortBy", "createdAt"),
		SortOrder:                 c.DefaultQuery("sortOrder", "DESC"),
	}
}

// List 预留列表，按身份限定服务中心范围
func (h *ReservationHandler) List(c *gin.Context) {
	params := h.listParams(c)

	items, total, err := h.svc.List(c.Request.Context(), params, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{
		Items:      items,
		Pagination: NewPagination(params.Page, params.Limit, total),
	})
}

// Get 预留详情
func (h *ReservationHandler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("id"), GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, res)
}

// Create 为维修明细行预留一件零部件
func (h *ReservationHandler) Create(c *gin.Context) {
	var req service.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Create(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, res)
}

type pickupRequest struct {
	PickedUpByTechID string `json:"pickedUpByTechId" binding:"required,uuid"`
}

// Pickup 技师取件，RESERVED -> PICKED_UP
func (h *ReservationHandler) Pickup(c *gin.Context) {
	var req pickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Pickup(c.Request.Context(), c.Param("id"), req.PickedUpByTechID, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, res)
}

// Install 装车，PICKED_UP -> INSTALLED，同事务扣减台账
func (h *ReservationHandler) Install(c *gin.Context) {
	res, err := h.svc.Install(c.Request.Context(), c.Param("id"), GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, res)
}

type returnRequest struct {
	SerialNumber string `json:"serialNumber" binding:"required"`
}

// Return 退回仓库，PICKED_UP -> RETURNED，序列号必须匹配
func (h *ReservationHandler) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Return(c.Request.Context(), c.Param("id"), req.SerialNumber, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, res)
}

// Cancel 取消预留，RESERVED -> CANCELLED
func (h *ReservationHandler) Cancel(c *gin.Context) {
	res, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, res)
}

// Export 导出预留台账 xlsx
func (h *ReservationHandler) Export(c *gin.Context) {
	params := h.listParams(c)

	buf, err := h.reports.ExportReservations(c.Request.Context(), params, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("reservations-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
