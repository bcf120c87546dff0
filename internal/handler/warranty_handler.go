package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// WarrantyHandler 质保工单处理器
type WarrantyHandler struct {
	svc         *service.WarrantyService
	attachments *service.AttachmentService
}

// NewWarrantyHandler 创建质保处理器
func NewWarrantyHandler(svc *service.WarrantyService, attachments *service.AttachmentService) *WarrantyHandler {
	return &WarrantyHandler{svc: svc, attachments: attachments}
}

// CheckIn 车辆进场登记
func (h *WarrantyHandler) CheckIn(c *gin.Context) {
	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rec, err := h.svc.CheckIn(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, rec)
}

// GetRecord 处理记录详情
func (h *WarrantyHandler) GetRecord(c *gin.Context) {
	rec, err := h.svc.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, rec)
}

// ListRecords 处理记录列表
func (h *WarrantyHandler) ListRecords(c *gin.Context) {
	page, limit := GetPagination(c)

	items, total, err := h.svc.ListRecords(c.Request.Context(),
		c.Query("vehicleId"), c.Query("status"), page, limit, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{Items: items, Pagination: NewPagination(page, limit, total)})
}

// CreateCase 开质保工单
func (h *WarrantyHandler) CreateCase(c *gin.Context) {
	var req service.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	gc, err := h.svc.CreateCase(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, gc)
}

// GetCase 工单详情
func (h *WarrantyHandler) GetCase(c *gin.Context) {
	gc, err := h.svc.GetCase(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, gc)
}

// ListCases 工单列表
func (h *WarrantyHandler) ListCases(c *gin.Context) {
	page, limit := GetPagination(c)

	items, total, err := h.svc.ListCases(c.Request.Context(),
		c.Query("vehicleProcessingRecordId"), c.Query("status"), page, limit, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{Items: items, Pagination: NewPagination(page, limit, total)})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateCaseStatus 推进工单状态
func (h *WarrantyHandler) UpdateCaseStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	gc, err := h.svc.UpdateCaseStatus(c.Request.Context(), c.Param("id"), entity.GuaranteeCaseStatus(req.Status))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, gc)
}

// AddCaseLine 工单下新增维修明细行
func (h *WarrantyHandler) AddCaseLine(c *gin.Context) {
	var req service.CreateCaseLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	line, err := h.svc.AddCaseLine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, line)
}

// GetCaseLine 明细行详情
func (h *WarrantyHandler) GetCaseLine(c *gin.Context) {
	line, err := h.svc.GetCaseLine(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, line)
}

// UpdateCaseLine 更新诊断与质保判定
func (h *WarrantyHandler) UpdateCaseLine(c *gin.Context) {
	var req service.UpdateCaseLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	line, err := h.svc.UpdateCaseLine(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, line)
}

// UpdateCaseLineStatus 推进明细行状态
func (h *WarrantyHandler) UpdateCaseLineStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	line, err := h.svc.UpdateCaseLineStatus(c.Request.Context(), c.Param("id"), entity.CaseLineStatus(req.Status))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, line)
}

// UploadAttachment 上传明细行附件到对象存储
func (h *WarrantyHandler) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file form field is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		InternalError(c, "failed to open uploaded file")
		return
	}
	defer src.Close()

	att, err := h.attachments.Upload(c.Request.Context(), c.Param("id"),
		file.Filename, file.Header.Get("Content-Type"), file.Size, src, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, att)
}

// GetAttachmentURL 取附件的预签名下载地址
func (h *WarrantyHandler) GetAttachmentURL(c *gin.Context) {
	objectKey := c.Query("objectKey")
	if objectKey == "" {
		BadRequest(c, "objectKey query parameter is required")
		return
	}

	url, err := h.attachments.PresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, gin.H{"url": url})
}
