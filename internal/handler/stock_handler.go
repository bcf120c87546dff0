package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// StockHandler 库存处理器
type StockHandler struct {
	svc *service.StockService
}

// NewStockHandler 创建库存处理器
func NewStockHandler(svc *service.StockService) *StockHandler {
	return &StockHandler{svc: svc}
}

// CreateType 新建零部件类型
func (h *StockHandler) CreateType(c *gin.Context) {
	var req service.CreateTypeComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tc, err := h.svc.CreateType(c.Request.Context(), req)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, tc)
}

// GetType 零部件类型详情
func (h *StockHandler) GetType(c *gin.Context) {
	tc, err := h.svc.GetType(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, tc)
}

// ListTypes 零部件类型列表
func (h *StockHandler) ListTypes(c *gin.Context) {
	items, err := h.svc.ListTypes(c.Request.Context(), c.Query("category"), c.Query("keyword"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, items)
}

// CreateWarehouse 新建仓库
func (h *StockHandler) CreateWarehouse(c *gin.Context) {
	var req service.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.svc.CreateWarehouse(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, w)
}

// ListWarehouses 仓库列表，按身份限定服务中心
func (h *StockHandler) ListWarehouses(c *gin.Context) {
	items, err := h.svc.ListWarehouses(c.Request.Context(), GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, items)
}

// Inbound 零部件入库，按序列号逐件登记
func (h *StockHandler) Inbound(c *gin.Context) {
	var req service.InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	stock, err := h.svc.Inbound(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, stock)
}

// List 库存台账列表
func (h *StockHandler) List(c *gin.Context) {
	page, limit := GetPagination(c)
	params := repository.StockListParams{
		WarehouseID:     c.Query("warehouseId"),
		TypeComponentID: c.Query("typeComponentId"),
		LowAvailable:    c.Query("lowAvailable") == "true",
		Page:            page,
		Limit:           limit,
	}

	items, total, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{Items: items, Pagination: NewPagination(page, limit, total)})
}

// Get 台账详情及在库件清单
func (h *StockHandler) Get(c *gin.Context) {
	stock, instances, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, gin.H{
		"stock":     stock,
		"instances": instances,
	})
}

// Audit 校验台账预占数与活跃预留数一致
func (h *StockHandler) Audit(c *gin.Context) {
	audit, err := h.svc.Audit(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, audit)
}
