package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// CustomerHandler 客户与车辆处理器
type CustomerHandler struct {
	svc *service.CustomerService
}

// NewCustomerHandler 创建客户处理器
func NewCustomerHandler(svc *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

// CreateCustomer 登记客户
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customer, err := h.svc.CreateCustomer(c.Request.Context(), req, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, customer)
}

// GetCustomer 客户详情
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.svc.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, customer)
}

// ListCustomers 客户列表，支持关键字搜索
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	page, limit := GetPagination(c)

	items, total, err := h.svc.ListCustomers(c.Request.Context(), c.Query("keyword"), page, limit, GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{Items: items, Pagination: NewPagination(page, limit, total)})
}

// CreateVehicle 登记车辆
func (h *CustomerHandler) CreateVehicle(c *gin.Context) {
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	vehicle, err := h.svc.CreateVehicle(c.Request.Context(), req)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Created(c, vehicle)
}

// GetVehicle 车辆详情，支持 VIN 查询参数
func (h *CustomerHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.svc.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, vehicle)
}

// GetVehicleByVIN 按 VIN 查车辆
func (h *CustomerHandler) GetVehicleByVIN(c *gin.Context) {
	vin := c.Query("vin")
	if vin == "" {
		BadRequest(c, "vin query parameter is required")
		return
	}

	vehicle, err := h.svc.GetVehicleByVIN(c.Request.Context(), vin)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, vehicle)
}

// ListVehicles 车辆列表
func (h *CustomerHandler) ListVehicles(c *gin.Context) {
	page, limit := GetPagination(c)

	items, total, err := h.svc.ListVehicles(c.Request.Context(),
		c.Query("ownerId"), c.Query("model"), c.Query("keyword"), page, limit)
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, ListData{Items: items, Pagination: NewPagination(page, limit, total)})
}
