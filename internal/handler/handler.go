package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/config"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Auth        *AuthHandler
	Customer    *CustomerHandler
	Warranty    *WarrantyHandler
	Stock       *StockHandler
	Reservation *ReservationHandler
	Dashboard   *DashboardHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:        NewAuthHandler(svc.Auth),
		Customer:    NewCustomerHandler(svc.Customer),
		Warranty:    NewWarrantyHandler(svc.Warranty, svc.Attachment),
		Stock:       NewStockHandler(svc.Stock),
		Reservation: NewReservationHandler(svc.Reservation, svc.Report),
		Dashboard:   NewDashboardHandler(svc.Dashboard),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// ListData 列表响应数据体
type ListData struct {
	Items      interface{} `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination 计算分页信息
func NewPagination(page, limit int, total int64) Pagination {
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{Code: 0, Message: "success", Data: data})
}

// Error 错误响应，业务码前三位即 HTTP 状态码
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{Code: code, Message: message})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// FromServiceError 把业务错误哨兵映射为 HTTP 响应
func FromServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrDuplicate):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrSerialMismatch),
		errors.Is(err, service.ErrInvalidArgument):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredential):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	default:
		InternalError(c, "internal server error")
	}
}

// GetIdentity 从上下文取调用者身份
func GetIdentity(c *gin.Context) service.Identity {
	return service.Identity{
		UserID:          c.GetString("user_id"),
		Role:            entity.Role(c.GetString("role")),
		ServiceCenterID: c.GetString("service_center_id"),
	}
}

// GetPagination 读分页参数，page 默认1，limit 默认10、上限100
func GetPagination(c *gin.Context) (page, limit int) {
	page = 1
	limit = 10

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return page, limit
}
