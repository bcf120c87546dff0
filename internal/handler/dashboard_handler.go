package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
)

// DashboardHandler 看板处理器
type DashboardHandler struct {
	svc *service.DashboardService
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Summary 工单与预留状态汇总
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.svc.GetSummary(c.Request.Context(), GetIdentity(c))
	if err != nil {
		FromServiceError(c, err)
		return
	}

	Success(c, summary)
}
