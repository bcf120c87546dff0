package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/config"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/notify"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 业务服务集合
type Services struct {
	Auth        *AuthService
	Customer    *CustomerService
	Warranty    *WarrantyService
	Stock       *StockService
	Reservation *ReservationService
	Dashboard   *DashboardService
	Report      *ReportService
	Attachment  *AttachmentService
}

// Deps 服务装配依赖
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	MinIO  *minio.Client
	Events *notify.Publisher
	Config *config.Config
	Logger *zap.Logger
}

func NewServices(repos *repository.Repositories, deps Deps) *Services {
	warranty := NewWarrantyService(repos.Warranty, repos.Vehicle, repos.Component)
	reservation := NewReservationService(deps.DB, repos.Reservation, repos.Stock, repos.Component, deps.Events, deps.Logger)

	return &Services{
		Auth:        NewAuthService(repos.User, deps.Redis, deps.Config),
		Customer:    NewCustomerService(repos.Customer, repos.Vehicle),
		Warranty:    warranty,
		Stock:       NewStockService(deps.DB, repos.Stock, repos.Component, repos.Warehouse),
		Reservation: reservation,
		Dashboard:   NewDashboardService(repos.Warranty, repos.Reservation, repos.Stock, deps.Redis, deps.Logger),
		Report:      NewReportService(reservation),
		Attachment:  NewAttachmentService(warranty, repos.Warranty, deps.MinIO, deps.Config.MinIO.Bucket),
	}
}
