package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/config"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/entity"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/handler"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/middleware"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/notify"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/service"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting warranty service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化对象存储
	minioClient, err := initMinIO(cfg.MinIO)
	if err != nil {
		zapLogger.Fatal("Failed to connect to object storage", zap.Error(err))
	}

	// 初始化事件发布器，未启用时为 nil，发布器自身对 nil 安全
	var events *notify.Publisher
	if cfg.RabbitMQ.Enabled {
		events, err = notify.NewPublisher(cfg.RabbitMQ.URL, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer events.Close()
	}

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, service.Deps{
		DB:     db,
		Redis:  rdb,
		MinIO:  minioClient,
		Events: events,
		Config: cfg,
		Logger: zapLogger,
	})
	handlers := handler.NewHandlers(services, cfg)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func initMinIO(cfg config.MinIOConfig) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.POST("/auth/register", middleware.RequireRole(entity.RoleEMVAdmin), h.Auth.Register)

			// 客户管理
			customers := authorized.Group("/customers")
			{
				customers.GET("", h.Customer.ListCustomers)
				customers.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Customer.CreateCustomer)
				customers.GET("/:id", h.Customer.GetCustomer)
			}

			// 车辆管理
			vehicles := authorized.Group("/vehicles")
			{
				vehicles.GET("", h.Customer.ListVehicles)
				vehicles.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Customer.CreateVehicle)
				vehicles.GET("/lookup", h.Customer.GetVehicleByVIN)
				vehicles.GET("/:id", h.Customer.GetVehicle)
			}

			// 车辆进场处理记录
			records := authorized.Group("/processing-records")
			{
				records.GET("", h.Warranty.ListRecords)
				records.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Warranty.CheckIn)
				records.GET("/:id", h.Warranty.GetRecord)
			}

			// 质保工单
			cases := authorized.Group("/guarantee-cases")
			{
				cases.GET("", h.Warranty.ListCases)
				cases.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Warranty.CreateCase)
				cases.GET("/:id", h.Warranty.GetCase)
				cases.PATCH("/:id/status", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleEMVStaff), h.Warranty.UpdateCaseStatus)
				cases.POST("/:id/lines", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech), h.Warranty.AddCaseLine)
			}

			// 维修明细行
			caseLines := authorized.Group("/case-lines")
			{
				caseLines.GET("/:id", h.Warranty.GetCaseLine)
				caseLines.PATCH("/:id", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech, entity.RoleEMVStaff), h.Warranty.UpdateCaseLine)
				caseLines.PATCH("/:id/status", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech, entity.RoleEMVStaff), h.Warranty.UpdateCaseLineStatus)
				caseLines.POST("/:id/attachments", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech), h.Warranty.UploadAttachment)
				caseLines.GET("/:id/attachments/url", h.Warranty.GetAttachmentURL)
			}

			// 零部件类型与仓库
			authorized.GET("/type-components", h.Stock.ListTypes)
			authorized.POST("/type-components", middleware.RequireRole(entity.RoleEMVStaff), h.Stock.CreateType)
			authorized.GET("/type-components/:id", h.Stock.GetType)
			authorized.GET("/warehouses", h.Stock.ListWarehouses)
			authorized.POST("/warehouses", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleEMVStaff), h.Stock.CreateWarehouse)

			// 库存台账
			stocks := authorized.Group("/stocks")
			{
				stocks.GET("", h.Stock.List)
				stocks.POST("/inbound", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Stock.Inbound)
				stocks.GET("/:id", h.Stock.Get)
				stocks.GET("/:id/audit", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleEMVStaff), h.Stock.Audit)
			}

			// 零部件预留
			reservations := authorized.Group("/reservations")
			{
				reservations.GET("", h.Reservation.List)
				reservations.GET("/export", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleEMVStaff), h.Reservation.Export)
				reservations.POST("", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Reservation.Create)
				reservations.GET("/:id", h.Reservation.Get)
				reservations.PATCH("/:id/pickup", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech), h.Reservation.Pickup)
				reservations.PATCH("/:id/installComponent", middleware.RequireRole(entity.RoleServiceCenterTech), h.Reservation.Install)
				reservations.PATCH("/:id/return", middleware.RequireRole(entity.RoleServiceCenterStaff, entity.RoleServiceCenterTech), h.Reservation.Return)
				reservations.PATCH("/:id/cancel", middleware.RequireRole(entity.RoleServiceCenterStaff), h.Reservation.Cancel)
			}

			// 看板
			authorized.GET("/dashboard/summary", h.Dashboard.Summary)
		}
	}
}
