package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trandongthanh/OEMEVWarrantyManagementSystemSWP-sub004/internal/repository"
	"go.uber.org/zap"
)

const (
	dashboardCachePrefix = "dashboard:summary:"
	dashboardCacheTTL    = 30 * time.Second
)

// DashboardService 看板汇总，Redis 短期缓存
type DashboardService struct {
	warranty     *repository.WarrantyRepository
	reservations *repository.ReservationRepository
	stocks       *repository.StockRepository
	rdb          *redis.Client
	logger       *zap.Logger
}

func NewDashboardService(warranty *repository.WarrantyRepository, reservations *repository.ReservationRepository, stocks *repository.StockRepository, rdb *redis.Client, logger *zap.Logger) *DashboardService {
	return &DashboardService{warranty: warranty, reservations: reservations, stocks: stocks, rdb: rdb, logger: logger}
}

// Summary 看板汇总数据
type Summary struct {
	CasesByStatus        map[string]int64 `json:"cases_by_status"`
	ReservationsByStatus map[string]int64 `json:"reservations_by_status"`
	LowStockEntries      int64            `json:"low_stock_entries"`
	GeneratedAt          time.Time        `json:"generated_at"`
}

// GetSummary 读缓存，未命中则现算并回填
func (s *DashboardService) GetSummary(ctx context.Context, actor Identity) (*Summary, error) {
	key := dashboardCachePrefix + actor.scope()

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var out Summary
			if json.Unmarshal([]byte(cached), &out) == nil {
				return &out, nil
			}
		}
	}

	cases, err := s.warranty.CountCasesByStatus(ctx, actor.scope())
	if err != nil {
		return nil, err
	}
	reservations, err := s.reservations.CountByStatus(ctx, actor.scope())
	if err != nil {
		return nil, err
	}
	lowStock, err := s.stocks.CountLowAvailable(ctx)
	if err != nil {
		return nil, err
	}

	out := &Summary{
		CasesByStatus:        cases,
		ReservationsByStatus: reservations,
		LowStockEntries:      lowStock,
		GeneratedAt:          time.Now(),
	}

	if s.rdb != nil {
		if body, err := json.Marshal(out); err == nil {
			if err := s.rdb.Set(ctx, key, body, dashboardCacheTTL).Err(); err != nil {
				s.logger.Warn("Failed to cache dashboard summary", zap.Error(err))
			}
		}
	}
	return out, nil
}
