// Package report 基于已持久化分区的查询服务：计划对比实绩视图（带缓存）、매출처 排名与统合宽表。
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spracknow-droid/Excel-to-DB/internal/model"
	"github.com/spracknow-droid/Excel-to-DB/internal/reconcile"
	"github.com/spracknow-droid/Excel-to-DB/internal/store"
)

// Service 报表查询服务
type Service struct {
	store   *store.Store
	builder *reconcile.Builder
	logger  *slog.Logger

	mu sync.Mutex
}

// NewService 创建报表服务
func NewService(st *store.Store, rules model.Rules, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		builder: reconcile.NewBuilder(rules.View),
		logger:  logger,
	}
}

// Partitions 同时读取两个分区；不存在的分区返回空表
func (s *Service) Partitions() (plan, actual *model.Frame, err error) {
	plan, err = s.store.LoadPartition(model.PartitionPlan)
	if err != nil {
		return nil, nil, err
	}
	actual, err = s.store.LoadPartition(model.PartitionActual)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		plan = model.NewFrame(nil)
	}
	if actual == nil {
		actual = model.NewFrame(nil)
	}
	return plan, actual, nil
}

// Reconciliation 返回计划对比实绩视图；缓存失效时重新构建并写回
func (s *Service) Reconciliation() ([]model.ReconciliationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok, err := s.store.LoadView()
	if err != nil {
		return nil, err
	}
	if ok {
		return rows, nil
	}

	// 版本号须在读取分区之前取得，构建期间有写入时不缓存旧结果
	gen, err := s.store.Generation()
	if err != nil {
		return nil, err
	}
	rows, err = s.Rebuild()
	if err != nil {
		return nil, err
	}
	switch err := s.store.SaveView(gen, rows); {
	case errors.Is(err, store.ErrStaleView):
		s.logger.Debug("reconciliation view outdated before caching", "generation", gen)
	case err != nil:
		// 缓存写入失败不影响本次结果
		s.logger.Warn("reconciliation view cache not saved", "error", err)
	}
	return rows, nil
}

// Rebuild 不经缓存直接由分区构建视图
func (s *Service) Rebuild() ([]model.ReconciliationRow, error) {
	plan, actual, err := s.Partitions()
	if err != nil {
		return nil, fmt.Errorf("load partitions: %w", err)
	}
	rows := s.builder.Build(plan, actual)
	s.logger.Debug("reconciliation view built", "rows", len(rows), "plan_rows", plan.Len(), "actual_rows", actual.Len())
	return rows, nil
}

// TopCounterparties 实绩 매출처 排名；limit<=0 时全部返回
func (s *Service) TopCounterparties(limit int) ([]model.CounterpartyRanking, error) {
	actual, err := s.store.LoadPartition(model.PartitionActual)
	if err != nil {
		return nil, err
	}
	ranking := s.builder.TopCounterparties(actual)
	if limit > 0 && len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// Unified 计划与实绩的统合宽表
func (s *Service) Unified(commonKeys []string) (*model.Frame, error) {
	plan, actual, err := s.Partitions()
	if err != nil {
		return nil, err
	}
	return reconcile.Unify(plan, actual, commonKeys), nil
}
