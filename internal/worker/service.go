package worker

import (
	"context"
	"errors"
	"time"

	"github.com/fenxiao-api/internal/config"
	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	statsRecomputeInterval = 10 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.StatsAggregator != nil {
		go s.runStatsRecomputeLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runStatsRecomputeLoop 定期全量重算统计快照，兜底补偿丢失的单账号任务
func (s *Service) runStatsRecomputeLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.StatsAggregator == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.StatsAggregator.RecomputeAll(); err != nil {
			logger.Warnw("worker_stats_recompute_all_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(statsRecomputeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
