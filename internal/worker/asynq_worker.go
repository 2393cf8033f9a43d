package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fenxiao-api/internal/logger"
	"github.com/fenxiao-api/internal/provider"
	"github.com/fenxiao-api/internal/queue"
	"github.com/fenxiao-api/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskStatsRecompute, c.handleStatsRecompute)
	mux.HandleFunc(queue.TaskStatsRecomputeAll, c.handleStatsRecomputeAll)
}

func (c *Consumer) handleStatsRecompute(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stats_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.StatsRecomputePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_stats_recompute_unmarshal_failed", "error", err)
		return err
	}
	if payload.SalesID == 0 {
		logger.Debugw("worker_stats_recompute_skip_invalid_payload", "sales_id", payload.SalesID)
		return nil
	}
	if c.StatsAggregator == nil {
		logger.Warnw("worker_stats_recompute_skip_aggregator_nil", "sales_id", payload.SalesID)
		return nil
	}
	if _, err := c.StatsAggregator.Recompute(payload.SalesID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			// 账号已删除，任务作废
			logger.Debugw("worker_stats_recompute_skip_account_not_found", "sales_id", payload.SalesID)
			return nil
		}
		logger.Warnw("worker_stats_recompute_failed", "sales_id", payload.SalesID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleStatsRecomputeAll(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_stats_recompute_all_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.StatsAggregator == nil {
		logger.Warnw("worker_stats_recompute_all_skip_aggregator_nil")
		return nil
	}
	if err := c.StatsAggregator.RecomputeAll(); err != nil {
		logger.Warnw("worker_stats_recompute_all_failed", "error", err)
		return err
	}
	return nil
}
