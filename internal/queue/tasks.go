package queue

import (
	"encoding/json"

	"github.com/fenxiao-api/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskStatsRecompute 单账号统计重算任务
	TaskStatsRecompute = constants.TaskStatsRecompute
	// TaskStatsRecomputeAll 全量统计重算任务
	TaskStatsRecomputeAll = constants.TaskStatsRecomputeAll
)

// StatsRecomputePayload 单账号统计重算任务载荷
type StatsRecomputePayload struct {
	SalesID uint `json:"sales_id"`
}

// StatsRecomputeAllPayload 全量统计重算任务载荷
type StatsRecomputeAllPayload struct{}

// NewStatsRecomputeTask 创建单账号统计重算任务
func NewStatsRecomputeTask(payload StatsRecomputePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsRecompute, body), nil
}

// NewStatsRecomputeAllTask 创建全量统计重算任务
func NewStatsRecomputeAllTask(payload StatsRecomputeAllPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatsRecomputeAll, body), nil
}
