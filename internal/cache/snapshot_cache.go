package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fenxiao-api/internal/models"
)

const snapshotTTL = 5 * time.Minute

// GetSnapshot 读取统计快照缓存
func GetSnapshot(ctx context.Context, salesID uint) (*models.StatisticsSnapshot, bool, error) {
	if salesID == 0 {
		return nil, false, nil
	}
	var snapshot models.StatisticsSnapshot
	hit, err := GetJSON(ctx, snapshotKey(salesID), &snapshot)
	if err != nil || !hit {
		return nil, false, err
	}
	return &snapshot, true, nil
}

// SetSnapshot 写入统计快照缓存
func SetSnapshot(ctx context.Context, snapshot *models.StatisticsSnapshot) error {
	if snapshot == nil || snapshot.SalesID == 0 {
		return nil
	}
	return SetJSON(ctx, snapshotKey(snapshot.SalesID), snapshot, snapshotTTL)
}

// InvalidateSnapshot 失效统计快照缓存（重算后调用）
func InvalidateSnapshot(ctx context.Context, salesID uint) error {
	if salesID == 0 {
		return nil
	}
	return Del(ctx, snapshotKey(salesID))
}

func snapshotKey(salesID uint) string {
	return fmt.Sprintf("stats:snapshot:%d", salesID)
}
