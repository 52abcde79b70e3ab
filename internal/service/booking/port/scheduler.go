package port

import (
	"context"
	"time"
)

// DelayScheduler 是延迟任务调度器的出站端口。
type DelayScheduler interface {
	// ScheduleExpiryCheck 安排一个在确认超时后执行的预订过期检查任务。
	ScheduleExpiryCheck(ctx context.Context, bookingID string, creationTime time.Time) error
}
