// internal/service/bonus/port/lock.go
package port

import "context"

// AccrualLock 是积分累计互斥锁的出站端口。
// 两个并发的 Accrue 调用可能同时通过"是否已有流水"的检查，
// 锁 + 数据库唯一索引一起把这个竞态堵死。
type AccrualLock interface {
	// Acquire 尝试获取 bookingID 对应的锁；已被持有时返回 false。
	Acquire(ctx context.Context, bookingID string) (bool, error)
	// Release 释放锁。锁带 TTL，Release 失败不致命。
	Release(ctx context.Context, bookingID string) error
}
