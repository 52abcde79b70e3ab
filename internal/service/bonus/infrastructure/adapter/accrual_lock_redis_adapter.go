// internal/service/bonus/infrastructure/adapter/accrual_lock_redis_adapter.go
package adapter

import (
	"context"
	"fmt"

	"banya/internal/pkg/redis"
)

const (
	acquireScriptName = "accrual_lock_acquire"
	releaseScriptName = "accrual_lock_release"

	// 锁的 TTL：覆盖一次累计操作的最长耗时。持有方崩溃后锁自动过期，
	// 唯一索引兜底，不会产生重复累计。
	lockTTLSeconds = 30
)

// AccrualLockRedisAdapter 是 port.AccrualLock 的 Redis 实现。
// 创建时加载所需的 Lua 脚本。
type AccrualLockRedisAdapter struct {
	redisClient *redis.Client
}

func NewAccrualLockRedisAdapter(redisClient *redis.Client) (*AccrualLockRedisAdapter, error) {
	if err := redisClient.LoadScriptFromContent(acquireScriptName, acquireScript); err != nil {
		return nil, fmt.Errorf("failed to load accrual lock acquire script: %w", err)
	}
	if err := redisClient.LoadScriptFromContent(releaseScriptName, releaseScript); err != nil {
		return nil, fmt.Errorf("failed to load accrual lock release script: %w", err)
	}
	return &AccrualLockRedisAdapter{redisClient: redisClient}, nil
}

func (a *AccrualLockRedisAdapter) Acquire(ctx context.Context, bookingID string) (bool, error) {
	key := fmt.Sprintf("bonus:accrual_lock:{%s}", bookingID)

	result, err := a.redisClient.RunScript(ctx, acquireScriptName, []string{key}, lockTTLSeconds)
	if err != nil {
		return false, fmt.Errorf("accrual lock adapter failed to run script: %w", err)
	}

	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from Lua script: %T", result)
	}
	return code == 1, nil
}

func (a *AccrualLockRedisAdapter) Release(ctx context.Context, bookingID string) error {
	key := fmt.Sprintf("bonus:accrual_lock:{%s}", bookingID)
	_, err := a.redisClient.RunScript(ctx, releaseScriptName, []string{key})
	return err
}

var acquireScript = `
-- KEYS[1]: 锁的 Key, 例如: bonus:accrual_lock:{booking-uuid}
-- ARGV[1]: TTL（秒）

-- SET NX + EX：拿到锁返回 1，已被持有返回 0
if redis.call('set', KEYS[1], '1', 'NX', 'EX', tonumber(ARGV[1])) then
    return 1
else
    return 0
end
`

var releaseScript = `
-- KEYS[1]: 锁的 Key
redis.call('del', KEYS[1])
return 1
`
