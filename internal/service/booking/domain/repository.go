// internal/service/booking/domain/repository.go
package domain

import (
	"context"
	"time"
)

// Repository 定义了预订聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type Repository interface {
	// Create 持久化一条新预订（含加购项）。
	Create(ctx context.Context, b *Booking) error

	// FindByID 根据 ID 查找一条预订，未找到返回 ErrBookingNotFound。
	FindByID(ctx context.Context, id string) (*Booking, error)

	// Update 保存聚合的当前状态（确认标记、短信码、支付标记）。
	Update(ctx context.Context, b *Booking) error

	// Delete 删除预订及其级联的加购项。
	Delete(ctx context.Context, id string) error

	// FindRoomBookingsFrom 返回指定房间、结束时刻晚于 from 的全部预订。
	// 可订性检查和房态查询共用。
	FindRoomBookingsFrom(ctx context.Context, roomID uint, from time.Time) ([]Booking, error)

	// FindActiveByPhone 返回该手机号结束时刻晚于 now 的预订。
	FindActiveByPhone(ctx context.Context, phone string, now time.Time) ([]Booking, error)

	// FindByPhone 返回该手机号的历史预订，按开始时刻倒序。
	FindByPhone(ctx context.Context, phone string) ([]Booking, error)

	// FindUnconfirmedBefore 返回创建时刻早于 deadline 且仍未确认的预订，
	// 供兜底清扫任务使用。
	FindUnconfirmedBefore(ctx context.Context, deadline time.Time) ([]Booking, error)

	// FindConfirmedEndedBefore 返回已确认且结束时刻不晚于 deadline 的预订，
	// 供积分补累计任务使用。
	FindConfirmedEndedBefore(ctx context.Context, deadline time.Time) ([]Booking, error)
}
