package port

import (
	"context"

	"banya/internal/service/booking/domain"
)

// EventProducer 是生命周期事件生产者的出站端口。
// 事件会被通知服务和推送网关消费，发送失败不应阻断主流程。
type EventProducer interface {
	// PublishBookingEvent 广播一条预订生命周期事件。
	PublishBookingEvent(ctx context.Context, event *domain.BookingEvent) error
}

// SMSSender 是短信通道的出站端口。
type SMSSender interface {
	// SendCode 向手机号发送确认码。
	SendCode(ctx context.Context, phone, code string) error
}
