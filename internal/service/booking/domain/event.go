// internal/service/booking/domain/event.go
package domain

import "time"

// 预订生命周期事件类型，随事件一起写入 Kafka 消息。
const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingConfirmed = "BOOKING_CONFIRMED"
	EventBookingCancelled = "BOOKING_CANCELLED"
	EventBookingExpired   = "BOOKING_EXPIRED"
	EventBookingPaid      = "BOOKING_PAID"
)

// BookingEvent 是对外广播的生命周期事件，消费方包括通知服务和推送网关。
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"bookingId"`
	BathhouseID uint      `json:"bathhouseId"`
	RoomID      uint      `json:"roomId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Start       time.Time `json:"start"`
	Hours       int       `json:"hours"`
	FinalPrice  *float64  `json:"finalPrice,omitempty"`
	At          time.Time `json:"at"`
}

// ExpiryCheckEvent 是延迟调度器在确认超时后投递回来的检查指令。
// 消费方据此判断预订是否仍未确认，过期则删除。
type ExpiryCheckEvent struct {
	BookingID string    `json:"bookingId"`
	CreatedAt time.Time `json:"createdAt"`
}
