// internal/service/notify/formatter.go
package notify

import (
	"fmt"

	"banya/internal/service/booking/domain"
)

// FormatEvent 把生命周期事件渲染成运营群可读的一行文本。
// 未知事件类型返回空串，调用方据此跳过。
func FormatEvent(event *domain.BookingEvent) string {
	slot := fmt.Sprintf("%s, %dh", event.Start.Format("02.01 15:04"), event.Hours)

	switch event.Type {
	case domain.EventBookingCreated:
		price := ""
		if event.FinalPrice != nil {
			price = fmt.Sprintf(", %.2f", *event.FinalPrice)
		}
		return fmt.Sprintf("🆕 New booking: room %d, %s (%s, %s%s)", event.RoomID, slot, event.Name, event.Phone, price)
	case domain.EventBookingConfirmed:
		return fmt.Sprintf("✅ Confirmed: room %d, %s (%s)", event.RoomID, slot, event.Phone)
	case domain.EventBookingCancelled:
		return fmt.Sprintf("❌ Cancelled: room %d, %s (%s)", event.RoomID, slot, event.Phone)
	case domain.EventBookingExpired:
		return fmt.Sprintf("⌛ Expired without confirmation: room %d, %s (%s)", event.RoomID, slot, event.Phone)
	case domain.EventBookingPaid:
		price := ""
		if event.FinalPrice != nil {
			price = fmt.Sprintf(" %.2f", *event.FinalPrice)
		}
		return fmt.Sprintf("💰 Paid:%s room %d, %s (%s)", price, event.RoomID, slot, event.Phone)
	}
	return ""
}
