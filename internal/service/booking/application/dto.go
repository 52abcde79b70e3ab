// internal/service/booking/application/dto.go
package application

import (
	"time"

	"banya/internal/service/booking/domain"
	"banya/internal/service/pricing"
)

// CreateBookingRequest 是创建预订用例的输入数据。
type CreateBookingRequest struct {
	RoomID   uint            `json:"roomId"`
	Name     string          `json:"name"`
	Phone    string          `json:"phone"`
	Start    time.Time       `json:"start"`
	Hours    int             `json:"hours"`
	Birthday bool            `json:"birthday"`
	Items    []RequestedItem `json:"items,omitempty"`
}

// RequestedItem 是请求里的一条加购项。
type RequestedItem struct {
	ItemID   uint `json:"itemId"`
	Quantity int  `json:"quantity"`
}

// CreateBookingResponse 是创建预订用例的输出数据。
// 价格在此刻锁定，促销明细仅用于展示。
type CreateBookingResponse struct {
	BookingID  string                     `json:"bookingId"`
	FinalPrice float64                    `json:"finalPrice"`
	Promotions []pricing.AppliedPromotion `json:"promotions,omitempty"`
	Message    string                     `json:"message"`
}

// PayBookingRequest 是支付编排用例的输入数据。
// BathhouseID 和 Phone 用于归属校验：不匹配按不存在处理。
type PayBookingRequest struct {
	BookingID   string  `json:"bookingId"`
	BathhouseID uint    `json:"bathhouseId"`
	Phone       string  `json:"phone"`
	RedeemBonus float64 `json:"redeemBonus"`
}

// PayBookingResponse 汇总一次支付编排的结果。
type PayBookingResponse struct {
	BookingID    string  `json:"bookingId"`
	Paid         bool    `json:"paid"`
	FinalPrice   float64 `json:"finalPrice"`
	BonusApplied float64 `json:"bonusApplied"`
	AmountDue    float64 `json:"amountDue"`
	BonusBalance float64 `json:"bonusBalance"`
}

// BookingView 是查询接口返回的预订视图。
type BookingView struct {
	BookingID  string     `json:"bookingId"`
	RoomID     uint       `json:"roomId"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	Hours      int        `json:"hours"`
	Confirmed  bool       `json:"confirmed"`
	Paid       bool       `json:"paid"`
	FinalPrice *float64   `json:"finalPrice,omitempty"`
	Items      []ItemView `json:"items,omitempty"`
}

// ItemView 是视图中的一条加购项。
type ItemView struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

func toBookingView(b *domain.Booking) BookingView {
	view := BookingView{
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		Name:       b.Name,
		Phone:      b.Phone,
		Start:      b.Start,
		End:        b.End(),
		Hours:      b.Hours,
		Confirmed:  b.Confirmed,
		Paid:       b.Paid,
		FinalPrice: b.FinalPrice,
	}
	for _, it := range b.Items {
		view.Items = append(view.Items, ItemView{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return view
}
