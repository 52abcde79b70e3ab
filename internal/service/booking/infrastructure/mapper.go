// internal/service/booking/infrastructure/mapper.go
package infrastructure

import (
	"banya/internal/service/booking/domain"
)

// ToDomainBooking 将数据库模型转换为领域模型。
func ToDomainBooking(m *BookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:          m.ID,
		BathhouseID: m.BathhouseID,
		RoomID:      m.RoomID,
		Name:        m.Name,
		Phone:       m.Phone,
		Start:       m.StartTime,
		Hours:       m.Hours,
		Birthday:    m.Birthday,
		Confirmed:   m.Confirmed,
		Paid:        m.Paid,
		SMSCode:     m.SMSCode,
		FinalPrice:  m.FinalPrice,
		CreatedAt:   m.CreatedAt,
	}
	for _, it := range m.Items {
		b.Items = append(b.Items, domain.ExtraItem{
			ID:       it.ID,
			ItemID:   it.ItemID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	return b
}

func toBookingModel(b *domain.Booking) *BookingModel {
	m := &BookingModel{
		ID:          b.ID,
		BathhouseID: b.BathhouseID,
		RoomID:      b.RoomID,
		Name:        b.Name,
		Phone:       b.Phone,
		StartTime:   b.Start,
		Hours:       b.Hours,
		Birthday:    b.Birthday,
		Confirmed:   b.Confirmed,
		Paid:        b.Paid,
		SMSCode:     b.SMSCode,
		FinalPrice:  b.FinalPrice,
		CreatedAt:   b.CreatedAt,
	}
	for _, it := range b.Items {
		m.Items = append(m.Items, ExtraItemModel{
			BookingID: b.ID,
			ItemID:    it.ItemID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}
	return m
}
