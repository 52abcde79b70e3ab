// internal/service/booking/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// BookingModel 对应数据库中的 booking 表。
// (room_id, start_time) 上的索引支撑房态查询，phone 上的索引支撑同号活跃单检查。
type BookingModel struct {
	ID          string    `gorm:"primaryKey;size:36"`
	BathhouseID uint      `gorm:"index"`
	RoomID      uint      `gorm:"index:idx_room_start"`
	Name        string    `gorm:"size:100"`
	Phone       string    `gorm:"size:20;index"`
	StartTime   time.Time `gorm:"index:idx_room_start"`
	Hours       int
	Birthday    bool
	Confirmed   bool `gorm:"index"`
	Paid        bool
	SMSCode     string   `gorm:"size:8"`
	FinalPrice  *float64 `gorm:"type:decimal(10,2)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []ExtraItemModel `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

func (BookingModel) TableName() string {
	return "booking"
}

// ExtraItemModel 对应 booking_extra_item 表，随预订级联删除。
// 单价在下单时快照，目录后续调价不影响已有预订。
type ExtraItemModel struct {
	ID        uint   `gorm:"primaryKey"`
	BookingID string `gorm:"size:36;index"`
	ItemID    uint
	Name      string  `gorm:"size:100"`
	Price     float64 `gorm:"type:decimal(10,2)"`
	Quantity  int
}

func (ExtraItemModel) TableName() string {
	return "booking_extra_item"
}
