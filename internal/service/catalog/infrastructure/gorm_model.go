// internal/service/catalog/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// BathhouseModel 对应 bathhouse 表。
// 促销与积分配置直接平铺为列：字段集合是封闭的，没有动态属性，
// 加载时一次性转换并校验成 pricing.PromoConfig。
type BathhouseModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100"`
	Address   string `gorm:"size:255"`
	Phone     string `gorm:"size:20"`
	Active    bool   `gorm:"default:true"`
	Timezone  string `gorm:"size:64"` // IANA 名称，如 Asia/Almaty
	Is24Hours bool
	// 营业窗口，"15:04" 格式；24 小时门店可为空
	StartOfWork string `gorm:"size:5"`
	EndOfWork   string `gorm:"size:5"`

	HappyHoursEnabled bool
	HappyHoursPercent float64 `gorm:"type:decimal(5,2)"`
	HappyHoursStart   string  `gorm:"size:5"`
	HappyHoursEnd     string  `gorm:"size:5"`
	// 逗号分隔的星期数字（0=Sunday），空串 = 不限
	HappyHoursWeekdays string `gorm:"size:20"`

	BonusHourEnabled  bool
	BonusHourMinHours int
	BonusHourAward    int
	BonusHourWeekdays string `gorm:"size:20"`

	BirthdayEnabled bool
	BirthdayPercent float64 `gorm:"type:decimal(5,2)"`

	AccrualEnabled   bool
	AccrualThreshold float64 `gorm:"type:decimal(10,2)"`
	AccrualBelowPct  float64 `gorm:"type:decimal(5,2)"`
	AccrualAbovePct  float64 `gorm:"type:decimal(5,2)"`
	AccrualFlatPct   float64 `gorm:"type:decimal(5,2)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BathhouseModel) TableName() string {
	return "bathhouse"
}

// RoomModel 对应 room 表。
type RoomModel struct {
	ID           uint `gorm:"primaryKey"`
	BathhouseID  uint `gorm:"index"`
	RoomNumber   string
	Capacity     string
	PricePerHour float64 `gorm:"type:decimal(10,2)"`
	IsAvailable  bool    `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Bathhouse BathhouseModel `gorm:"foreignKey:BathhouseID"`
}

func (RoomModel) TableName() string {
	return "room"
}

// BathhouseItemModel 对应 bathhouse_item 表。
type BathhouseItemModel struct {
	ID          uint    `gorm:"primaryKey"`
	BathhouseID uint    `gorm:"index"`
	Name        string  `gorm:"size:100"`
	Price       float64 `gorm:"type:decimal(10,2)"`
	IsAvailable bool    `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BathhouseItemModel) TableName() string {
	return "bathhouse_item"
}
