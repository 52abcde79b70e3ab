// internal/service/catalog/domain/catalog.go
package domain

import (
	"time"

	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/pricing"
)

// Bathhouse 是一家门店：自有房间、商品目录和促销配置。
// 对预订核心而言是只读输入，由管理后台维护。
type Bathhouse struct {
	ID      uint
	Name    string
	Address string
	Phone   string
	Active  bool

	Is24Hours   bool
	StartOfWork pricing.TimeOfDay
	EndOfWork   pricing.TimeOfDay
	Location    *time.Location // 门店本地时区

	Promo  pricing.PromoConfig
	Accrue bonusdomain.AccrualPolicy
}

// FitsWorkWindow 判断从 start（门店本地时间的当日分钟数）起连续
// hours 小时的占用是否完整落在一段营业窗口内。只看区间两端是不够的：
// 足够长的区间可以两端都在窗口里、中间却穿过打烊时段。
// end_of_work ≤ start_of_work 表示跨午夜营业，窗口长度按模 24h 计算；
// 两者相等视为全天营业。
func (b *Bathhouse) FitsWorkWindow(start pricing.TimeOfDay, hours int) bool {
	if b.Is24Hours {
		return true
	}
	const day = 24 * 60
	windowLen := (int(b.EndOfWork) - int(b.StartOfWork) + day) % day
	if windowLen == 0 {
		return true
	}
	offset := (int(start) - int(b.StartOfWork) + day) % day
	return offset+hours*60 <= windowLen
}

// Room 是门店内可出租的单元。
type Room struct {
	ID           uint
	BathhouseID  uint
	RoomNumber   string
	Capacity     string
	PricePerHour float64
	IsAvailable  bool
}

// Item 是门店目录中的加购商品。
type Item struct {
	ID          uint
	BathhouseID uint
	Name        string
	Price       float64
	IsAvailable bool
}
