// internal/service/booking/domain/booking.go
package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"banya/internal/service/pricing"
)

// Booking 是预订聚合的根实体。
//
// 生命周期：pending（已创建未确认）→ confirmed（短信码验证或管理员确认）
// → paid（支付编排完成）。pending 状态下超时或主动取消会直接删除记录，
// paid 与删除是终态。
type Booking struct {
	ID          string
	BathhouseID uint
	RoomID      uint
	Name        string
	Phone       string
	Start       time.Time
	Hours       int
	Birthday    bool

	Confirmed bool
	Paid      bool
	SMSCode   string

	// FinalPrice 在创建时锁定，之后永不重算——即使促销配置变更。
	FinalPrice *float64
	// Promos 仅用于创建响应的展示，不持久化为台账记录。
	Promos []pricing.AppliedPromotion

	Items     []ExtraItem
	CreatedAt time.Time
}

// ExtraItem 是预订附带的一条加购项，随预订级联删除。
type ExtraItem struct {
	ID       uint
	ItemID   uint
	Name     string
	Price    float64
	Quantity int
}

// End 返回占用区间的结束时刻（半开区间 [Start, End)）。
func (b *Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.Hours) * time.Hour)
}

// ConfirmWithCode 用客户提供的短信码确认预订。
// 码不匹配返回错误且不产生任何变更；重复确认是无害的空操作。
func (b *Booking) ConfirmWithCode(code string) error {
	if b.Confirmed {
		return nil
	}
	if code == "" || code != b.SMSCode {
		return ErrWrongCode
	}
	b.Confirmed = true
	return nil
}

// ConfirmByAdmin 管理员免码确认。
func (b *Booking) ConfirmByAdmin() {
	b.Confirmed = true
}

// BeginCancellation 为取消流程重新生成并存储一个一次性码。
// 只有已确认的预订才能走取消流程；未确认的会被超时机制清理。
func (b *Booking) BeginCancellation(code string) error {
	if !b.Confirmed {
		return ErrNotConfirmed
	}
	if b.Paid {
		return ErrAlreadyPaid
	}
	b.SMSCode = code
	return nil
}

// VerifyCancellation 校验取消码。匹配后由调用方删除预订。
func (b *Booking) VerifyCancellation(code string) error {
	if code == "" || code != b.SMSCode {
		return ErrWrongCode
	}
	return nil
}

// MarkPaid 将预订置为已支付。只有已确认且未支付的预订可以支付。
func (b *Booking) MarkPaid() error {
	if !b.Confirmed {
		return ErrNotConfirmed
	}
	if b.Paid {
		return ErrAlreadyPaid
	}
	b.Paid = true
	return nil
}

// ExpiredAt 判断在 now 时刻、给定确认超时时间下，预订是否应被清理。
// 已确认的预订永不过期。
func (b *Booking) ExpiredAt(now time.Time, timeout time.Duration) bool {
	return !b.Confirmed && now.After(b.CreatedAt.Add(timeout))
}

// GenerateCode 生成 4 位数字确认码。
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// crypto/rand 在正常环境不会失败；兜底用时间熵
		return fmt.Sprintf("%04d", time.Now().UnixNano()%10000)
	}
	return fmt.Sprintf("%04d", n.Int64())
}
