// internal/service/bonus/infrastructure/gorm_model.go
package infrastructure

import (
	"time"
)

// BonusAccountModel 对应数据库中的 bonus_account 表。
// (bathhouse_id, phone) 上的唯一索引保证同一客户在同一门店只有一个账户。
type BonusAccountModel struct {
	ID          uint    `gorm:"primaryKey"`
	BathhouseID uint    `gorm:"uniqueIndex:uniq_bathhouse_phone"`
	Phone       string  `gorm:"size:20;uniqueIndex:uniq_bathhouse_phone"`
	Balance     float64 `gorm:"type:decimal(10,2);default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BonusAccountModel) TableName() string {
	return "bonus_account"
}

// BonusTransactionModel 对应 bonus_transaction 表。只插入，永不更新。
// (booking_id, type) 上的唯一索引把 "每笔预订最多一条 accrual"
// 的不变式下沉到存储层，堵住 check-then-insert 的竞态。
// MySQL 允许唯一索引中的多个 NULL，手工调整流水不受影响。
type BonusTransactionModel struct {
	ID        uint    `gorm:"primaryKey"`
	AccountID uint    `gorm:"index"`
	Type      string  `gorm:"size:12;uniqueIndex:uniq_booking_type"`
	Amount    float64 `gorm:"type:decimal(10,2)"`
	BookingID *string `gorm:"size:36;uniqueIndex:uniq_booking_type"`
	CreatedAt time.Time
}

func (BonusTransactionModel) TableName() string {
	return "bonus_transaction"
}
