// internal/service/bonus/domain/account.go
package domain

import (
	"time"

	"banya/internal/service/pricing"
)

// Account 是 (门店, 客户手机号) 维度的积分账户。
// 余额只在事务内、伴随一条对应的 Transaction 记录一起变动，
// 对外部观察者而言恒有 balance == Σ accruals − Σ redemptions。
type Account struct {
	ID          uint
	BathhouseID uint
	Phone       string
	Balance     float64
	CreatedAt   time.Time
}

// TransactionType 标识流水类型。
type TransactionType string

const (
	TxAccrual    TransactionType = "accrual"
	TxRedemption TransactionType = "redemption"
)

// Transaction 是一条不可变的积分流水。只追加，永不更新或删除。
type Transaction struct {
	ID        uint
	AccountID uint
	Type      TransactionType
	Amount    float64
	BookingID *string // 产生这条流水的预订；手工调整时为空
	CreatedAt time.Time
}

// Accrue 在账户上累加积分。金额由 AccrualPolicy 计算，调用方保证为正。
func (a *Account) Accrue(amount float64) {
	a.Balance = pricing.Round2(a.Balance + amount)
}

// Redeem 校验并扣减余额。price 为本次预订的锁定价格，
// 抵扣金额不能超过余额，也不能超过预订价格本身。
func (a *Account) Redeem(amount, price float64) error {
	if amount < 0 {
		return ErrNegativeAmount
	}
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	if amount > price {
		return ErrRedemptionExceedsPrice
	}
	a.Balance = pricing.Round2(a.Balance - amount)
	return nil
}

// AccrualPolicy 是门店的积分累计配置：阶梯百分比，
// 低于门槛金额用低档利率，达到门槛用高档；两档都为 0 时退回平坦单一比例。
type AccrualPolicy struct {
	Enabled   bool
	Threshold float64
	BelowPct  float64
	AbovePct  float64
	FlatPct   float64
}

// Percent 返回对给定预订价格适用的累计百分比。
func (p AccrualPolicy) Percent(price float64) float64 {
	if p.BelowPct == 0 && p.AbovePct == 0 {
		return p.FlatPct
	}
	if price >= p.Threshold {
		return p.AbovePct
	}
	return p.BelowPct
}

// AccrualAmount 计算一笔预订应累计的积分金额；不适用时返回 0。
func (p AccrualPolicy) AccrualAmount(price float64) float64 {
	if !p.Enabled || price <= 0 {
		return 0
	}
	pct := p.Percent(price)
	if pct <= 0 {
		return 0
	}
	return pricing.Round2(price * pct / 100)
}
