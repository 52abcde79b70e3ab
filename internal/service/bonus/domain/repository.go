// internal/service/bonus/domain/repository.go
package domain

import "context"

// Repository 定义积分账户与流水的持久化接口。
// 位于领域层，由基础设施层的 GORM 实现。所有方法都感知
// context 中的事务句柄：同一事务内的读写共享行锁。
type Repository interface {
	// GetOrCreateAccount 按 (门店, 手机号) 查找账户，不存在则惰性创建。
	// 唯一约束保证并发创建不会产生重复账户。
	GetOrCreateAccount(ctx context.Context, bathhouseID uint, phone string) (*Account, error)

	// FindAccount 只查不建。
	FindAccount(ctx context.Context, bathhouseID uint, phone string) (*Account, error)

	// FindAccountForUpdate 以 SELECT ... FOR UPDATE 锁定账户行，
	// 支付编排在事务内用它串行化余额变更。
	FindAccountForUpdate(ctx context.Context, bathhouseID uint, phone string) (*Account, error)

	// SaveBalance 持久化余额变更。
	SaveBalance(ctx context.Context, account *Account) error

	// HasAccrualForBooking 判断该预订是否已有 accrual 流水（幂等检查）。
	HasAccrualForBooking(ctx context.Context, bookingID string) (bool, error)

	// AddTransaction 追加一条流水。(booking_id, type) 上的唯一索引
	// 是 accrual 幂等性的最终防线。
	AddTransaction(ctx context.Context, tx *Transaction) error

	// Transactions 返回账户的全部流水，新的在前。
	Transactions(ctx context.Context, accountID uint) ([]Transaction, error)
}
