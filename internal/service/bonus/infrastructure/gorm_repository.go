// internal/service/bonus/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"banya/internal/pkg/db"
	"banya/internal/service/bonus/domain"
)

// GormBonusRepository 是 domain.Repository 的 GORM 实现。
// 每个方法通过 db.FromContext 取句柄：若 ctx 内携带事务，
// 读写自动落在同一事务内。
type GormBonusRepository struct {
	db *gorm.DB
}

func NewGormBonusRepository(gdb *gorm.DB) *GormBonusRepository {
	return &GormBonusRepository{db: gdb}
}

func (r *GormBonusRepository) GetOrCreateAccount(ctx context.Context, bathhouseID uint, phone string) (*domain.Account, error) {
	conn := db.FromContext(ctx, r.db)

	var model BonusAccountModel
	err := conn.Where("bathhouse_id = ? AND phone = ?", bathhouseID, phone).First(&model).Error
	if err == nil {
		return ToDomainAccount(&model), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 惰性创建。并发时另一个请求可能抢先插入，唯一索引会报冲突，
	// 此时重读即可。
	model = BonusAccountModel{BathhouseID: bathhouseID, Phone: phone, Balance: 0}
	if err := conn.Create(&model).Error; err != nil {
		var existing BonusAccountModel
		if ferr := conn.Where("bathhouse_id = ? AND phone = ?", bathhouseID, phone).First(&existing).Error; ferr == nil {
			return ToDomainAccount(&existing), nil
		}
		return nil, err
	}
	return ToDomainAccount(&model), nil
}

func (r *GormBonusRepository) FindAccount(ctx context.Context, bathhouseID uint, phone string) (*domain.Account, error) {
	var model BonusAccountModel
	err := db.FromContext(ctx, r.db).
		Where("bathhouse_id = ? AND phone = ?", bathhouseID, phone).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return ToDomainAccount(&model), nil
}

func (r *GormBonusRepository) FindAccountForUpdate(ctx context.Context, bathhouseID uint, phone string) (*domain.Account, error) {
	var model BonusAccountModel
	err := db.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("bathhouse_id = ? AND phone = ?", bathhouseID, phone).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return ToDomainAccount(&model), nil
}

func (r *GormBonusRepository) SaveBalance(ctx context.Context, account *domain.Account) error {
	return db.FromContext(ctx, r.db).
		Model(&BonusAccountModel{}).
		Where("id = ?", account.ID).
		Update("balance", account.Balance).Error
}

func (r *GormBonusRepository) HasAccrualForBooking(ctx context.Context, bookingID string) (bool, error) {
	var count int64
	err := db.FromContext(ctx, r.db).
		Model(&BonusTransactionModel{}).
		Where("booking_id = ? AND type = ?", bookingID, string(domain.TxAccrual)).
		Count(&count).Error
	return count > 0, err
}

func (r *GormBonusRepository) AddTransaction(ctx context.Context, tx *domain.Transaction) error {
	model := toTransactionModel(tx)
	if err := db.FromContext(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	tx.ID = model.ID
	return nil
}

func (r *GormBonusRepository) Transactions(ctx context.Context, accountID uint) ([]domain.Transaction, error) {
	var models []BonusTransactionModel
	err := db.FromContext(ctx, r.db).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(models))
	for i := range models {
		out = append(out, ToDomainTransaction(&models[i]))
	}
	return out, nil
}
