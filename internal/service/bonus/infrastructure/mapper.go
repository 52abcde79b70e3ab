// internal/service/bonus/infrastructure/mapper.go
package infrastructure

import (
	"banya/internal/service/bonus/domain"
)

// ToDomainAccount 将数据库模型转换为领域模型。
func ToDomainAccount(m *BonusAccountModel) *domain.Account {
	return &domain.Account{
		ID:          m.ID,
		BathhouseID: m.BathhouseID,
		Phone:       m.Phone,
		Balance:     m.Balance,
		CreatedAt:   m.CreatedAt,
	}
}

func ToDomainTransaction(m *BonusTransactionModel) domain.Transaction {
	return domain.Transaction{
		ID:        m.ID,
		AccountID: m.AccountID,
		Type:      domain.TransactionType(m.Type),
		Amount:    m.Amount,
		BookingID: m.BookingID,
		CreatedAt: m.CreatedAt,
	}
}

func toTransactionModel(t *domain.Transaction) *BonusTransactionModel {
	return &BonusTransactionModel{
		AccountID: t.AccountID,
		Type:      string(t.Type),
		Amount:    t.Amount,
		BookingID: t.BookingID,
	}
}
