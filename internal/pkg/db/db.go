// internal/pkg/db/db.go
package db

import (
	"context"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open 建立 MySQL 连接。表结构由迁移脚本维护，这里不做 AutoMigrate。
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

type txKey struct{}

// TxManager 定义了事务边界的抽象。
// 应用层通过它把 "扣减积分+标记已支付+积分累加" 这类操作收进一个原子单元，
// 测试中可以用直通实现替代真实事务。
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormTxManager 是 TxManager 的 GORM 实现。
// 事务句柄通过 context 向下传递，各仓储用 FromContext 取出。
type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// FromContext 返回 ctx 中携带的事务句柄；不在事务中时返回 fallback。
// 仓储的每个方法都应该通过它取 DB，保证同一事务内的操作共享连接和行锁。
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
