// internal/service/booking/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"banya/internal/pkg/db"
	"banya/internal/service/booking/domain"
)

// GormBookingRepository 是 domain.Repository 的 GORM 实现。
// 每个方法通过 db.FromContext 取句柄，支付编排的事务会自动串进来。
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(gdb *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: gdb}
}

func (r *GormBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return db.FromContext(ctx, r.db).Create(toBookingModel(b)).Error
}

func (r *GormBookingRepository) FindByID(ctx context.Context, id string) (*domain.Booking, error) {
	var model BookingModel
	err := db.FromContext(ctx, r.db).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return ToDomainBooking(&model), nil
}

func (r *GormBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	// 只回写状态机涉及的列，加购项在创建后不可变
	return db.FromContext(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ?", b.ID).
		Updates(map[string]interface{}{
			"confirmed": b.Confirmed,
			"paid":      b.Paid,
			"sms_code":  b.SMSCode,
		}).Error
}

func (r *GormBookingRepository) Delete(ctx context.Context, id string) error {
	conn := db.FromContext(ctx, r.db)
	// 级联约束依赖外键，为兼容没有外键的库在这里显式清理
	if err := conn.Where("booking_id = ?", id).Delete(&ExtraItemModel{}).Error; err != nil {
		return err
	}
	return conn.Where("id = ?", id).Delete(&BookingModel{}).Error
}

func (r *GormBookingRepository) FindRoomBookingsFrom(ctx context.Context, roomID uint, from time.Time) ([]domain.Booking, error) {
	var models []BookingModel
	// end = start + hours 小时，用表达式过滤未结束的占用
	err := db.FromContext(ctx, r.db).
		Preload("Items").
		Where("room_id = ? AND DATE_ADD(start_time, INTERVAL hours HOUR) > ?", roomID, from).
		Order("start_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func (r *GormBookingRepository) FindActiveByPhone(ctx context.Context, phone string, now time.Time) ([]domain.Booking, error) {
	var models []BookingModel
	err := db.FromContext(ctx, r.db).
		Where("phone = ? AND DATE_ADD(start_time, INTERVAL hours HOUR) > ?", phone, now).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func (r *GormBookingRepository) FindByPhone(ctx context.Context, phone string) ([]domain.Booking, error) {
	var models []BookingModel
	err := db.FromContext(ctx, r.db).
		Preload("Items").
		Where("phone = ?", phone).
		Order("start_time DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func (r *GormBookingRepository) FindUnconfirmedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	var models []BookingModel
	err := db.FromContext(ctx, r.db).
		Where("confirmed = ? AND created_at < ?", false, deadline).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func (r *GormBookingRepository) FindConfirmedEndedBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	var models []BookingModel
	err := db.FromContext(ctx, r.db).
		Where("confirmed = ? AND DATE_ADD(start_time, INTERVAL hours HOUR) <= ?", true, deadline).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(models), nil
}

func toDomainBookings(models []BookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(models))
	for i := range models {
		out = append(out, *ToDomainBooking(&models[i]))
	}
	return out
}
