// internal/service/booking/application/payment.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"banya/internal/pkg/logger"
	"banya/internal/pkg/metrics"
	bonusapp "banya/internal/service/bonus/application"
	bonusdomain "banya/internal/service/bonus/domain"
	"banya/internal/service/booking/domain"
	"banya/internal/service/pricing"
)

// Pay 执行支付编排：可选的积分抵扣、标记已支付、按门店策略累计积分。
// 三步收在同一个数据库事务里——任何一步失败整体回滚，
// 不会出现"积分扣了但预订没支付"的中间态。
func (s *BookingService) Pay(ctx context.Context, req *PayBookingRequest) (*PayBookingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Pay")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", req.BookingID),
		attribute.Float64("redeem.amount", req.RedeemBonus),
	)

	if req.RedeemBonus < 0 {
		return nil, bonusdomain.ErrNegativeAmount
	}

	var paid *domain.Booking
	var redeemed float64

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.repo.FindByID(ctx, req.BookingID)
		if err != nil {
			return err
		}
		// 归属校验：门店或手机号对不上时不泄露预订是否存在
		if booking.BathhouseID != req.BathhouseID || booking.Phone != req.Phone {
			return domain.ErrBookingNotFound
		}

		price := 0.0
		if booking.FinalPrice != nil {
			price = *booking.FinalPrice
		}

		// 1. 积分抵扣。Redeem 内部用 FOR UPDATE 锁定账户行，
		//    余额校验到落账之间不存在并发窗口
		if req.RedeemBonus > 0 {
			if _, err := s.bonus.Redeem(ctx, bonusapp.RedeemRequest{
				BathhouseID: booking.BathhouseID,
				Phone:       booking.Phone,
				Amount:      req.RedeemBonus,
				BookingID:   booking.ID,
				Price:       price,
			}); err != nil {
				return err
			}
			redeemed = req.RedeemBonus
		}

		// 2. 状态机迁移：只有已确认且未支付的预订能走到这里
		if err := booking.MarkPaid(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, booking); err != nil {
			return errors.Wrap(err, "failed to mark booking as paid")
		}

		// 3. 按门店策略累计积分。累计基数是锁定价，不扣减抵扣部分
		bathhouse, err := s.catalogRepo.FindBathhouse(ctx, booking.BathhouseID)
		if err != nil {
			return err
		}
		if err := s.bonus.Accrue(ctx, bonusapp.AccrualRequest{
			BookingID:   booking.ID,
			BathhouseID: booking.BathhouseID,
			Phone:       booking.Phone,
			FinalPrice:  price,
			Policy:      bathhouse.Accrue,
		}); err != nil {
			return errors.Wrap(err, "failed to accrue bonus")
		}

		paid = booking
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Payment orchestration failed")
		return nil, err
	}

	metrics.BookingsPaid.Inc()
	s.publish(ctx, domain.EventBookingPaid, paid)

	price := 0.0
	if paid.FinalPrice != nil {
		price = *paid.FinalPrice
	}
	balance, err := s.bonus.Balance(ctx, paid.BathhouseID, paid.Phone)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("booking_id", paid.ID).
			Msg("Failed to read bonus balance after payment.")
	}

	logger.Ctx(ctx).Info().
		Str("booking_id", paid.ID).
		Float64("final_price", price).
		Float64("bonus_applied", redeemed).
		Msg("✅ Booking paid.")

	return &PayBookingResponse{
		BookingID:    paid.ID,
		Paid:         true,
		FinalPrice:   price,
		BonusApplied: redeemed,
		AmountDue:    pricing.Round2(price - redeemed),
		BonusBalance: balance,
	}, nil
}
