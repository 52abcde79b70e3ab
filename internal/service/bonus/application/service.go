// internal/service/bonus/application/service.go
package application

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"banya/internal/pkg/logger"
	"banya/internal/pkg/metrics"
	"banya/internal/service/bonus/domain"
	"banya/internal/service/bonus/port"
)

// BonusService 实现积分台账的所有用例。
type BonusService struct {
	repo   domain.Repository
	lock   port.AccrualLock
	tracer trace.Tracer
}

func NewBonusService(repo domain.Repository, lock port.AccrualLock, tracer trace.Tracer) *BonusService {
	return &BonusService{repo: repo, lock: lock, tracer: tracer}
}

// AccrualRequest 描述一次针对已支付预订的积分累计。
type AccrualRequest struct {
	BookingID   string
	BathhouseID uint
	Phone       string
	FinalPrice  float64
	Policy      domain.AccrualPolicy
}

// Accrue 为一笔预订累计积分。满足以下任一条件时静默跳过（返回 nil）：
// 门店未开启累计、锁定价格 ≤ 0、计算出的百分比 ≤ 0、
// 或该预订已经存在 accrual 流水。对同一预订重复调用是安全的。
func (s *BonusService) Accrue(ctx context.Context, req AccrualRequest) error {
	ctx, span := s.tracer.Start(ctx, "bonus.Accrue")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.id", req.BookingID),
		attribute.String("customer.phone", req.Phone),
	)

	amount := req.Policy.AccrualAmount(req.FinalPrice)
	if amount <= 0 {
		span.AddEvent("Accrual skipped: policy yields nothing for this booking.")
		return nil
	}

	// 并发防线一：redis 互斥锁。两个并发的 sweep / 支付回调
	// 不会同时进入检查-写入的临界区。
	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx, req.BookingID)
		if err != nil {
			return errors.Wrap(err, "failed to acquire accrual lock")
		}
		if !acquired {
			logger.Ctx(ctx).Info().
				Str("booking_id", req.BookingID).
				Msg("Accrual already in progress for booking, skipping.")
			return nil
		}
		defer func() {
			if err := s.lock.Release(ctx, req.BookingID); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("Failed to release accrual lock.")
			}
		}()
	}

	// 幂等检查：每笔预订最多一条 accrual 流水
	exists, err := s.repo.HasAccrualForBooking(ctx, req.BookingID)
	if err != nil {
		return errors.Wrap(err, "failed to check existing accrual")
	}
	if exists {
		span.AddEvent("Accrual skipped: transaction already exists for booking.")
		return nil
	}

	account, err := s.repo.GetOrCreateAccount(ctx, req.BathhouseID, req.Phone)
	if err != nil {
		return errors.Wrap(err, "failed to get or create bonus account")
	}

	account.Accrue(amount)
	if err := s.repo.SaveBalance(ctx, account); err != nil {
		return errors.Wrap(err, "failed to save accrued balance")
	}

	bookingID := req.BookingID
	// 并发防线二：(booking_id, type) 唯一索引。插入冲突说明另一个
	// 调用抢先落账，整个事务回滚，余额不会被重复加。
	if err := s.repo.AddTransaction(ctx, &domain.Transaction{
		AccountID: account.ID,
		Type:      domain.TxAccrual,
		Amount:    amount,
		BookingID: &bookingID,
	}); err != nil {
		return errors.Wrap(err, "failed to insert accrual transaction")
	}

	metrics.BonusAccrued.Inc()
	logger.Ctx(ctx).Info().
		Str("booking_id", req.BookingID).
		Float64("amount", amount).
		Float64("balance", account.Balance).
		Msg("✅ Bonus accrued.")
	return nil
}

// RedeemRequest 描述一次积分抵扣，由支付编排在事务内调用。
type RedeemRequest struct {
	BathhouseID uint
	Phone       string
	Amount      float64
	BookingID   string
	Price       float64
}

// Redeem 扣减余额并写入 redemption 流水。必须在外层事务内调用：
// 账户行已被 FOR UPDATE 锁定，余额校验到落账之间不存在窗口。
func (s *BonusService) Redeem(ctx context.Context, req RedeemRequest) (*domain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "bonus.Redeem")
	defer span.End()

	account, err := s.repo.FindAccountForUpdate(ctx, req.BathhouseID, req.Phone)
	if err != nil {
		return nil, err
	}

	if err := account.Redeem(req.Amount, req.Price); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.repo.SaveBalance(ctx, account); err != nil {
		return nil, errors.Wrap(err, "failed to save redeemed balance")
	}

	bookingID := req.BookingID
	if err := s.repo.AddTransaction(ctx, &domain.Transaction{
		AccountID: account.ID,
		Type:      domain.TxRedemption,
		Amount:    req.Amount,
		BookingID: &bookingID,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to insert redemption transaction")
	}

	metrics.BonusRedeemed.Inc()
	return account, nil
}

// Balance 返回账户余额；账户不存在时视为 0（懒创建语义）。
func (s *BonusService) Balance(ctx context.Context, bathhouseID uint, phone string) (float64, error) {
	account, err := s.repo.FindAccount(ctx, bathhouseID, phone)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// Transactions 返回账户全部流水。
func (s *BonusService) Transactions(ctx context.Context, bathhouseID uint, phone string) ([]domain.Transaction, error) {
	account, err := s.repo.FindAccount(ctx, bathhouseID, phone)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.repo.Transactions(ctx, account.ID)
}
