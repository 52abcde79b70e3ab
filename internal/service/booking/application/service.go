// internal/service/booking/application/service.go
package application

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"banya/internal/pkg/db"
	"banya/internal/pkg/logger"
	"banya/internal/pkg/metrics"
	bonusapp "banya/internal/service/bonus/application"
	"banya/internal/service/booking/domain"
	"banya/internal/service/booking/port"
	catalog "banya/internal/service/catalog/domain"
	"banya/internal/service/pricing"
)

var (
	ErrInvalidName  = errors.New("Name must not be empty")
	ErrInvalidPhone = errors.New("Phone number is invalid")
)

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

// BookingService 只关注预订生命周期的业务流程编排。
// 定价、目录、积分都是它的协作方，持久化细节藏在仓储后面。
type BookingService struct {
	repo        domain.Repository
	catalogRepo catalog.Repository
	bonus       *bonusapp.BonusService
	txManager   db.TxManager
	tracer      trace.Tracer

	scheduler port.DelayScheduler
	producer  port.EventProducer
	sms       port.SMSSender

	confirmationTimeout time.Duration
	maxDaysAhead        int
	now                 func() time.Time
}

func NewBookingService(
	repo domain.Repository,
	catalogRepo catalog.Repository,
	bonus *bonusapp.BonusService,
	txManager db.TxManager,
	tracer trace.Tracer,
	scheduler port.DelayScheduler,
	producer port.EventProducer,
	sms port.SMSSender,
	confirmationTimeout time.Duration,
	maxDaysAhead int,
) *BookingService {
	return &BookingService{
		repo: repo, catalogRepo: catalogRepo, bonus: bonus,
		txManager: txManager, tracer: tracer,
		scheduler: scheduler, producer: producer, sms: sms,
		confirmationTimeout: confirmationTimeout,
		maxDaysAhead:        maxDaysAhead,
		now:                 time.Now,
	}
}

// Create 创建一条待确认的预订：校验可订性、锁定价格、
// 发送确认码并安排超时检查任务。
func (s *BookingService) Create(ctx context.Context, req *CreateBookingRequest) (*CreateBookingResponse, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create")
	defer span.End()

	// 1. 基础字段校验
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" {
		return nil, ErrInvalidName
	}
	if !phonePattern.MatchString(req.Phone) {
		return nil, ErrInvalidPhone
	}

	// 2. 目录查询：房间、门店、加购项
	room, bathhouse, err := s.catalogRepo.FindRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAvailable || !bathhouse.Active {
		return nil, catalog.ErrRoomNotFound
	}

	lineItems, extraItems, err := s.resolveItems(ctx, bathhouse.ID, req.Items)
	if err != nil {
		return nil, err
	}

	// 3. 可订性检查。既有占用和同号活跃单由仓储预查，检查本身是纯函数
	now := s.now()
	existing, err := s.repo.FindRoomBookingsFrom(ctx, room.ID, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load room bookings")
	}
	active, err := s.repo.FindActiveByPhone(ctx, req.Phone, now)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load active bookings")
	}
	if err := domain.CheckAvailability(now, s.maxDaysAhead, domain.SlotRequest{
		Bathhouse: bathhouse,
		RoomID:    room.ID,
		Phone:     req.Phone,
		Start:     req.Start,
		Hours:     req.Hours,
	}, existing, active); err != nil {
		span.RecordError(err)
		return nil, err
	}

	// 4. 价格在创建时计算并锁定，促销配置之后的变更不影响这笔预订
	quote := pricing.Calculate(pricing.Input{
		RatePerHour: room.PricePerHour,
		Hours:       req.Hours,
		Items:       lineItems,
		Birthday:    req.Birthday,
		Start:       req.Start,
		Location:    bathhouse.Location,
		Config:      bathhouse.Promo,
	})

	booking := &domain.Booking{
		ID:          uuid.New().String(),
		BathhouseID: bathhouse.ID,
		RoomID:      room.ID,
		Name:        req.Name,
		Phone:       req.Phone,
		Start:       req.Start,
		Hours:       req.Hours,
		Birthday:    req.Birthday,
		SMSCode:     domain.GenerateCode(),
		FinalPrice:  &quote.Total,
		Promos:      quote.Applied,
		Items:       extraItems,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist booking")
		return nil, errors.Wrap(err, "failed to persist booking")
	}
	metrics.BookingsCreated.Inc()
	span.SetAttributes(
		attribute.String("booking.id", booking.ID),
		attribute.Float64("booking.final_price", quote.Total),
	)

	// 5. 确认码与超时检查。两者都不阻断创建：
	//    短信失败时客户可走管理员确认，调度失败由兜底清扫补位
	if err := s.sms.SendCode(ctx, booking.Phone, booking.SMSCode); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("🛑 Failed to deliver confirmation code.")
	}
	if err := s.scheduler.ScheduleExpiryCheck(ctx, booking.ID, booking.CreatedAt); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("🛑 Failed to schedule expiry check, sweep will pick it up.")
	}

	s.publish(ctx, domain.EventBookingCreated, booking)

	logger.Ctx(ctx).Info().
		Str("booking_id", booking.ID).
		Uint("room_id", room.ID).
		Float64("final_price", quote.Total).
		Msg("✅ Booking created, waiting for confirmation.")

	return &CreateBookingResponse{
		BookingID:  booking.ID,
		FinalPrice: quote.Total,
		Promotions: quote.Applied,
		Message:    "Booking created. Confirm it with the code we sent you.",
	}, nil
}

// ConfirmBySMS 用客户回填的确认码确认预订。
func (s *BookingService) ConfirmBySMS(ctx context.Context, bookingID, code string) error {
	ctx, span := s.tracer.Start(ctx, "booking.ConfirmBySMS")
	defer span.End()

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := booking.ConfirmWithCode(code); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Update(ctx, booking); err != nil {
		return errors.Wrap(err, "failed to save confirmed booking")
	}

	metrics.BookingsConfirmed.WithLabelValues("sms").Inc()
	s.publish(ctx, domain.EventBookingConfirmed, booking)
	logger.Ctx(ctx).Info().Str("booking_id", booking.ID).Msg("✅ Booking confirmed via SMS code.")
	return nil
}

// ConfirmByAdmin 管理员免码确认，用于短信不可达的场景。
func (s *BookingService) ConfirmByAdmin(ctx context.Context, bookingID string) error {
	ctx, span := s.tracer.Start(ctx, "booking.ConfirmByAdmin")
	defer span.End()

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	booking.ConfirmByAdmin()
	if err := s.repo.Update(ctx, booking); err != nil {
		return errors.Wrap(err, "failed to save confirmed booking")
	}

	metrics.BookingsConfirmed.WithLabelValues("admin").Inc()
	s.publish(ctx, domain.EventBookingConfirmed, booking)
	logger.Ctx(ctx).Info().Str("booking_id", booking.ID).Msg("✅ Booking confirmed by admin.")
	return nil
}

// RequestCancellation 为已确认的预订开启取消流程：
// 轮换一次性码并重新发送，旧码随即失效。
func (s *BookingService) RequestCancellation(ctx context.Context, bookingID string) error {
	ctx, span := s.tracer.Start(ctx, "booking.RequestCancellation")
	defer span.End()

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := booking.BeginCancellation(domain.GenerateCode()); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Update(ctx, booking); err != nil {
		return errors.Wrap(err, "failed to rotate cancellation code")
	}
	if err := s.sms.SendCode(ctx, booking.Phone, booking.SMSCode); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("booking_id", booking.ID).
			Msg("🛑 Failed to deliver cancellation code.")
	}
	return nil
}

// ConfirmCancellation 校验取消码并删除预订。
func (s *BookingService) ConfirmCancellation(ctx context.Context, bookingID, code string) error {
	ctx, span := s.tracer.Start(ctx, "booking.ConfirmCancellation")
	defer span.End()

	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := booking.VerifyCancellation(code); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Delete(ctx, booking.ID); err != nil {
		return errors.Wrap(err, "failed to delete cancelled booking")
	}

	metrics.BookingsCancelled.Inc()
	s.publish(ctx, domain.EventBookingCancelled, booking)
	logger.Ctx(ctx).Info().Str("booking_id", booking.ID).Msg("✅ Booking cancelled by customer.")
	return nil
}

// ProcessExpiryCheck 处理延迟调度器投回的到期检查任务。
// 预订已确认或已不存在时是无害的空操作。
func (s *BookingService) ProcessExpiryCheck(ctx context.Context, event *domain.ExpiryCheckEvent) error {
	ctx, span := s.tracer.Start(ctx, "booking.ProcessExpiryCheck", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(attribute.String("booking.id", event.BookingID))

	booking, err := s.repo.FindByID(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			span.AddEvent("Booking already gone, nothing to expire.")
			return nil
		}
		return err
	}
	if !booking.ExpiredAt(s.now(), s.confirmationTimeout) {
		span.AddEvent("Booking confirmed in time, expiry check is a no-op.")
		return nil
	}

	if err := s.repo.Delete(ctx, booking.ID); err != nil {
		return errors.Wrap(err, "failed to delete expired booking")
	}
	metrics.BookingsExpired.WithLabelValues("timer").Inc()
	s.publish(ctx, domain.EventBookingExpired, booking)
	logger.Ctx(ctx).Warn().
		Str("booking_id", booking.ID).
		Msg("🛑 Booking was not confirmed in time and has been removed.")
	return nil
}

// CleanExpiredBookings 是兜底清扫：删除所有超时仍未确认的预订。
// 单条失败只记日志不中断，下一轮清扫会重试。返回本轮删除的数量。
func (s *BookingService) CleanExpiredBookings(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "booking.CleanExpiredBookings")
	defer span.End()

	deadline := s.now().Add(-s.confirmationTimeout)
	stale, err := s.repo.FindUnconfirmedBefore(ctx, deadline)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list stale bookings")
	}

	removed := 0
	for i := range stale {
		booking := &stale[i]
		if err := s.repo.Delete(ctx, booking.ID); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("booking_id", booking.ID).
				Msg("🛑 Sweep failed to delete stale booking, will retry next round.")
			continue
		}
		removed++
		metrics.BookingsExpired.WithLabelValues("sweep").Inc()
		s.publish(ctx, domain.EventBookingExpired, booking)
	}
	if removed > 0 {
		logger.Ctx(ctx).Info().Int("removed", removed).Msg("Sweep removed stale bookings.")
	}
	return removed, nil
}

// AccrueFinishedBookings 为已确认、已结束的预订补累计积分。
// 线下结账的预订不经过支付编排，积分在这里入账；Accrue 自身幂等，
// 已累计过的预订会被静默跳过。单条失败只记日志不中断，下一轮重试。
// 返回本轮成功处理的数量。
func (s *BookingService) AccrueFinishedBookings(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "booking.AccrueFinishedBookings")
	defer span.End()

	finished, err := s.repo.FindConfirmedEndedBefore(ctx, s.now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to list finished bookings")
	}

	processed := 0
	for i := range finished {
		booking := &finished[i]
		bathhouse, err := s.catalogRepo.FindBathhouse(ctx, booking.BathhouseID)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("booking_id", booking.ID).
				Msg("🛑 Sweep could not load bathhouse for accrual, will retry next round.")
			continue
		}
		price := 0.0
		if booking.FinalPrice != nil {
			price = *booking.FinalPrice
		}
		if err := s.bonus.Accrue(ctx, bonusapp.AccrualRequest{
			BookingID:   booking.ID,
			BathhouseID: booking.BathhouseID,
			Phone:       booking.Phone,
			FinalPrice:  price,
			Policy:      bathhouse.Accrue,
		}); err != nil {
			logger.Ctx(ctx).Error().Err(err).
				Str("booking_id", booking.ID).
				Msg("🛑 Sweep failed to accrue bonus for finished booking, will retry next round.")
			continue
		}
		processed++
	}
	if processed > 0 {
		logger.Ctx(ctx).Info().Int("processed", processed).Msg("Sweep accrued bonuses for finished bookings.")
	}
	return processed, nil
}

// RoomBookings 返回房间从 from 起的占用，供前台展示空闲时段。
func (s *BookingService) RoomBookings(ctx context.Context, roomID uint, from time.Time) ([]BookingView, error) {
	bookings, err := s.repo.FindRoomBookingsFrom(ctx, roomID, from)
	if err != nil {
		return nil, err
	}
	views := make([]BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, toBookingView(&bookings[i]))
	}
	return views, nil
}

// MyBookings 返回手机号名下的全部预订。
func (s *BookingService) MyBookings(ctx context.Context, phone string) ([]BookingView, error) {
	bookings, err := s.repo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	views := make([]BookingView, 0, len(bookings))
	for i := range bookings {
		views = append(views, toBookingView(&bookings[i]))
	}
	return views, nil
}

// resolveItems 校验加购项归属并展开为定价行与持久化行。
func (s *BookingService) resolveItems(ctx context.Context, bathhouseID uint, requested []RequestedItem) ([]pricing.LineItem, []domain.ExtraItem, error) {
	if len(requested) == 0 {
		return nil, nil, nil
	}
	ids := make([]uint, 0, len(requested))
	for _, r := range requested {
		ids = append(ids, r.ItemID)
	}
	items, err := s.catalogRepo.FindItems(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[uint]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	var lines []pricing.LineItem
	var extras []domain.ExtraItem
	for _, r := range requested {
		item, ok := byID[r.ItemID]
		if !ok || !item.IsAvailable || item.BathhouseID != bathhouseID {
			return nil, nil, domain.ErrItemNotAvailable
		}
		qty := r.Quantity
		if qty < 1 {
			qty = 1
		}
		lines = append(lines, pricing.LineItem{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  qty,
		})
		extras = append(extras, domain.ExtraItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: qty,
		})
	}
	return lines, extras, nil
}

// publish 广播生命周期事件。事件流是旁路，失败只记日志。
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil {
		return
	}
	event := &domain.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		BathhouseID: b.BathhouseID,
		RoomID:      b.RoomID,
		Name:        b.Name,
		Phone:       b.Phone,
		Start:       b.Start,
		Hours:       b.Hours,
		FinalPrice:  b.FinalPrice,
		At:          s.now(),
	}
	if err := s.producer.PublishBookingEvent(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("booking_id", b.ID).
			Str("event_type", eventType).
			Msg("Failed to publish booking event.")
	}
}
