// cmd/booking-service/main.go
package main

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"

	"banya/internal/pkg/bootstrap"
	"banya/internal/pkg/db"
	"banya/internal/pkg/httpclient"
	"banya/internal/pkg/logger"
	"banya/internal/pkg/mq"
	"banya/internal/pkg/redis"
	bonusapp "banya/internal/service/bonus/application"
	bonusinfra "banya/internal/service/bonus/infrastructure"
	bonusadapter "banya/internal/service/bonus/infrastructure/adapter"
	"banya/internal/service/booking/application"
	"banya/internal/service/booking/infrastructure"
	"banya/internal/service/booking/infrastructure/adapter"
	"banya/internal/service/booking/interfaces"
	cataloginfra "banya/internal/service/catalog/infrastructure"
)

const (
	serviceName      = "booking-service"
	servicePort      = 8080
	expiryCheckTopic = "booking-expiry-check-topic"
	consumerGroupID  = "booking-service-group"
)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	// 1. 基础设施：MySQL、Redis
	gdb, err := db.Open(cfg.Infra.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	tracer := otel.Tracer(serviceName)

	// 2. 积分服务
	accrualLock, err := bonusadapter.NewAccrualLockRedisAdapter(redisClient)
	if err != nil {
		log.Fatalf("failed to load accrual lock scripts: %v", err)
	}
	bonusRepo := bonusinfra.NewGormBonusRepository(gdb)
	bonusSvc := bonusapp.NewBonusService(bonusRepo, accrualLock, tracer)

	// 3. 预订服务：仓储、出站适配器、应用服务
	bookingRepo := infrastructure.NewGormBookingRepository(gdb)
	catalogRepo := cataloginfra.NewGormCatalogRepository(gdb)
	txManager := db.NewGormTxManager(gdb)

	confirmationTimeout := time.Duration(cfg.Booking.ConfirmationTimeoutMinutes) * time.Minute

	scheduler := adapter.NewSchedulerKafkaAdapter(cfg.Infra.Kafka.Brokers, confirmationTimeout)
	defer scheduler.Close()
	producer := adapter.NewEventsKafkaAdapter(cfg.Infra.Kafka.Brokers)
	defer producer.Close()
	sms := adapter.NewSMSHTTPAdapter(
		httpclient.NewClient(tracer),
		cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.Sender,
	)

	bookingSvc := application.NewBookingService(
		bookingRepo, catalogRepo, bonusSvc, txManager, tracer,
		scheduler, producer, sms,
		confirmationTimeout,
		cfg.Booking.MaxDaysAhead,
	)

	// 4. 入站适配器：到期检查消费者 + 兜底清扫 ticker
	expiryReader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, expiryCheckTopic, consumerGroupID)
	expiryConsumer := interfaces.NewExpiryConsumerAdapter(expiryReader, bookingSvc)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweep(sweepCtx, bookingSvc, time.Duration(cfg.Booking.SweepIntervalSeconds)*time.Second)

	if err := expiryConsumer.Start(context.Background()); err != nil {
		log.Fatalf("failed to start expiry consumer: %v", err)
	}

	// 5. HTTP 接口与优雅关停
	handler := interfaces.NewBookingHandler(bookingSvc, bonusSvc)
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			handler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			stopSweep()
			expiryConsumer.Stop(ctx)
		},
	})
}

// runSweep 周期性执行两件兜底工作：清理超时未确认的预订
// （兜住延迟消息丢失的场景），以及为已结束的预订补累计积分
// （兜住线下结账不走支付编排的场景）。
func runSweep(ctx context.Context, svc *application.BookingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := svc.CleanExpiredBookings(ctx); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("🛑 Sweep round failed.")
			}
			if _, err := svc.AccrueFinishedBookings(ctx); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("🛑 Accrual sweep round failed.")
			}
		case <-ctx.Done():
			return
		}
	}
}
