package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"banya/internal/pkg/logger"
	"banya/internal/pkg/mq"
	"banya/internal/service/booking/application"
	"banya/internal/service/booking/domain"
)

// ExpiryConsumerAdapter 是一个驱动适配器，它监听到期检查主题并驱动应用服务。
type ExpiryConsumerAdapter struct {
	reader  *kafka.Reader
	appSvc  *application.BookingService
	wg      sync.WaitGroup
	stopped bool
}

// NewExpiryConsumerAdapter 创建一个新的Kafka消费者适配器。
func NewExpiryConsumerAdapter(reader *kafka.Reader, appSvc *application.BookingService) *ExpiryConsumerAdapter {
	return &ExpiryConsumerAdapter{reader: reader, appSvc: appSvc}
}

// Start 开始监听Kafka主题。这是一个长期运行的方法。
func (a *ExpiryConsumerAdapter) Start(ctx context.Context) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.Ctx(ctx).Printf("✅ Expiry consumer started for topic '%s'.", a.reader.Config().Topic)
		for {
			if a.stopped {
				return
			}
			// 用FetchMessage而不是ReadMessage，以便更好地控制退出逻辑
			msg, err := a.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.Ctx(ctx).Error().Err(ctx.Err()).Msg("🛑 Expiry consumer shutting down.")
					return
				}
				logger.Ctx(ctx).Printf("ERROR: could not read message: %v. Retrying...", err)
				time.Sleep(1 * time.Second) // 避免快速失败循环
				continue
			}

			propagator := otel.GetTextMapPropagator()
			headerCarrier := mq.KafkaHeaderCarrier(msg.Headers)
			newCtx := propagator.Extract(ctx, &headerCarrier)

			a.processMessage(newCtx, msg)

			if err := a.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Printf("ERROR: failed to commit messages: %v", err)
			}
		}
	}()

	return nil
}

// Stop 优雅地停止消费者。
func (a *ExpiryConsumerAdapter) Stop(ctx context.Context) {
	a.stopped = true
	a.reader.Close()
	a.wg.Wait()
	logger.Ctx(ctx).Printf("✅ Expiry consumer stopped.")
}

// processMessage 反序列化消息并调用应用服务。
// 检查是幂等的：预订已确认或已删除时直接跳过。
func (a *ExpiryConsumerAdapter) processMessage(ctx context.Context, msg kafka.Message) {
	var event domain.ExpiryCheckEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Printf("ERROR: Failed to unmarshal expiry event: %v. Message will be skipped.", err)
		return
	}

	if err := a.appSvc.ProcessExpiryCheck(ctx, &event); err != nil {
		logger.Ctx(ctx).Printf("ERROR: Failed to process expiry check for booking %s: %v", event.BookingID, err)
	}
}
