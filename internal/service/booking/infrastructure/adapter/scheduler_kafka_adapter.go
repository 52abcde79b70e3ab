package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"banya/internal/pkg/mq"
	"banya/internal/service/booking/domain"
)

const (
	// 延迟主题与真实的目标主题。延迟档位与默认确认超时时间匹配
	delayTopic = "delay_topic_10m"
	realTopic  = "booking-expiry-check-topic"
)

// SchedulerKafkaAdapter 实现了 port.DelayScheduler 接口。
// 到期检查任务先进延迟主题，由 delay-scheduler 在到点后搬运到真实主题。
type SchedulerKafkaAdapter struct {
	delayWriter *kafka.Writer
	// 确认超时时长，决定消息头里的精确投递时间
	confirmationTimeout time.Duration
}

// NewSchedulerKafkaAdapter 创建一个新的延迟任务调度器适配器。
func NewSchedulerKafkaAdapter(brokers []string, confirmationTimeout time.Duration) *SchedulerKafkaAdapter {
	return &SchedulerKafkaAdapter{
		delayWriter:         mq.NewKafkaWriter(brokers, delayTopic),
		confirmationTimeout: confirmationTimeout,
	}
}

// ScheduleExpiryCheck 实现了发送延迟消息的逻辑。
func (a *SchedulerKafkaAdapter) ScheduleExpiryCheck(ctx context.Context, bookingID string, creationTime time.Time) error {
	taskEvent := domain.ExpiryCheckEvent{
		BookingID: bookingID,
		CreatedAt: creationTime,
	}
	taskBytes, err := json.Marshal(taskEvent)
	if err != nil {
		return err
	}

	delayTimestamp := creationTime.Add(a.confirmationTimeout).Format(time.RFC3339)

	msg := kafka.Message{
		Key:   []byte(bookingID),
		Value: taskBytes,
		Headers: []kafka.Header{
			{Key: "real-topic", Value: []byte(realTopic)},
			{Key: "delay-timestamp", Value: []byte(delayTimestamp)},
		},
	}
	mq.InjectTraceContext(ctx, &msg.Headers)

	return a.delayWriter.WriteMessages(ctx, msg)
}

// Close 关闭底层的Kafka writer。
func (a *SchedulerKafkaAdapter) Close() error {
	return a.delayWriter.Close()
}
