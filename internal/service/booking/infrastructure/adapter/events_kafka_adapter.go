package adapter

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"banya/internal/pkg/mq"
	"banya/internal/service/booking/domain"
)

// EventsTopic 是生命周期事件的广播主题，
// 通知服务和推送网关各自用独立的消费组订阅。
const EventsTopic = "booking-events"

// EventsKafkaAdapter 实现了 port.EventProducer 接口。
type EventsKafkaAdapter struct {
	writer *kafka.Writer
}

// NewEventsKafkaAdapter 创建一个新的事件生产者适配器。
func NewEventsKafkaAdapter(brokers []string) *EventsKafkaAdapter {
	return &EventsKafkaAdapter{writer: mq.NewKafkaWriter(brokers, EventsTopic)}
}

// PublishBookingEvent 将事件序列化后发往广播主题。
// 按 bathhouseId 作为 key 分区，同门店的事件保持有序。
func (a *EventsKafkaAdapter) PublishBookingEvent(ctx context.Context, event *domain.BookingEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to marshal booking event")
	}
	key := []byte(strconv.FormatUint(uint64(event.BathhouseID), 10))

	// mq.ProduceMessage 会自动注入追踪上下文
	return mq.ProduceMessage(ctx, a.writer, key, eventBytes)
}

// Close 关闭底层的Kafka writer。
func (a *EventsKafkaAdapter) Close() error {
	return a.writer.Close()
}
