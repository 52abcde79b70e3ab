// cmd/notification-service/main.go
package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"banya/internal/pkg/bootstrap"
	"banya/internal/pkg/httpclient"
	"banya/internal/pkg/logger"
	"banya/internal/pkg/mq"
	"banya/internal/pkg/tracing"
	"banya/internal/service/booking/domain"
	"banya/internal/service/booking/infrastructure/adapter"
	"banya/internal/service/notify"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-group"
)

var tracer = otel.Tracer(serviceName)

func main() {
	bootstrap.Init()
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	sender := notify.NewTelegramSender(
		httpclient.NewClient(tracer),
		cfg.Telegram.BotToken,
		cfg.Telegram.NotificationChatID,
		cfg.Telegram.Stage,
	)

	reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, adapter.EventsTopic, consumerGroupID)
	defer reader.Close()

	log.Println("Notification Service started as a Kafka consumer for topic:", adapter.EventsTopic)

	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("could not read message: %v", err)
			continue
		}
		go processEvent(sender, msg)
	}
}

// processEvent 处理从 Kafka 收到的单条生命周期事件。
func processEvent(sender *notify.TelegramSender, msg kafka.Message) {
	// 从消息头中提取追踪上下文，接上 booking-service 的链路
	ctx := mq.ExtractTraceContext(context.Background(), msg.Headers)

	spanOpts := []trace.SpanStartOption{
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	}
	ctx, span := tracer.Start(ctx, "notification-service.ProcessEvent", spanOpts...)
	defer span.End()

	var event domain.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal booking event")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("booking.id", event.BookingID),
		attribute.String("event.type", event.Type),
	)

	text := notify.FormatEvent(&event)
	if text == "" {
		span.AddEvent("Unknown event type skipped.")
		return
	}

	if err := sender.Send(ctx, text); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("booking_id", event.BookingID).
			Msg("🛑 Failed to deliver telegram notification.")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.AddEvent("Notification sent successfully")
}
