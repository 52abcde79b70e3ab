// cmd/delay-scheduler/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"banya/internal/pkg/bootstrap"
	"banya/internal/pkg/mq"
	"banya/internal/pkg/tracing"
)

const serviceName = "delay-scheduler"

// 支持的延迟级别。预订确认超时用 10m 档，其余档位留给后续任务类型。
var delayLevels = map[string]time.Duration{
	"delay_topic_1m":  1 * time.Minute,
	"delay_topic_10m": 10 * time.Minute,
}

var tracer = otel.Tracer(serviceName)

// Scheduler 负责单个延迟级别的轮询搬运：
// 到期的消息从延迟主题转投到 real-topic 头指定的真实主题。
type Scheduler struct {
	level       string
	delay       time.Duration
	brokers     []string
	kafkaReader *kafka.Reader
	// 每个真实主题一个独立的 writer
	kafkaWriters map[string]*kafka.Writer
	writerLock   sync.Mutex
}

// NewScheduler 创建一个针对特定延迟级别的新调度器。
func NewScheduler(brokers []string, level string, delay time.Duration) *Scheduler {
	reader := mq.NewKafkaReader(brokers, level, serviceName+"-group-"+level)
	return &Scheduler{
		level:        level,
		delay:        delay,
		brokers:      brokers,
		kafkaReader:  reader,
		kafkaWriters: make(map[string]*kafka.Writer),
	}
}

// StartPolling 启动定时轮询器。
func (s *Scheduler) StartPolling(ctx context.Context, interval time.Duration) {
	log.Printf("✅ Polling scheduler for level '%s' started, checking every %v", s.level, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.kafkaReader.Close()
	defer s.closeWriters()

	for {
		select {
		case <-ticker.C:
			s.checkAndPublish(ctx)
		case <-ctx.Done():
			log.Printf("🛑 Shutting down polling for level '%s'", s.level)
			return
		}
	}
}

// checkAndPublish 消费延迟主题的队头消息：到期则搬运，未到期则等下一轮。
// 同一延迟主题内消息按进入时间有序，队头未到期时后续一定也未到期。
func (s *Scheduler) checkAndPublish(parentCtx context.Context) {
	for {
		// FetchMessage 不会自动提交 offset，提交流程由我们控制
		msg, err := s.kafkaReader.FetchMessage(parentCtx)
		if err != nil {
			break
		}

		// 理论投递时间：优先用生产方写入的 delay-timestamp 头，
		// 缺失时退化为 消息进入延迟主题的时间 + 延迟时长
		deliveryTime := msg.Time.Add(s.delay)
		if raw := s.getHeader(msg.Headers, "delay-timestamp"); raw != "" {
			if ts, err := time.Parse(time.RFC3339, raw); err == nil {
				deliveryTime = ts
			}
		}

		propagator := otel.GetTextMapPropagator()
		header := mq.KafkaHeaderCarrier(msg.Headers)
		spanCtx := propagator.Extract(parentCtx, &header)
		now := time.Now().UTC()
		ctx, span := tracer.Start(spanCtx, "scheduler.CheckAndPublish", trace.WithAttributes(
			attribute.String("delay.level", s.level),
			attribute.String("now", now.Format(time.DateTime)),
			attribute.String("delivery", deliveryTime.Format(time.DateTime)),
		))
		if !now.After(deliveryTime) {
			span.AddEvent("HeadMessageNotDue")
			span.End()
			break
		}

		realTopic := s.getHeader(msg.Headers, "real-topic")
		if realTopic == "" {
			log.Printf("ERROR: 'real-topic' header missing in message from '%s'. Skipping.", s.level)
			// 坏消息也要提交，否则会被无限重复消费
			if err := s.kafkaReader.CommitMessages(ctx, msg); err != nil {
				log.Printf("ERROR: Failed to commit message after skipping: %v", err)
			}
			span.End()
			continue
		}

		if err := s.publish(ctx, realTopic, msg); err != nil {
			log.Printf("ERROR: Failed to publish message to real topic '%s': %v", realTopic, err)
			// 投递失败不提交 offset，等待下次轮询重试
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to publish to real topic")
			span.End()
			break
		}

		if err := s.kafkaReader.CommitMessages(ctx, msg); err != nil {
			log.Printf("ERROR: Failed to commit message for '%s' after successful publish: %v", s.level, err)
			span.RecordError(err)
			span.End()
			break
		}
		span.AddEvent("MessagePublishedAndCommitted", trace.WithAttributes(attribute.String("real.topic", realTopic)))
		span.End()
	}
}

// publish 将消息投递到真实业务主题。
func (s *Scheduler) publish(ctx context.Context, realTopic string, msg kafka.Message) error {
	s.writerLock.Lock()
	writer, exists := s.kafkaWriters[realTopic]
	if !exists {
		writer = mq.NewKafkaWriter(s.brokers, realTopic)
		s.kafkaWriters[realTopic] = writer
	}
	s.writerLock.Unlock()

	// 重新构造消息，并注入追踪上下文
	publishMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
	}
	traceCtx := mq.ExtractTraceContext(ctx, msg.Headers)
	mq.InjectTraceContext(traceCtx, &publishMsg.Headers)

	return writer.WriteMessages(ctx, publishMsg)
}

// closeWriters 安全地关闭所有 writer。
func (s *Scheduler) closeWriters() {
	s.writerLock.Lock()
	defer s.writerLock.Unlock()
	for topic, writer := range s.kafkaWriters {
		if err := writer.Close(); err != nil {
			log.Printf("ERROR: Failed to close writer for topic %s: %v", topic, err)
		}
	}
}

func (s *Scheduler) getHeader(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(serviceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatalf("failed to initialize tracer provider: %v", err)
	}
	defer tp.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// 为每个延迟级别启动一个独立的调度器 goroutine
	for level, delay := range delayLevels {
		wg.Add(1)
		scheduler := NewScheduler(cfg.Infra.Kafka.Brokers, level, delay)
		go func() {
			defer wg.Done()
			scheduler.StartPolling(ctx, 1*time.Second)
		}()
	}
	log.Println("All polling schedulers are running.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()
	wg.Wait()
}
