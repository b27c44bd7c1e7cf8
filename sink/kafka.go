package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	match "github.com/0x5487/crossbook"
	"github.com/0x5487/crossbook/protocol"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the sink depends on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaOption configures a KafkaPublishLog.
type KafkaOption func(*KafkaPublishLog)

// WithKafkaSerializer sets the report encoding, JSON by default.
func WithKafkaSerializer(s protocol.Serializer) KafkaOption {
	return func(k *KafkaPublishLog) {
		k.serializer = s
	}
}

// WithWriteTimeout bounds each Publish call.
func WithWriteTimeout(timeout time.Duration) KafkaOption {
	return func(k *KafkaPublishLog) {
		k.timeout = timeout
	}
}

// KafkaPublishLog streams execution reports to a Kafka topic, keyed by order id
// so every report of an order lands on the same partition in order.
type KafkaPublishLog struct {
	writer     messageWriter
	serializer protocol.Serializer
	timeout    time.Duration
}

// NewKafkaPublishLog creates a synchronous producer for topic.
func NewKafkaPublishLog(brokers []string, topic string, opts ...KafkaOption) *KafkaPublishLog {
	return newKafkaPublishLog(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}, opts...)
}

func newKafkaPublishLog(writer messageWriter, opts ...KafkaOption) *KafkaPublishLog {
	k := &KafkaPublishLog{
		writer:     writer,
		serializer: protocol.DefaultJSONSerializer{},
		timeout:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Publish writes the reports as one batch.
func (k *KafkaPublishLog) Publish(reports ...*match.ExecutionReport) error {
	if len(reports) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(reports))
	for _, report := range reports {
		value, err := k.serializer.Marshal(report)
		if err != nil {
			return fmt.Errorf("encode exec report %s: %w", report.ExecID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(report.OrderID, 10)),
			Value: value,
			Headers: []kafka.Header{
				{Key: "exec_type", Value: []byte(report.ExecType.String())},
				{Key: "symbol", Value: []byte(report.Symbol)},
			},
			Time: report.Timestamp,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write exec reports to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying producer.
func (k *KafkaPublishLog) Close() error {
	return k.writer.Close()
}
