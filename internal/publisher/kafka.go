package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
)

const kafkaWriteTimeout = 10 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per event, keyed by mcv_id so a
// series always lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *logrus.Logger
}

// NewKafkaWriter builds a synchronous writer for cfg.
func NewKafkaWriter(cfg configs.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Zstd,
	}
}

func NewKafkaPublisher(writer messageWriter, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.MCVID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.MCVID),
			Value: value,
			Time:  e.PublishedAt,
		})
	}

	writeCtx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(writeCtx, msgs...); err != nil {
		return fmt.Errorf("failed to send %d messages to Kafka: %w", len(msgs), err)
	}
	p.logger.Infof("Published %d events to Kafka", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close Kafka writer: %w", err)
	}
	return nil
}
