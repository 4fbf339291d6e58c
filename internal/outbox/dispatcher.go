package outbox

import (
	"context"
	"io"
	"log"

	"github.com/segmentio/kafka-go"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaProducer returns a writer that hashes on the message key so every
// event of one order lands on the same partition.
func NewKafkaProducer(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// LogProducer stands in for Kafka when no brokers are configured.
type LogProducer struct {
	Logger *log.Logger
}

func (p LogProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		p.Logger.Printf("outbox: topic=%s key=%s value=%s", m.Topic, m.Key, m.Value)
	}
	return nil
}

type Dispatcher struct {
	logger   *log.Logger
	producer Producer
	topic    string
}

func NewDispatcher(logger *log.Logger, producer Producer, topic string) *Dispatcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Dispatcher{logger: logger, producer: producer, topic: topic}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	msg := kafka.Message{
		Topic: d.topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
		},
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		d.logger.Printf("outbox: dispatch failed event_id=%d err=%v", event.ID, err)
		return err
	}
	d.logger.Printf("outbox: dispatched event_id=%d type=%s", event.ID, event.Type)
	return nil
}
