// Package kafka publishes indexed records to Kafka, one topic per event
// type.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"

	"attestScope/internal/model"
)

// Topics names the destination topic for each record type.
type Topics struct {
	Attested        string
	Revoked         string
	RevokedOffchain string
	Timestamped     string
}

// TopicsWithPrefix derives the conventional topic names under one prefix.
func TopicsWithPrefix(prefix string) Topics {
	return Topics{
		Attested:        prefix + ".attested",
		Revoked:         prefix + ".revoked",
		RevokedOffchain: prefix + ".revoked_offchain",
		Timestamped:     prefix + ".timestamped",
	}
}

// Producer implements storage.Sink on a confluent-kafka-go producer.
// Publishes are asynchronous; Close flushes outstanding messages.
type Producer struct {
	producer *kafka.Producer
	topics   Topics
	logger   *zap.Logger
}

func NewProducer(broker string, topics Topics, logger *zap.Logger) (*Producer, error) {
	if broker == "" {
		return nil, fmt.Errorf("kafka broker is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	producer, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": broker})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{producer: producer, topics: topics, logger: logger}
	go p.drainEvents()
	return p, nil
}

// drainEvents logs delivery failures. The events channel closes when the
// producer does.
func (p *Producer) drainEvents() {
	for event := range p.producer.Events() {
		message, ok := event.(*kafka.Message)
		if !ok || message.TopicPartition.Error == nil {
			continue
		}
		topic := ""
		if message.TopicPartition.Topic != nil {
			topic = *message.TopicPartition.Topic
		}
		p.logger.Warn("kafka delivery failed",
			zap.String("topic", topic),
			zap.Error(message.TopicPartition.Error),
		)
	}
}

// Close flushes outstanding messages and releases the producer.
func (p *Producer) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}

func (p *Producer) PutAttested(_ context.Context, records []model.AttestedRecord) error {
	return publish(p, p.topics.Attested, records, func(r model.AttestedRecord) string { return r.UID })
}

func (p *Producer) PutRevoked(_ context.Context, records []model.RevokedRecord) error {
	return publish(p, p.topics.Revoked, records, func(r model.RevokedRecord) string { return r.UID })
}

func (p *Producer) PutRevokedOffchain(_ context.Context, records []model.RevokedOffchainRecord) error {
	return publish(p, p.topics.RevokedOffchain, records, func(r model.RevokedOffchainRecord) string {
		return fmt.Sprintf("%s:%d", r.TxHash, r.LogIndex)
	})
}

func (p *Producer) PutTimestamped(_ context.Context, records []model.TimestampedRecord) error {
	return publish(p, p.topics.Timestamped, records, func(r model.TimestampedRecord) string {
		return fmt.Sprintf("%s:%d", r.TxHash, r.LogIndex)
	})
}

func publish[T any](p *Producer, topic string, records []T, key func(T) string) error {
	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		message := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(key(record)),
			Value:          value,
		}
		if err := p.producer.Produce(message, nil); err != nil {
			return fmt.Errorf("produce to %s: %w", topic, err)
		}
	}
	return nil
}
