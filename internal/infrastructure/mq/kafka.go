package mq

import (
	"fmt"

	"pointledger/internal/config"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog/log"
)

// Publisher delivers one message to a topic.
type Publisher interface {
	Publish(topic, key, value string) error
	Close() error
}

// Producer publishes through a sarama.SyncProducer.
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer wraps an existing SyncProducer (tests pass sarama/mocks here).
func NewProducer(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

// NewKafkaProducer dials the configured brokers.
func NewKafkaProducer(cfg *config.KafkaConfig) (*Producer, error) {
	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Retry.Max = 3
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kafkaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	log.Info().Strs("brokers", cfg.Brokers).Msg("kafka producer created")
	return NewProducer(producer), nil
}

func (p *Producer) Publish(topic, key, value string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	log.Debug().
		Str("topic", topic).
		Str("key", key).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("message published")
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}

// LogPublisher stands in for Kafka when it is disabled: events are written
// to the log and treated as delivered.
type LogPublisher struct{}

func (LogPublisher) Publish(topic, key, value string) error {
	log.Info().Str("topic", topic).Str("key", key).RawJSON("event", []byte(value)).Msg("ledger event")
	return nil
}

func (LogPublisher) Close() error { return nil }

// New returns a Kafka producer when enabled, otherwise a LogPublisher.
func New(cfg *config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		log.Warn().Msg("kafka disabled, ledger events go to the log")
		return LogPublisher{}, nil
	}
	return NewKafkaProducer(cfg)
}
