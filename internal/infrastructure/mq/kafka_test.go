package mq

import (
	"errors"
	"testing"

	"pointledger/internal/config"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestProducerPublish(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"a":1}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p := NewProducer(sp)
	if err := p.Publish("topic", "42", `{"a":1}`); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestProducerPublishError(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducer(sp)
	if err := p.Publish("topic", "k", "v"); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	_ = p.Close()
}

func TestNewDisabledUsesLogPublisher(t *testing.T) {
	pub, err := New(&config.KafkaConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := pub.(LogPublisher); !ok {
		t.Fatalf("expected LogPublisher, got %T", pub)
	}
	if err := pub.Publish("t", "k", `{"x":true}`); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
