package job

import (
	"context"
	"time"

	"pointledger/internal/config"
	"pointledger/internal/infrastructure/mq"
	"pointledger/internal/model"
	"pointledger/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OutboxSender publishes pending outbox rows, oldest first. Delivery is
// at-least-once: a crash between publish and the status update resends.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	maxRetry   int
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, publisher mq.Publisher, cfg *config.Config) *OutboxSender {
	interval := cfg.Business.OutboxInterval()
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		maxRetry:   cfg.Business.MaxRetryCount,
		interval:   interval,
		batchSize:  100,
	}
}

// Start polls until ctx is cancelled.
func (s *OutboxSender) Start(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox sender stopped")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

// ProcessPending sends one batch and returns how many messages were published.
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("load pending outbox messages")
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if updateErr := s.outboxRepo.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			log.Error().Err(updateErr).Int64("id", msg.ID).Msg("mark outbox message sent")
			return false
		}
		log.Debug().Int64("id", msg.ID).Str("topic", msg.Topic).Str("key", msg.MessageKey).Msg("outbox message sent")
		return true
	}

	log.Warn().Err(err).Int64("id", msg.ID).Int("retry_count", msg.RetryCount).Msg("publish outbox message")

	if err := s.outboxRepo.IncrementRetryCount(ctx, msg.ID); err != nil {
		log.Error().Err(err).Int64("id", msg.ID).Msg("increment outbox retry count")
	}

	if msg.RetryCount+1 >= s.maxRetry {
		if err := s.outboxRepo.MarkAsFailed(ctx, msg.ID); err != nil {
			log.Error().Err(err).Int64("id", msg.ID).Msg("mark outbox message failed")
		} else {
			log.Error().Int64("id", msg.ID).Int("max_retry", s.maxRetry).Msg("outbox message gave up after max retries")
		}
	}
	return false
}
