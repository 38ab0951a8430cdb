package service

import (
	"context"
	"encoding/json"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/pkg/logger"
	"outfit-stylist-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService folds tier-served messages into the in-memory tier stats.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	statsRepo *memory.TierStatsRepository
	logger    logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	statsRepo *memory.TierStatsRepository,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		statsRepo: statsRepo,
		logger:    logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var payload dto.TierServedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("TierStatsConsumer", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Ack invalid messages to prevent infinite retry
		msg.Ack()
		return
	}

	cs.statsRepo.Record(payload.Operation, payload.Tier, payload.Success, payload.OccurredAt)
	msg.Ack()
}
