package service

import (
	"context"
	"encoding/json"
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/pkg/logger"
	"outfit-stylist-be/pkg/tier"
)

// tierRecorder is the executor observer. It logs every attempt to the tier
// log, feeds Prometheus and publishes a TierServedMessage for the stats consumer.
type tierRecorder struct {
	logger    logger.ILogger
	metrics   *TierMetrics
	publisher IPublisherService
	now       func() time.Time
}

var _ tier.Observer = &tierRecorder{}

func NewTierRecorder(logger logger.ILogger, metrics *TierMetrics, publisher IPublisherService) tier.Observer {
	return &tierRecorder{
		logger:    logger,
		metrics:   metrics,
		publisher: publisher,
		now:       time.Now,
	}
}

func (r *tierRecorder) TierFailed(operation, tierName string, err error, elapsed time.Duration) {
	r.logger.Warn("TierExecutor", "Tier failed, falling through", map[string]interface{}{
		"operation":  operation,
		"tier":       tierName,
		"elapsed_ms": elapsed.Milliseconds(),
		"error":      err.Error(),
	})
	r.metrics.observe(operation, tierName, "failed", elapsed)
	r.publish(operation, tierName, false, elapsed)
}

func (r *tierRecorder) TierServed(operation, tierName string, elapsed time.Duration) {
	r.logger.Info("TierExecutor", "Tier served", map[string]interface{}{
		"operation":  operation,
		"tier":       tierName,
		"elapsed_ms": elapsed.Milliseconds(),
	})
	r.metrics.observe(operation, tierName, "served", elapsed)
	r.publish(operation, tierName, true, elapsed)
}

func (r *tierRecorder) publish(operation, tierName string, success bool, elapsed time.Duration) {
	if r.publisher == nil {
		return
	}

	payload, err := json.Marshal(dto.TierServedMessage{
		Operation:  operation,
		Tier:       tierName,
		Success:    success,
		ElapsedMs:  elapsed.Milliseconds(),
		OccurredAt: r.now(),
	})
	if err != nil {
		return
	}
	if err := r.publisher.Publish(context.Background(), payload); err != nil {
		r.logger.Warn("TierExecutor", "Failed to publish tier message", map[string]interface{}{
			"operation": operation,
			"error":     err.Error(),
		})
	}
}
